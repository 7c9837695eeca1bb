package service

import (
	"context"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/dto"
	"listing-billing-be/internal/pkg/logger"
)

// logTimeLayout matches zapcore.ISO8601TimeEncoder.
const logTimeLayout = "2006-01-02T15:04:05.000Z0700"

type IAdminService interface {
	GetSystemLogs(ctx context.Context, req dto.LogListRequest) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	logger logger.ILogger
}

func NewAdminService(logger logger.ILogger) IAdminService {
	return &adminService{logger: logger}
}

func (s *adminService) GetSystemLogs(ctx context.Context, req dto.LogListRequest) ([]*dto.LogListResponse, error) {
	page, limit := pageOf(req.Page, req.Limit)
	logs, err := s.logger.GetLogs(req.Level, limit, (page-1)*limit)
	if err != nil {
		return nil, apperror.Internal("read logs", err)
	}

	res := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		item := toLogListResponse(l)
		res = append(res, &item)
	}
	return res, nil
}

func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error) {
	l, err := s.logger.GetLogById(logId)
	if err != nil {
		return nil, apperror.NotFound("log", logId)
	}
	return &dto.LogDetailResponse{
		LogListResponse: toLogListResponse(*l),
		Details:         l.Details,
	}, nil
}

func toLogListResponse(l logger.LogEntry) dto.LogListResponse {
	ts, err := time.Parse(logTimeLayout, l.Timestamp)
	if err != nil {
		ts, _ = time.Parse(time.RFC3339, l.Timestamp)
	}
	return dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: ts,
	}
}
