package service

import (
	"context"
	"errors"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/lock"
)

// inTx runs fn inside one unit of work while holding key. The lock is kept
// until after commit so no other writer observes a half-applied change.
func inTx(ctx context.Context, factory unitofwork.RepositoryFactory, locker lock.Locker, key string, fn func(uow unitofwork.UnitOfWork) error) error {
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return apperror.Internal("acquire "+key, err)
	}
	defer release()

	uow := factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal("begin transaction", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal("commit transaction", err)
	}
	return nil
}

// logFailure records business rejections at warn and everything else at error.
func logFailure(log logger.ILogger, module, message string, err error, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["error"] = err.Error()

	var appErr apperror.AppError
	var internal *apperror.InternalError
	if errors.As(err, &appErr) && !errors.As(err, &internal) {
		details["code"] = appErr.ErrorCode()
		log.Warn(module, message, details)
		return
	}
	log.Error(module, message, details)
}
