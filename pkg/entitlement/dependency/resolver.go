package dependency

import (
	"context"
	"sort"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/unitofwork"

	"github.com/samber/lo"
)

// Report is the outcome of validating one upgrade.
type Report struct {
	Code    string   `json:"code"`
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// PlanReport aggregates the reports of every upgrade a plan includes.
type PlanReport struct {
	PlanCode  string              `json:"plan_code"`
	Valid     bool                `json:"valid"`
	Missing   []string            `json:"missing"`
	ByUpgrade map[string][]string `json:"by_upgrade"`
}

// Err converts an invalid report into a DependencyError.
func (r *PlanReport) Err() error {
	if r.Valid {
		return nil
	}
	return &apperror.DependencyError{Missing: r.Missing, ByUpgrade: r.ByUpgrade}
}

// Node is one upgrade in a prerequisite tree. A prerequisite shared by several
// branches is the same *Node under each of them.
type Node struct {
	Code     string  `json:"code"`
	Name     string  `json:"name,omitempty"`
	Active   bool    `json:"active"`
	Missing  bool    `json:"missing,omitempty"`
	Requires []*Node `json:"requires"`
}

type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// snapshot loads the whole upgrade graph once per call so a walk never mixes
// two versions of the catalog.
type snapshot struct {
	byCode map[string]*entity.UpgradeDefinition
	graph  *Graph
}

func (r *Resolver) load(ctx context.Context, uow unitofwork.UnitOfWork) (*snapshot, error) {
	upgrades, err := uow.UpgradeRepository().FindGraph(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*entity.UpgradeDefinition, len(upgrades))
	for _, u := range upgrades {
		byCode[u.Code] = u
	}
	return &snapshot{byCode: byCode, graph: NewGraph(upgrades)}, nil
}

func (s *snapshot) usable(code string) bool {
	u, ok := s.byCode[code]
	return ok && u.IsActive
}

// missing walks code and every transitive prerequisite and returns the ones
// that are absent or inactive, in first-seen order.
func (s *snapshot) missing(code string) []string {
	seen := map[string]bool{}
	var out []string
	var visit func(c string)
	visit = func(c string) {
		if seen[c] {
			return
		}
		seen[c] = true
		if !s.usable(c) {
			out = append(out, c)
		}
		for _, next := range s.graph.Requires(c) {
			visit(next)
		}
	}
	visit(code)
	return out
}

func (r *Resolver) Validate(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*Report, error) {
	snap, err := r.load(ctx, uow)
	if err != nil {
		return nil, err
	}
	missing := snap.missing(code)
	return &Report{Code: code, Valid: len(missing) == 0, Missing: nonNil(missing)}, nil
}

func (r *Resolver) BuildTree(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*Node, error) {
	snap, err := r.load(ctx, uow)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.byCode[code]; !ok {
		return nil, apperror.NotFound("upgrade", code)
	}

	built := map[string]*Node{}
	marks := map[string]color{}
	var path []string

	var build func(c string) (*Node, error)
	build = func(c string) (*Node, error) {
		if marks[c] == gray {
			start := lo.IndexOf(path, c)
			return nil, &apperror.DependencyCycleError{Cycle: append(append([]string{}, path[start:]...), c)}
		}
		if n, ok := built[c]; ok {
			return n, nil
		}
		marks[c] = gray
		path = append(path, c)

		node := &Node{Code: c, Requires: []*Node{}}
		if u, ok := snap.byCode[c]; ok {
			node.Name = u.Name
			node.Active = u.IsActive
		} else {
			node.Missing = true
		}
		for _, next := range snap.graph.Requires(c) {
			child, err := build(next)
			if err != nil {
				return nil, err
			}
			node.Requires = append(node.Requires, child)
		}

		path = path[:len(path)-1]
		marks[c] = black
		built[c] = node
		return node, nil
	}
	return build(code)
}

func (r *Resolver) ValidatePlanUpgrades(ctx context.Context, uow unitofwork.UnitOfWork, planCode string) (*PlanReport, error) {
	plan, err := uow.PlanRepository().FindByCode(ctx, planCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("plan", planCode)
	}
	return r.ValidateIncluded(ctx, uow, plan)
}

// ValidateIncluded checks a plan already in hand, which lets a purchase
// validate the exact record it priced.
func (r *Resolver) ValidateIncluded(ctx context.Context, uow unitofwork.UnitOfWork, plan *entity.PlanDefinition) (*PlanReport, error) {
	report := &PlanReport{PlanCode: plan.Code, Valid: true, Missing: []string{}, ByUpgrade: map[string][]string{}}
	if len(plan.IncludedUpgrades) == 0 {
		return report, nil
	}

	snap, err := r.load(ctx, uow)
	if err != nil {
		return nil, err
	}
	for _, code := range lo.Uniq(plan.IncludedUpgrades) {
		if missing := snap.missing(code); len(missing) > 0 {
			report.ByUpgrade[code] = missing
			report.Missing = append(report.Missing, missing...)
		}
	}
	report.Missing = lo.Uniq(report.Missing)
	sort.Strings(report.Missing)
	report.Valid = len(report.Missing) == 0
	return report, nil
}

// CheckGraph verifies the stored graph is acyclic and returns its topological order.
func (r *Resolver) CheckGraph(ctx context.Context, uow unitofwork.UnitOfWork) ([]string, error) {
	snap, err := r.load(ctx, uow)
	if err != nil {
		return nil, err
	}
	return snap.graph.TopologicalOrder()
}

// Graph returns the current prerequisite graph.
func (r *Resolver) Graph(ctx context.Context, uow unitofwork.UnitOfWork) (*Graph, error) {
	snap, err := r.load(ctx, uow)
	if err != nil {
		return nil, err
	}
	return snap.graph, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
