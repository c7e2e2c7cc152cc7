package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
)

var ErrNotFound = errors.New("schedule not found")

type (
	Repository interface {
		CreateSchedule(ctx context.Context, sch Schedule, exec ...core.DBExecutor) (Schedule, error)
		GetScheduleByID(ctx context.Context, id string, exec ...core.DBExecutor) (Schedule, error)
		QuerySchedules(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Schedule, error)
		DeleteSchedule(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchedule) (Schedule, error) {
	sch := Schedule{
		Category:  ns.Category,
		Weekday:   ns.Weekday,
		TimeRange: ns.TimeRange,
		Location:  ns.Location,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateSchedule(ctx, sch)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Schedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Schedule, error) {
	return svc.repo.QuerySchedules(ctx, filter, ordering)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteSchedule(ctx, id)
}
