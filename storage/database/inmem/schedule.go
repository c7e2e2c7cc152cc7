package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, sch schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sch.ID = uuid.New().String()
	cp := sch
	repo.db.table[sch.ID] = &cp
	return sch, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string, exec ...core.DBExecutor) (schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.table[id]; ok {
		return *sch, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QuerySchedules(ctx context.Context, filter *schedule.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schs := make([]schedule.Schedule, 0, len(repo.db.table))
	for _, sch := range repo.db.table {
		if filter != nil && filter.Category != "" && sch.Category != filter.Category {
			continue
		}
		schs = append(schs, *sch)
	}
	sort.Slice(schs, func(i, j int) bool {
		if schs[i].Category == schs[j].Category {
			return schs[i].Weekday < schs[j].Weekday
		}
		return schs[i].Category < schs[j].Category
	})
	return schs, nil
}

func (repo *scheduleRepository) DeleteSchedule(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
