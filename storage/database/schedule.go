package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/schedule"
)

const scheduleColumns = `id, category, weekday, time_range, location, created_at`

var scheduleOrderable = []string{"category", "weekday", "created_at"}

type scheduleRow struct {
	ID        string    `db:"id"`
	Category  string    `db:"category"`
	Weekday   string    `db:"weekday"`
	TimeRange string    `db:"time_range"`
	Location  string    `db:"location"`
	CreatedAt time.Time `db:"created_at"`
}

func (r scheduleRow) schedule() schedule.Schedule {
	return schedule.Schedule{
		ID:        r.ID,
		Category:  r.Category,
		Weekday:   r.Weekday,
		TimeRange: r.TimeRange,
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}

type scheduleRepository struct {
	exec core.DBExecutor
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{exec: exec}
}

func (repo scheduleRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo scheduleRepository) CreateSchedule(ctx context.Context, sch schedule.Schedule, exec ...core.DBExecutor) (schedule.Schedule, error) {
	sch.ID = uuid.New().String()
	q := `INSERT INTO schedule (` + scheduleColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		sch.ID, sch.Category, sch.Weekday, sch.TimeRange, sch.Location, sch.CreatedAt)
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return sch, nil
}

func (repo scheduleRepository) GetScheduleByID(ctx context.Context, id string, exec ...core.DBExecutor) (schedule.Schedule, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	var row scheduleRow
	q := `SELECT ` + scheduleColumns + ` FROM schedule WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Schedule{}, schedule.ErrNotFound
		}
		return schedule.Schedule{}, errors.Wrap(err, "finding schedule by ID")
	}
	return row.schedule(), nil
}

func (repo scheduleRepository) QuerySchedules(ctx context.Context, filter *schedule.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]schedule.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedule`
	var args []interface{}
	if filter != nil && filter.Category != "" {
		q += ` WHERE category = $1`
		args = append(args, filter.Category)
	}
	q += orderBy(ordering, scheduleOrderable, "category, weekday")

	var rows []scheduleRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	schs := make([]schedule.Schedule, 0, len(rows))
	for _, row := range rows {
		schs = append(schs, row.schedule())
	}
	return schs, nil
}

func (repo scheduleRepository) DeleteSchedule(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}
