// Package inmemdb provides in-memory repositories for tests.
package inmemdb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/schedule"
	"github.com/chuteinicial/backend/core/student"
)

type (
	guardianTable struct {
		mutex sync.RWMutex
		table map[string]*guardian.Guardian
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
		// attendance: student ID -> date -> present
		attendance map[string]map[string]bool
	}

	chargeTable struct {
		mutex sync.RWMutex
		table map[string]*billing.Charge
		// byKey: student ID + reference month -> charge ID
		byKey map[string]string
	}

	scheduleTable struct {
		mutex sync.RWMutex
		table map[string]*schedule.Schedule
	}

	DB struct {
		// never exercised here: repositories in this package hit the tables
		// directly and ignore the executor handed down by services
		core.DBExecutor

		guardian *guardianTable
		student  *studentTable
		charge   *chargeTable
		schedule *scheduleTable
	}
)

var _ core.DB = (*DB)(nil) // interface compliance check

func NewDB() *DB {
	return &DB{
		guardian: &guardianTable{table: make(map[string]*guardian.Guardian)},
		student: &studentTable{
			table:      make(map[string]*student.Student),
			attendance: make(map[string]map[string]bool),
		},
		charge: &chargeTable{
			table: make(map[string]*billing.Charge),
			byKey: make(map[string]string),
		},
		schedule: &scheduleTable{table: make(map[string]*schedule.Schedule)},
	}
}

// BeginTxx hands out a no-op transaction; the in-memory tables are not
// transactional.
func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return txn{}, nil
}

type txn struct{ core.DBExecutor }

func (txn) Commit() error   { return nil }
func (txn) Rollback() error { return nil }
