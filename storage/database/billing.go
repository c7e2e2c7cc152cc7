package database

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
)

const chargeColumns = `id, student_id, guardian_id, reference_month, amount, status, student_name, guardian_email, created_at`

var chargeOrderable = []string{"reference_month", "amount", "status", "created_at"}

type chargeRow struct {
	ID             string    `db:"id"`
	StudentID      string    `db:"student_id"`
	GuardianID     string    `db:"guardian_id"`
	ReferenceMonth string    `db:"reference_month"`
	Amount         float64   `db:"amount"`
	Status         string    `db:"status"`
	StudentName    string    `db:"student_name"`
	GuardianEmail  string    `db:"guardian_email"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r chargeRow) charge() billing.Charge {
	return billing.Charge{
		ID:             r.ID,
		StudentID:      r.StudentID,
		GuardianID:     r.GuardianID,
		ReferenceMonth: r.ReferenceMonth,
		Amount:         r.Amount,
		Status:         r.Status,
		StudentName:    r.StudentName,
		GuardianEmail:  r.GuardianEmail,
		CreatedAt:      r.CreatedAt,
	}
}

type chargeRepository struct {
	exec core.DBExecutor
}

var _ billing.Repository = (*chargeRepository)(nil) // interface compliance check

func NewChargeRepository(exec core.DBExecutor) *chargeRepository {
	return &chargeRepository{exec: exec}
}

func (repo chargeRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo chargeRepository) CreateCharge(ctx context.Context, chg billing.Charge, exec ...core.DBExecutor) (billing.Charge, bool, error) {
	chg.ID = uuid.New().String()

	// DO NOTHING on the natural key keeps the insert conditional: a concurrent
	// or repeated issue for the same (student, month) affects zero rows
	q := `INSERT INTO charge (` + chargeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, reference_month) DO NOTHING`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		chg.ID, chg.StudentID, chg.GuardianID, chg.ReferenceMonth, chg.Amount,
		chg.Status, chg.StudentName, chg.GuardianEmail, chg.CreatedAt)
	if err != nil {
		return billing.Charge{}, false, errors.Wrap(err, "inserting charge")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return billing.Charge{}, false, nil
	}
	return chg, true, nil
}

func (repo chargeRepository) QueryCharges(ctx context.Context, filter *billing.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]billing.Charge, error) {
	q := `SELECT ` + chargeColumns + ` FROM charge`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			conds = append(conds, `student_id = `+arg(filter.StudentID))
		}
		if filter.GuardianID != "" {
			conds = append(conds, `guardian_id = `+arg(filter.GuardianID))
		}
		if filter.ReferenceMonth != "" {
			conds = append(conds, `reference_month = `+arg(filter.ReferenceMonth))
		}
		if filter.Status != "" {
			conds = append(conds, `status = `+arg(filter.Status))
		}
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, chargeOrderable, "created_at DESC")

	var rows []chargeRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying charges")
	}
	charges := make([]billing.Charge, 0, len(rows))
	for _, row := range rows {
		charges = append(charges, row.charge())
	}
	return charges, nil
}
