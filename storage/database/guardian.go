package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
)

const guardianColumns = `id, name, email, phone, role, student_ids, password_hash, is_active, created_at, updated_at, last_login`

var guardianOrderable = []string{"name", "email", "role", "created_at", "updated_at", "last_login"}

type guardianRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Phone        string         `db:"phone"`
	Role         string         `db:"role"`
	StudentIDs   pq.StringArray `db:"student_ids"`
	PasswordHash []byte         `db:"password_hash"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    time.Time      `db:"last_login"`
}

func (r guardianRow) guardian() guardian.Guardian {
	return guardian.Guardian{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         r.Role,
		StudentIDs:   []string(r.StudentIDs),
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

type guardianRepository struct {
	exec core.DBExecutor
}

var _ guardian.Repository = (*guardianRepository)(nil) // interface compliance check

func NewGuardianRepository(exec core.DBExecutor) *guardianRepository {
	return &guardianRepository{exec: exec}
}

func (repo guardianRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to guardian.ErrNotFound
func (repo guardianRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return guardian.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo guardianRepository) GetGuardianByID(ctx context.Context, id string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	if _, err := uuid.Parse(id); err != nil {
		return guardian.Guardian{}, guardian.ErrNotFound
	}
	var row guardianRow
	q := `SELECT ` + guardianColumns + ` FROM guardian WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return guardian.Guardian{}, repo.trapNoRowsErr(err, "finding guardian by ID")
	}
	return row.guardian(), nil
}

func (repo guardianRepository) GetGuardianByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	var row guardianRow
	q := `SELECT ` + guardianColumns + ` FROM guardian WHERE email = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, email); err != nil {
		return guardian.Guardian{}, repo.trapNoRowsErr(err, "finding guardian by email")
	}
	return row.guardian(), nil
}

func (repo guardianRepository) CreateGuardian(ctx context.Context, grd guardian.Guardian, exec ...core.DBExecutor) (guardian.Guardian, error) {
	grd.ID = uuid.New().String()
	q := `INSERT INTO guardian (` + guardianColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		grd.ID, grd.Name, grd.Email, grd.Phone, grd.Role, pq.Array(grd.StudentIDs),
		grd.PasswordHash, grd.IsActive, grd.CreatedAt, grd.UpdatedAt, grd.LastLogin)
	if err != nil {
		return guardian.Guardian{}, errors.Wrap(err, "inserting guardian")
	}
	return grd, nil
}

func (repo guardianRepository) UpdateGuardianContact(ctx context.Context, id, name, phone string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	var row guardianRow
	q := `UPDATE guardian SET name = $2, phone = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + guardianColumns
	err := repo.getExec(exec).GetContext(ctx, &row, q, id, name, phone, time.Now().UTC())
	if err != nil {
		return guardian.Guardian{}, repo.trapNoRowsErr(err, "updating guardian contact info")
	}
	return row.guardian(), nil
}

func (repo guardianRepository) QueryGuardians(ctx context.Context, filter *guardian.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]guardian.Guardian, error) {
	q := `SELECT ` + guardianColumns + ` FROM guardian`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		// guardians with name, email or phone matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, `(name ILIKE `+arg(val)+` OR email ILIKE `+arg(val)+` OR phone ILIKE `+arg(val)+`)`)
		}
		if filter.Role != "" {
			conds = append(conds, `role = `+arg(filter.Role))
		}
		if filter.IsActive != nil {
			conds = append(conds, `is_active = `+arg(*filter.IsActive))
		}
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, guardianOrderable, "created_at")

	var rows []guardianRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying guardians")
	}
	grds := make([]guardian.Guardian, 0, len(rows))
	for _, row := range rows {
		grds = append(grds, row.guardian())
	}
	return grds, nil
}

func (repo guardianRepository) AddStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	// single conditional write; re-linking an already linked student is a no-op
	q := `UPDATE guardian SET student_ids = array_append(student_ids, $2), updated_at = $3
		WHERE id = $1 AND NOT ($2 = ANY (student_ids))`
	res, err := exe.ExecContext(ctx, q, guardianID, studentID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "adding student link")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err = exe.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM guardian WHERE id = $1)`, guardianID); err != nil {
			return errors.Wrap(err, "checking guardian")
		}
		if !exists {
			return guardian.ErrNotFound
		}
	}
	return nil
}

func (repo guardianRepository) RemoveStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error {
	q := `UPDATE guardian SET student_ids = array_remove(student_ids, $2), updated_at = $3
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q, guardianID, studentID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "removing student link")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return guardian.ErrNotFound
	}
	return nil
}

func (repo guardianRepository) SetGuardianPassword(ctx context.Context, grd guardian.Guardian, exec ...core.DBExecutor) error {
	q := `UPDATE guardian SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q, grd.ID, grd.PasswordHash, grd.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "setting guardian password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return guardian.ErrNotFound
	}
	return nil
}

func (repo guardianRepository) SetLastLogin(ctx context.Context, grd guardian.Guardian, exec ...core.DBExecutor) (guardian.Guardian, error) {
	q := `UPDATE guardian SET last_login = $2 WHERE id = $1 RETURNING ` + guardianColumns
	var row guardianRow
	if err := repo.getExec(exec).GetContext(ctx, &row, q, grd.ID, grd.LastLogin); err != nil {
		return guardian.Guardian{}, repo.trapNoRowsErr(err, "recording last login")
	}
	return row.guardian(), nil
}
