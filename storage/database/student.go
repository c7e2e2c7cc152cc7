package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/student"
)

const studentColumns = `id, name, date_of_birth, category, jersey_number, is_active, guardian_id, created_at, updated_at`

var studentOrderable = []string{"name", "date_of_birth", "category", "created_at", "updated_at"}

type studentRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	DateOfBirth  time.Time `db:"date_of_birth"`
	Category     string    `db:"category"`
	JerseyNumber string    `db:"jersey_number"`
	IsActive     bool      `db:"is_active"`
	GuardianID   string    `db:"guardian_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:           r.ID,
		Name:         r.Name,
		DateOfBirth:  r.DateOfBirth.Format(student.DateLayout),
		Category:     r.Category,
		JerseyNumber: r.JerseyNumber,
		IsActive:     r.IsActive,
		GuardianID:   r.GuardianID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type attendanceRow struct {
	Date    time.Time `db:"date"`
	Present bool      `db:"present"`
}

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	dob, err := time.Parse(student.DateLayout, std.DateOfBirth)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "parsing date of birth")
	}

	std.ID = uuid.New().String()
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = repo.getExec(exec).ExecContext(ctx, q,
		std.ID, std.Name, dob, std.Category, std.JerseyNumber, std.IsActive,
		std.GuardianID, std.CreatedAt, std.UpdatedAt)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return row.student(), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM student`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Category != "" {
			conds = append(conds, `category = `+arg(filter.Category))
		}
		if filter.IsActive != nil {
			conds = append(conds, `is_active = `+arg(*filter.IsActive))
		}
		if filter.GuardianID != "" {
			conds = append(conds, `guardian_id = `+arg(filter.GuardianID))
		}
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, studentOrderable, "name")

	var rows []studentRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, isActive *bool, exec ...core.DBExecutor) (student.Student, error) {
	dob, err := time.Parse(student.DateLayout, std.DateOfBirth)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "parsing date of birth")
	}

	var row studentRow
	q := `UPDATE student
		SET name = $2, date_of_birth = $3, category = $4, jersey_number = $5,
			is_active = COALESCE($6, is_active), updated_at = $7
		WHERE id = $1
		RETURNING ` + studentColumns
	err = repo.getExec(exec).GetContext(ctx, &row, q,
		std.ID, std.Name, dob, std.Category, std.JerseyNumber, isActive, std.UpdatedAt)
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "updating student")
	}
	return row.student(), nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) UpsertAttendance(ctx context.Context, studentID string, att student.Attendance, exec ...core.DBExecutor) error {
	date, err := time.Parse(student.DateLayout, att.Date)
	if err != nil {
		return errors.Wrap(err, "parsing attendance date")
	}

	// one write per (student, date): a resubmitted date overwrites the flag
	q := `INSERT INTO attendance (id, student_id, date, present)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, date) DO UPDATE SET present = EXCLUDED.present`
	_, err = repo.getExec(exec).ExecContext(ctx, q, uuid.New().String(), studentID, date, att.Present)
	return errors.Wrap(err, "upserting attendance")
}

func (repo studentRepository) QueryAttendance(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]student.Attendance, error) {
	var rows []attendanceRow
	q := `SELECT date, present FROM attendance WHERE student_id = $1 ORDER BY date DESC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	atts := make([]student.Attendance, 0, len(rows))
	for _, row := range rows {
		atts = append(atts, student.Attendance{Date: row.Date.Format(student.DateLayout), Present: row.Present})
	}
	return atts, nil
}
