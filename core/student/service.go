package student

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")

	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuteinicial_registrations_total",
		Help: "Number of students registered.",
	})
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student, isActive *bool, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
		// UpsertAttendance is a single atomic write per (student, date): it
		// overwrites the present flag if an entry exists, appends otherwise.
		UpsertAttendance(ctx context.Context, studentID string, att Attendance, exec ...core.DBExecutor) error
		// QueryAttendance returns entries sorted descending by date.
		QueryAttendance(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Attendance, error)
	}

	// Registration is the outcome of registering a student with their guardian.
	Registration struct {
		Student  Student
		Guardian guardian.Guardian
		// TempCredentialIssued reports that the guardian identity was newly
		// provisioned with a temporary credential.
		TempCredentialIssued bool
	}

	Service struct {
		db        core.DB
		repo      Repository
		guardians *guardian.Service
		log       core.Logger
	}
)

func NewService(db core.DB, repo Repository, guardians *guardian.Service, logger core.Logger) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		guardians: guardians,
		log:       logger,
	}
}

// Register resolves the guardian identity, creates the student and links the
// two, all inside one transaction: either every step commits or none does, so
// a linkage failure can never silently follow a committed student write.
func (svc *Service) Register(ctx context.Context, ns NewStudent, rg guardian.ResolveGuardian) (Registration, error) {
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return Registration{}, errors.Wrap(err, "beginning registration transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := svc.guardians.Resolve(ctx, rg, tx)
	if err != nil {
		return Registration{}, err
	}

	now := time.Now().UTC()
	std := Student{
		Name:         ns.Name,
		DateOfBirth:  ns.DateOfBirth,
		Category:     ns.Category,
		JerseyNumber: ns.JerseyNumber,
		IsActive:     true,
		GuardianID:   res.Guardian.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ns.Active != nil {
		std.IsActive = *ns.Active
	}

	std, err = svc.repo.CreateStudent(ctx, std, tx)
	if err != nil {
		return Registration{}, errors.Wrap(err, "creating student")
	}

	if err = svc.guardians.AddStudentLink(ctx, res.Guardian.ID, std.ID, tx); err != nil {
		return Registration{}, err
	}

	if err = tx.Commit(); err != nil {
		return Registration{}, errors.Wrap(err, "committing registration")
	}

	// only mail once the identity is durable
	if res.Created {
		svc.guardians.SendWelcomeEmail(res.Guardian)
	}
	registrationsTotal.Inc()

	std.DeriveAge()
	res.Guardian.StudentIDs = append(res.Guardian.StudentIDs, std.ID)
	return Registration{
		Student:              std,
		Guardian:             res.Guardian,
		TempCredentialIssued: res.Created,
	}, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if std.Attendance, err = svc.repo.QueryAttendance(ctx, id); err != nil {
		return Student{}, errors.Wrap(err, "loading attendance")
	}
	std.DeriveAge()
	return std, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].DeriveAge()
	}
	return students, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std := Student{
		ID:          id,
		Name:        us.Name,
		DateOfBirth: us.DateOfBirth,
		Category:    us.Category,
		UpdatedAt:   time.Now().UTC(),
	}
	if us.JerseyNumber != nil {
		std.JerseyNumber = *us.JerseyNumber
	}
	std, err := svc.repo.UpdateStudent(ctx, std, us.Active)
	if err != nil {
		return Student{}, err
	}
	std.DeriveAge()
	return std, nil
}

// Delete removes the student and its ID from the guardian's linked-student
// set in one transaction; a guardian that is already gone only logs a warning.
func (svc *Service) Delete(ctx context.Context, id string) error {
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning delete transaction")
	}
	defer func() { _ = tx.Rollback() }()

	std, err := svc.repo.GetStudentByID(ctx, id, tx)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteStudent(ctx, id, tx); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if err = svc.guardians.RemoveStudentLink(ctx, std.GuardianID, id, tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing delete")
}

// SetAttendance upserts the present flag for one (student, date); resubmitting
// the same date overwrites rather than appends.
func (svc *Service) SetAttendance(ctx context.Context, studentID string, sa SetAttendance) error {
	if _, err := svc.repo.GetStudentByID(ctx, studentID); err != nil {
		return err
	}
	att := Attendance{Date: sa.Date, Present: sa.Present}
	return errors.Wrap(svc.repo.UpsertAttendance(ctx, studentID, att), "upserting attendance")
}

// MarkRoster applies one bulk submission as independent per-student upserts;
// a failure on one student does not abort the others. Returns the number of
// students marked and any per-student errors aggregated.
func (svc *Service) MarkRoster(ctx context.Context, mr MarkRoster) (int, error) {
	var (
		marked int
		errs   *multierror.Error
	)
	for _, mark := range mr.Marks {
		att := Attendance{Date: mr.Date, Present: mark.Present}
		if err := svc.repo.UpsertAttendance(ctx, mark.StudentID, att); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "marking student %s", mark.StudentID))
			continue
		}
		marked++
	}
	return marked, errs.ErrorOrNil()
}

// AttendanceHistory returns the student's attendance sorted descending by date.
func (svc *Service) AttendanceHistory(ctx context.Context, studentID string) ([]Attendance, error) {
	if _, err := svc.repo.GetStudentByID(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendance(ctx, studentID)
}
