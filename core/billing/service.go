package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/student"
)

var (
	chargesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuteinicial_charges_issued_total",
		Help: "Number of charges created.",
	})
	chargesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuteinicial_charges_skipped_total",
		Help: "Number of charge writes suppressed as duplicates.",
	})
)

type (
	Repository interface {
		// CreateCharge inserts iff no charge exists for the natural key
		// (StudentID, ReferenceMonth). This is a single conditional write, not
		// a check-then-insert; concurrent issuers cannot both succeed.
		// The bool reports whether a row was created.
		CreateCharge(ctx context.Context, chg Charge, exec ...core.DBExecutor) (Charge, bool, error)
		QueryCharges(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Charge, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		grdRepo guardian.Repository
		stdRepo student.Repository
		conf    *core.Config
		log     core.Logger
	}
)

func NewService(db core.DB, repo Repository, grdRepo guardian.Repository, stdRepo student.Repository, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		grdRepo: grdRepo,
		stdRepo: stdRepo,
		conf:    conf,
		log:     logger,
	}
}

// Issue creates one pending charge for (student, reference month). A duplicate
// is reported as a conflict, not a failure: suppression of a repeated issue is
// expected and user-visible.
func (svc *Service) Issue(ctx context.Context, nc NewCharge) (Charge, error) {
	std, err := svc.stdRepo.GetStudentByID(ctx, nc.StudentID)
	if err != nil {
		return Charge{}, err
	}
	grd, err := svc.grdRepo.GetGuardianByID(ctx, nc.GuardianID)
	if err != nil {
		return Charge{}, err
	}

	chg := Charge{
		StudentID:      std.ID,
		GuardianID:     grd.ID,
		ReferenceMonth: nc.ReferenceMonth,
		Amount:         nc.Amount,
		Status:         StatusPending,
		StudentName:    nc.StudentName,
		GuardianEmail:  nc.GuardianEmail,
		CreatedAt:      time.Now().UTC(),
	}
	if chg.StudentName == "" {
		chg.StudentName = std.Name
	}
	if chg.GuardianEmail == "" {
		chg.GuardianEmail = grd.Email
	}

	chg, created, err := svc.repo.CreateCharge(ctx, chg)
	if err != nil {
		return Charge{}, errors.Wrap(err, "creating charge")
	}
	if !created {
		chargesSkippedTotal.Inc()
		return Charge{}, core.NewConflictError(
			fmt.Sprintf("a charge for this student already exists for %s", nc.ReferenceMonth))
	}
	chargesIssuedTotal.Inc()
	return chg, nil
}

// IssueMonthly issues the missing charges for every active student of every
// guardian for the given reference month. All writes commit as one grouped
// transaction: if the commit fails, no charge from this run is persisted.
// Pre-existing charges are counted as skipped and left untouched.
func (svc *Service) IssueMonthly(ctx context.Context, referenceMonth string) (BatchSummary, error) {
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return BatchSummary{}, errors.Wrap(err, "beginning batch transaction")
	}
	defer func() { _ = tx.Rollback() }()

	grds, err := svc.grdRepo.QueryGuardians(ctx, &guardian.QueryFilter{Role: guardian.RoleGuardian}, nil, tx)
	if err != nil {
		return BatchSummary{}, errors.Wrap(err, "querying guardians")
	}

	var (
		summary BatchSummary
		active  = true
		errs    *multierror.Error
		now     = time.Now().UTC()
	)
	for _, grd := range grds {
		students, err := svc.stdRepo.QueryStudents(
			ctx, &student.QueryFilter{GuardianID: grd.ID, IsActive: &active}, nil, tx)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "querying students of guardian %s", grd.ID))
			continue
		}
		if len(students) == 0 {
			continue // nothing to bill; not an error
		}
		for _, std := range students {
			chg := Charge{
				StudentID:      std.ID,
				GuardianID:     grd.ID,
				ReferenceMonth: referenceMonth,
				Amount:         svc.conf.Billing.DefaultMonthlyFee,
				Status:         StatusPending,
				StudentName:    std.Name,
				GuardianEmail:  grd.Email,
				CreatedAt:      now,
			}
			_, created, err := svc.repo.CreateCharge(ctx, chg, tx)
			if err != nil {
				errs = multierror.Append(errs, errors.Wrapf(err, "staging charge for student %s", std.ID))
				continue
			}
			if created {
				summary.Created++
			} else {
				summary.Skipped++
			}
		}
	}

	if err = errs.ErrorOrNil(); err != nil {
		return BatchSummary{}, errors.Wrap(err, "batch aborted; no charges were issued")
	}
	if err = tx.Commit(); err != nil {
		return BatchSummary{}, errors.Wrap(err, "committing batch")
	}

	chargesIssuedTotal.Add(float64(summary.Created))
	chargesSkippedTotal.Add(float64(summary.Skipped))
	summary.Message = svc.batchMessage(summary, referenceMonth)
	return summary, nil
}

func (svc *Service) batchMessage(s BatchSummary, referenceMonth string) string {
	switch {
	case s.Created == 0 && s.Skipped == 0:
		return fmt.Sprintf("no active students to bill for %s", referenceMonth)
	case s.Created == 0:
		return fmt.Sprintf("nothing to do for %s: all %d active students were already billed", referenceMonth, s.Skipped)
	default:
		return fmt.Sprintf("issued %d new charges for %s (%d already existed)", s.Created, referenceMonth, s.Skipped)
	}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Charge, error) {
	return svc.repo.QueryCharges(ctx, filter, ordering)
}
