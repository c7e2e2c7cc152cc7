package guardian

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
)

var (
	// errors
	ErrNotFound    = errors.New("guardian not found")
	ErrEmailExists = errors.New("a guardian with this email already exists")
)

type (
	Repository interface {
		GetGuardianByID(ctx context.Context, id string, exec ...core.DBExecutor) (Guardian, error)
		GetGuardianByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Guardian, error)
		CreateGuardian(ctx context.Context, grd Guardian, exec ...core.DBExecutor) (Guardian, error)
		// UpdateGuardianContact refreshes name/phone in place; the linked-student set is untouched.
		UpdateGuardianContact(ctx context.Context, id, name, phone string, exec ...core.DBExecutor) (Guardian, error)
		QueryGuardians(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Guardian, error)
		// AddStudentLink is an atomic, idempotent set-add on the guardian's linked-student set.
		AddStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error
		// RemoveStudentLink is an atomic, idempotent set-remove; returns ErrNotFound if the guardian is gone.
		RemoveStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error
		SetGuardianPassword(ctx context.Context, grd Guardian, exec ...core.DBExecutor) error
		SetLastLogin(ctx context.Context, grd Guardian, exec ...core.DBExecutor) (Guardian, error)
	}

	// Resolution is the outcome of an identity resolution.
	Resolution struct {
		Guardian Guardian
		// Created reports that a new identity with a temporary credential was
		// provisioned; the caller should inform the user to reset it.
		Created bool
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		log     core.Logger
	}
)

const tempCredentialLength = 16

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		log:     logger,
	}
}

func (svc *Service) checkEmailUniqueness(email string) error {
	_, err := svc.repo.GetGuardianByEmail(context.Background(), email)
	switch errors.Cause(err) {
	case nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

// Resolve finds-or-creates the identity for the given contact info; email
// uniquely determines the identity. An existing identity gets its name/phone
// refreshed in place; a new one is provisioned with role guardian, an empty
// linked-student set and a random temporary credential.
func (svc *Service) Resolve(ctx context.Context, rg ResolveGuardian, exec ...core.DBExecutor) (Resolution, error) {
	grd, err := svc.repo.GetGuardianByEmail(ctx, rg.Email, exec...)
	if err == nil {
		grd, err = svc.repo.UpdateGuardianContact(ctx, grd.ID, rg.Name, rg.Phone, exec...)
		if err != nil {
			return Resolution{}, errors.Wrap(err, "refreshing guardian contact info")
		}
		return Resolution{Guardian: grd}, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Resolution{}, errors.Wrap(err, "looking up guardian identity")
	}

	tempPwd, err := core.RandomPassword(tempCredentialLength)
	if err != nil {
		return Resolution{}, errors.Wrap(err, "generating temporary credential")
	}

	now := time.Now().UTC()
	grd = Guardian{
		Name:       rg.Name,
		Email:      rg.Email,
		Phone:      rg.Phone,
		Role:       RoleGuardian,
		StudentIDs: []string{},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = grd.SetPassword(tempPwd); err != nil {
		return Resolution{}, errors.Wrap(err, "setting temporary credential")
	}

	grd, err = svc.repo.CreateGuardian(ctx, grd, exec...)
	if err != nil {
		return Resolution{}, errors.Wrap(err, "creating guardian identity")
	}
	return Resolution{Guardian: grd, Created: true}, nil
}

// CreateAdmin provisions an admin account with a known password.
func (svc *Service) CreateAdmin(ctx context.Context, na NewAdmin) (Guardian, error) {
	now := time.Now().UTC()
	grd := Guardian{
		Name:       na.Name,
		Email:      na.Email,
		Role:       RoleAdmin,
		StudentIDs: []string{},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := grd.SetPassword(na.Password); err != nil {
		return Guardian{}, err
	}
	return svc.repo.CreateGuardian(ctx, grd)
}

func (svc *Service) GetByID(ctx context.Context, id string, exec ...core.DBExecutor) (Guardian, error) {
	return svc.repo.GetGuardianByID(ctx, id, exec...)
}

func (svc *Service) GetByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Guardian, error) {
	return svc.repo.GetGuardianByEmail(ctx, core.CleanString(email, true /* lower */), exec...)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Guardian, error) {
	return svc.repo.QueryGuardians(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, ug UpdateGuardian) (Guardian, error) {
	return svc.repo.UpdateGuardianContact(ctx, id, ug.Name, ug.Phone)
}

func (svc *Service) SetLastLogin(ctx context.Context, grd Guardian) (Guardian, error) {
	grd.LastLogin = time.Now().UTC()
	return svc.repo.SetLastLogin(ctx, grd)
}

// AddStudentLink records studentID in the guardian's linked-student set; safe to retry.
func (svc *Service) AddStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error {
	if err := svc.repo.AddStudentLink(ctx, guardianID, studentID, exec...); err != nil {
		return errors.Wrap(err, "linking student to guardian")
	}
	return nil
}

// RemoveStudentLink drops studentID from the guardian's linked-student set.
// A missing guardian is tolerated (the orphaned reference is logged, not fatal).
func (svc *Service) RemoveStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error {
	err := svc.repo.RemoveStudentLink(ctx, guardianID, studentID, exec...)
	if errors.Cause(err) == ErrNotFound {
		svc.log.Warn(fmt.Sprintf("guardian %s missing while unlinking student %s", guardianID, studentID))
		return nil
	}
	return errors.Wrap(err, "unlinking student from guardian")
}

// SendWelcomeEmail invites a freshly provisioned guardian to define their own
// password; the temporary credential itself is never emailed.
func (svc *Service) SendWelcomeEmail(grd Guardian) {
	svc.mailSvc.SendMessages(svc.welcomeMessage(grd))
}

func (svc *Service) welcomeMessage(grd Guardian) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: grd.Name, Address: grd.Email}},
		Subject:      "Welcome! Set up your account",
		TemplateName: "guardian-welcome",
		TemplateData: struct {
			Name, UID, Token string
		}{grd.Name, EncodeUID(grd), makeToken(grd)},
	}
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	grd, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(svc.passwordResetMessage(grd))
	return nil
}

func (svc *Service) passwordResetMessage(grd Guardian) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: grd.Name, Address: grd.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name, UID, Token string
		}{grd.Name, EncodeUID(grd), makeToken(grd)},
	}
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetGuardianPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	grd, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return errors.Wrap(err, "finding guardian by id")
	}
	if err = verifyToken(grd, data.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = grd.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	grd.UpdatedAt = time.Now().UTC()
	return svc.repo.SetGuardianPassword(ctx, grd)
}
