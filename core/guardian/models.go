package guardian

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/chuteinicial/backend/core"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleGuardian = "guardian"
)

var AllRoles = []string{RoleAdmin, RoleGuardian}

// Guardian is a person account responsible for zero or more students.
// StudentIDs mirrors the students whose GuardianID points back here; the pair
// is kept consistent by the linkage operations on Service.
type Guardian struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	StudentIDs   []string  `json:"student_ids"`
	PasswordHash []byte    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (g *Guardian) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	g.PasswordHash = hash
	return nil
}

func (g *Guardian) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(g.PasswordHash, []byte(pwd))
}

func (g *Guardian) IsAdmin() bool    { return g.Role == RoleAdmin }
func (g *Guardian) IsGuardian() bool { return g.Role == RoleGuardian }

func (g *Guardian) HasStudent(studentID string) bool {
	for _, id := range g.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// ResolveGuardian contains the contact info used to find-or-create an identity.
type ResolveGuardian struct {
	Name  string `json:"nome" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"telefone" validate:"required,phone"`
}

func (rg *ResolveGuardian) Validate(validate *validator.Validate) error {
	rg.Name = core.CleanString(rg.Name)
	rg.Email = core.CleanString(rg.Email, true /* lower */)
	rg.Phone = core.CleanString(rg.Phone)
	return validate.Struct(rg)
}

// NewAdmin contains information needed to create a new admin account.
type NewAdmin struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAdmin) Validate(validate *validator.Validate, svc *Service) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.checkEmailUniqueness(na.Email)
}

// UpdateGuardian defines what identity fields may be modified in place.
// Identity edits never touch the linked-student set.
type UpdateGuardian struct {
	Name  string `json:"nome"`
	Phone string `json:"telefone" validate:"omitempty,phone"`
}

func (ug *UpdateGuardian) Validate(origGrd Guardian, validate *validator.Validate) error {
	name := core.CleanString(ug.Name)
	if name != "" {
		ug.Name = name
	} else {
		ug.Name = origGrd.Name
	}

	phone := core.CleanString(ug.Phone)
	if phone != "" {
		ug.Phone = phone
	} else {
		ug.Phone = origGrd.Phone
	}

	return validate.Struct(ug)
}

type LoginGuardian struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lg *LoginGuardian) Validate(validate *validator.Validate) error {
	lg.Email = core.CleanString(lg.Email, true /* lower */)
	return validate.Struct(lg)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

type ResetGuardianPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetGuardianPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
