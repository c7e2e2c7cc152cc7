package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chuteinicial/backend/core"
)

// DateLayout is the ISO calendar date layout used for birth dates and attendance.
const DateLayout = "2006-01-02"

// Categories is the fixed set of age-group cohorts.
var Categories = []string{"Sub-7", "Sub-9", "Sub-11", "Sub-13", "Sub-15"}

func IsValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

var nowFunc = time.Now // mockable

// Student is a registered participant in a category.
// Age is always derived from DateOfBirth as of now; it is never stored and
// never trusted from client input.
type Student struct {
	ID           string       `json:"id"`
	Name         string       `json:"nome"`
	DateOfBirth  string       `json:"dataNascimento"` // ISO calendar date
	Age          int          `json:"idade"`
	Category     string       `json:"categoria"`
	JerseyNumber string       `json:"numeroCamisa"`
	IsActive     bool         `json:"ativo"`
	GuardianID   string       `json:"responsavelId"`
	Attendance   []Attendance `json:"presencas,omitempty"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

// DeriveAge recomputes Age from DateOfBirth as of now.
func (s *Student) DeriveAge() {
	if dob, err := time.Parse(DateLayout, s.DateOfBirth); err == nil {
		s.Age = AgeAt(dob, nowFunc())
	}
}

// AgeAt computes whole years between dob and now: calendar-year subtraction
// adjusted down when the birthday has not been reached yet this year.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Attendance is one record per (student, calendar date).
type Attendance struct {
	Date    string `json:"data"` // ISO calendar date
	Present bool   `json:"presente"`
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name         string `json:"nome" validate:"required"`
	DateOfBirth  string `json:"dataNascimento" validate:"required,datetime=2006-01-02"`
	Category     string `json:"categoria" validate:"required,categoria"`
	JerseyNumber string `json:"numeroCamisa"`
	Active       *bool  `json:"ativo"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Category = core.CleanString(ns.Category)
	ns.JerseyNumber = core.CleanString(ns.JerseyNumber)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify a Student.
type UpdateStudent struct {
	Name         string  `json:"nome"`
	DateOfBirth  string  `json:"dataNascimento" validate:"omitempty,datetime=2006-01-02"`
	Category     string  `json:"categoria" validate:"omitempty,categoria"`
	JerseyNumber *string `json:"numeroCamisa"`
	Active       *bool   `json:"ativo"`
}

func (us *UpdateStudent) Validate(origStd Student, validate *validator.Validate) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = origStd.Name
	}
	if us.DateOfBirth == "" {
		us.DateOfBirth = origStd.DateOfBirth
	}
	cat := core.CleanString(us.Category)
	if cat != "" {
		us.Category = cat
	} else {
		us.Category = origStd.Category
	}
	return validate.Struct(us)
}

// SetAttendance marks one student present/absent on one calendar date.
type SetAttendance struct {
	Date    string `json:"data" validate:"required,datetime=2006-01-02"`
	Present bool   `json:"presente"`
}

func (sa *SetAttendance) Validate(validate *validator.Validate) error {
	sa.Date = core.CleanString(sa.Date)
	return validate.Struct(sa)
}

// RosterMark is one entry of a bulk attendance submission.
type RosterMark struct {
	StudentID string `json:"alunoId" validate:"required"`
	Present   bool   `json:"presente"`
}

// MarkRoster marks a whole roster for one calendar date.
type MarkRoster struct {
	Date  string       `json:"data" validate:"required,datetime=2006-01-02"`
	Marks []RosterMark `json:"presencas" validate:"required,min=1,dive"`
}

func (mr *MarkRoster) Validate(validate *validator.Validate) error {
	mr.Date = core.CleanString(mr.Date)
	return validate.Struct(mr)
}

type QueryFilter struct {
	Category   string `query:"categoria"`
	IsActive   *bool  `query:"ativo"`
	GuardianID string `query:"responsavelId"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Category == "" && qf.IsActive == nil && qf.GuardianID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category)
	qf.GuardianID = core.CleanString(qf.GuardianID)
}
