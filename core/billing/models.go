package billing

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chuteinicial/backend/core"
)

// Charge statuses; only pending is assigned here, the rest are reached by
// external reconciliation.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Charge is one monthly fee for one student. At most one charge may exist per
// (student, reference month); the repositories enforce this as a natural key.
type Charge struct {
	ID             string  `json:"id"`
	StudentID      string  `json:"alunoId"`
	GuardianID     string  `json:"responsavelId"`
	ReferenceMonth string  `json:"mesReferencia"` // YYYY-MM
	Amount         float64 `json:"valor"`
	Status         string  `json:"status"`
	// denormalized for reporting
	StudentName   string    `json:"alunoNome"`
	GuardianEmail string    `json:"responsavelEmail"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewCharge contains information needed to issue a single charge.
type NewCharge struct {
	GuardianID     string  `json:"responsavelId" validate:"required"`
	StudentID      string  `json:"alunoId" validate:"required"`
	ReferenceMonth string  `json:"mesReferencia" validate:"required,refmonth"`
	Amount         float64 `json:"valor" validate:"required,gt=0"`
	GuardianEmail  string  `json:"responsavelEmail" validate:"omitempty,email"`
	StudentName    string  `json:"alunoNome"`
}

func (nc *NewCharge) Validate(validate *validator.Validate) error {
	nc.GuardianID = core.CleanString(nc.GuardianID)
	nc.StudentID = core.CleanString(nc.StudentID)
	nc.ReferenceMonth = core.CleanString(nc.ReferenceMonth)
	nc.GuardianEmail = core.CleanString(nc.GuardianEmail, true /* lower */)
	nc.StudentName = core.CleanString(nc.StudentName)
	return validate.Struct(nc)
}

// BatchRequest triggers issuance of missing charges for one reference month.
type BatchRequest struct {
	ReferenceMonth string `json:"mesReferencia" validate:"required,refmonth"`
}

func (br *BatchRequest) Validate(validate *validator.Validate) error {
	br.ReferenceMonth = core.CleanString(br.ReferenceMonth)
	return validate.Struct(br)
}

// BatchSummary reports one batch run; it is returned even when nothing was
// processed.
type BatchSummary struct {
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}

type QueryFilter struct {
	StudentID      string `query:"alunoId"`
	GuardianID     string `query:"responsavelId"`
	ReferenceMonth string `query:"mesReferencia"`
	Status         string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.GuardianID == "" && qf.ReferenceMonth == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.GuardianID = core.CleanString(qf.GuardianID)
	qf.ReferenceMonth = core.CleanString(qf.ReferenceMonth)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
