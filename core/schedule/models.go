package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chuteinicial/backend/core"
)

// Schedule is a recurring weekly training slot for one category.
type Schedule struct {
	ID        string    `json:"id"`
	Category  string    `json:"categoria"`
	Weekday   string    `json:"diaSemana"`
	TimeRange string    `json:"horario"` // e.g. "17:00 - 18:00"
	Location  string    `json:"local"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewSchedule contains information needed to create a training slot.
type NewSchedule struct {
	Category  string `json:"categoria" validate:"required,categoria"`
	Weekday   string `json:"diaSemana" validate:"required"`
	TimeRange string `json:"horario" validate:"required"`
	Location  string `json:"local" validate:"required"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Category = core.CleanString(ns.Category)
	ns.Weekday = core.CleanString(ns.Weekday)
	ns.TimeRange = core.CleanString(ns.TimeRange)
	ns.Location = core.CleanString(ns.Location)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Category string `query:"categoria"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.Category == "" }

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category)
}
