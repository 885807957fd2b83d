package types

import (
	"fmt"
	"time"
)

// Kind is the native value kind a type coerces to.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindDateTime
	KindTime
)

var kindNames = [...]string{
	KindString:   "string",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindBoolean:  "boolean",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindTime:     "time",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Layouts accepted for the temporal kinds.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date is a calendar date value.
type Date struct{ time.Time }

func (d Date) String() string { return d.Format(DateLayout) }

// DateTime is a timestamp value.
type DateTime struct{ time.Time }

func (d DateTime) String() string { return d.Format(time.RFC3339Nano) }

// TimeOfDay is a wall-clock time value without a date.
type TimeOfDay struct{ time.Time }

func (t TimeOfDay) String() string { return t.Format(TimeLayout) }
