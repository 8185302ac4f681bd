package core

import (
	"errors"
	"time"
)

// Validation failure taxonomy. Handlers match these with errors.Is and
// surface the reason to the caller; none of them are fatal.
var (
	ErrMissingField      = errors.New("missing field")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrOrderingViolation = errors.New("closing reading cannot be lower than opening reading")
	ErrNegativeValue     = errors.New("negative value")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Role is an opaque caller-supplied tag. The core never authenticates it,
// it only branches on it for permission-gated operations.
type Role string

const (
	RoleAttendant Role = "attendant"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAttendant, RoleManager, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// CanApprove reports whether the role may approve or reject submitted
// pump readings. Attendants record; managers and admins sign off.
func (r Role) CanApprove() bool {
	return r == RoleManager || r == RoleAdmin
}

// Status is the pump-reading workflow state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the four workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether the workflow allows s -> to.
// The only transitions modeled are draft -> submitted and
// submitted -> approved/rejected.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusSubmitted
	case StatusSubmitted:
		return to == StatusApproved || to == StatusRejected
	}
	return false
}

// Label returns the display label for a status. Kept as a plain mapping
// table so presentation never leaks into transition logic.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusSubmitted:
		return "Submitted"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	}
	return "Draft"
}

// Date is an ISO-8601 calendar date (YYYY-MM-DD). Lexicographic order on
// the string equals chronological order, so filters compare it directly.
type Date string

const dateLayout = "2006-01-02"

// Validate checks that the date is a real calendar date in ISO form.
func (d Date) Validate() error {
	if d == "" {
		return ErrInvalidDate
	}
	if _, err := time.Parse(dateLayout, string(d)); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// Today returns the current date in the local timezone.
func Today() Date {
	return Date(time.Now().Format(dateLayout))
}

// DateOf formats a time as a Date.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// PumpReading is one day's meter record for a single pump. Litres sold and
// total sales are always derived from the meters and unit price at commit
// time; user-edited values for those fields are never trusted.
type PumpReading struct {
	ID           string     `json:"id"`
	Date         Date       `json:"date"`
	PumpID       string     `json:"pumpId"`
	OpeningMeter float64    `json:"openingMeter"`
	ClosingMeter float64    `json:"closingMeter"`
	LitresSold   float64    `json:"litresSold"`
	UnitPrice    float64    `json:"unitPrice"`
	TotalSales   float64    `json:"totalSales"`
	OperatorName string     `json:"operatorName"`
	Notes        string     `json:"notes,omitempty"`
	Status       Status     `json:"status"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
}

// PriceRecord is an immutable fuel price change entry.
type PriceRecord struct {
	ID         string  `json:"id"`
	Date       Date    `json:"date"`
	Product    string  `json:"product"`
	OldPrice   float64 `json:"oldPrice"`
	NewPrice   float64 `json:"newPrice"`
	Reason     string  `json:"reason"`
	ApprovedBy string  `json:"approvedBy,omitempty"`
}

// TankReading is an immutable storage tank dip/refill record. Balance is
// derived: a positive closing reading wins, otherwise opening + received.
type TankReading struct {
	ID             string  `json:"id"`
	Date           Date    `json:"date"`
	TankID         string  `json:"tankId"`
	OpeningReading float64 `json:"openingReading"`
	ClosingReading float64 `json:"closingReading"`
	FuelReceived   float64 `json:"fuelReceived"`
	Balance        float64 `json:"balance"`
	Source         string  `json:"source,omitempty"`
}

// Expense is an immutable station expense entry.
type Expense struct {
	ID          string  `json:"id"`
	Date        Date    `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	ApprovedBy  string  `json:"approvedBy,omitempty"`
	Note        string  `json:"note,omitempty"`
}
