// Package core holds the pure domain of the station back office: record
// types, draft validation, and summary derivation. Nothing in this package
// touches storage, the network, or the clock beyond defaulting dates.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Drafts carry user-typed input as strings so that "not a number" can be
// reported distinctly from "out of range". Validate parses, checks the
// domain constraints, and returns a fully derived record. Validation is
// synchronous and side-effect free; a failed draft commits nothing.

// PumpReadingDraft is an unsaved daily reading form.
type PumpReadingDraft struct {
	Date         Date   `json:"date"`
	PumpID       string `json:"pumpId"`
	OpeningMeter string `json:"openingMeter"`
	ClosingMeter string `json:"closingMeter"`
	UnitPrice    string `json:"unitPrice"`
	OperatorName string `json:"operatorName"`
	Notes        string `json:"notes"`
	Status       Status `json:"status"`
}

// Validate checks the draft and derives litres sold and total sales from
// the meters and unit price. Whatever the form showed for those fields is
// discarded, which is what guarantees litres = closing - opening and
// total = litres * price on every committed reading.
func (d PumpReadingDraft) Validate() (PumpReading, error) {
	if strings.TrimSpace(d.PumpID) == "" {
		return PumpReading{}, fmt.Errorf("%w: pump id", ErrMissingField)
	}
	date, err := draftDate(d.Date)
	if err != nil {
		return PumpReading{}, err
	}
	opening, err := parseNumber(d.OpeningMeter)
	if err != nil {
		return PumpReading{}, fmt.Errorf("%w: opening meter", ErrInvalidNumber)
	}
	closing, err := parseNumber(d.ClosingMeter)
	if err != nil {
		return PumpReading{}, fmt.Errorf("%w: closing meter", ErrInvalidNumber)
	}
	if closing < opening {
		return PumpReading{}, ErrOrderingViolation
	}
	price, err := parseNumber(d.UnitPrice)
	if err != nil || price <= 0 {
		return PumpReading{}, fmt.Errorf("%w: unit price", ErrInvalidNumber)
	}
	status := d.Status
	if status == "" {
		status = StatusDraft
	}
	if status != StatusDraft && status != StatusSubmitted {
		return PumpReading{}, fmt.Errorf("%w: a reading is created as draft or submitted", ErrInvalidTransition)
	}

	litres := closing - opening
	return PumpReading{
		Date:         date,
		PumpID:       strings.TrimSpace(d.PumpID),
		OpeningMeter: opening,
		ClosingMeter: closing,
		LitresSold:   litres,
		UnitPrice:    price,
		TotalSales:   litres * price,
		OperatorName: strings.TrimSpace(d.OperatorName),
		Notes:        strings.TrimSpace(d.Notes),
		Status:       status,
	}, nil
}

// PriceRecordDraft is an unsaved price change form.
type PriceRecordDraft struct {
	Date       Date   `json:"date"`
	Product    string `json:"product"`
	OldPrice   string `json:"oldPrice"`
	NewPrice   string `json:"newPrice"`
	Reason     string `json:"reason"`
	ApprovedBy string `json:"approvedBy"`
}

// Validate checks the draft and returns the immutable record.
func (d PriceRecordDraft) Validate() (PriceRecord, error) {
	if strings.TrimSpace(d.Product) == "" {
		return PriceRecord{}, fmt.Errorf("%w: product", ErrMissingField)
	}
	if strings.TrimSpace(d.OldPrice) == "" || strings.TrimSpace(d.NewPrice) == "" {
		return PriceRecord{}, fmt.Errorf("%w: both old and new prices are required", ErrMissingField)
	}
	date, err := draftDate(d.Date)
	if err != nil {
		return PriceRecord{}, err
	}
	oldPrice, err := parseNumber(d.OldPrice)
	if err != nil || oldPrice <= 0 {
		return PriceRecord{}, fmt.Errorf("%w: old price must be greater than zero", ErrInvalidNumber)
	}
	newPrice, err := parseNumber(d.NewPrice)
	if err != nil || newPrice <= 0 {
		return PriceRecord{}, fmt.Errorf("%w: new price must be greater than zero", ErrInvalidNumber)
	}
	if strings.TrimSpace(d.Reason) == "" {
		return PriceRecord{}, fmt.Errorf("%w: reason", ErrMissingField)
	}
	return PriceRecord{
		Date:       date,
		Product:    strings.TrimSpace(d.Product),
		OldPrice:   oldPrice,
		NewPrice:   newPrice,
		Reason:     strings.TrimSpace(d.Reason),
		ApprovedBy: strings.TrimSpace(d.ApprovedBy),
	}, nil
}

// TankReadingDraft is an unsaved tank reading form.
type TankReadingDraft struct {
	Date           Date   `json:"date"`
	TankID         string `json:"tankId"`
	OpeningReading string `json:"openingReading"`
	ClosingReading string `json:"closingReading"`
	FuelReceived   string `json:"fuelReceived"`
	Source         string `json:"source"`
}

// Validate checks the draft and derives the balance: a positive closing
// reading wins, otherwise opening plus fuel received.
func (d TankReadingDraft) Validate() (TankReading, error) {
	if strings.TrimSpace(d.TankID) == "" {
		return TankReading{}, fmt.Errorf("%w: tank id", ErrMissingField)
	}
	date, err := draftDate(d.Date)
	if err != nil {
		return TankReading{}, err
	}
	opening, err := parseNumber(d.OpeningReading)
	if err != nil {
		return TankReading{}, fmt.Errorf("%w: opening reading", ErrInvalidNumber)
	}
	closing, err := parseNumber(d.ClosingReading)
	if err != nil {
		return TankReading{}, fmt.Errorf("%w: closing reading", ErrInvalidNumber)
	}
	if opening < 0 || closing < 0 {
		return TankReading{}, fmt.Errorf("%w: readings cannot be negative", ErrNegativeValue)
	}
	received := 0.0
	if strings.TrimSpace(d.FuelReceived) != "" {
		received, err = parseNumber(d.FuelReceived)
		if err != nil {
			return TankReading{}, fmt.Errorf("%w: fuel received", ErrInvalidNumber)
		}
		if received < 0 {
			return TankReading{}, fmt.Errorf("%w: fuel received", ErrNegativeValue)
		}
	}

	balance := closing
	if closing <= 0 {
		balance = opening + received
	}
	return TankReading{
		Date:           date,
		TankID:         strings.TrimSpace(d.TankID),
		OpeningReading: opening,
		ClosingReading: closing,
		FuelReceived:   received,
		Balance:        balance,
		Source:         strings.TrimSpace(d.Source),
	}, nil
}

// ExpenseDraft is an unsaved expense form.
type ExpenseDraft struct {
	Date        Date   `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	ApprovedBy  string `json:"approvedBy"`
	Note        string `json:"note"`
}

// Validate checks the draft and returns the immutable record.
func (d ExpenseDraft) Validate() (Expense, error) {
	if strings.TrimSpace(d.Description) == "" {
		return Expense{}, fmt.Errorf("%w: description", ErrMissingField)
	}
	date, err := draftDate(d.Date)
	if err != nil {
		return Expense{}, err
	}
	amount, err := parseNumber(d.Amount)
	if err != nil || amount <= 0 {
		return Expense{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidNumber)
	}
	if strings.TrimSpace(d.Category) == "" {
		return Expense{}, fmt.Errorf("%w: category", ErrMissingField)
	}
	return Expense{
		Date:        date,
		Description: strings.TrimSpace(d.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(d.Category),
		ApprovedBy:  strings.TrimSpace(d.ApprovedBy),
		Note:        strings.TrimSpace(d.Note),
	}, nil
}

// draftDate defaults an unset date to today, matching the entry forms.
func draftDate(d Date) (Date, error) {
	if d.IsZero() {
		return Today(), nil
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// parseNumber parses a user-typed decimal. It accepts both dot and comma
// separators; the empty string is not a number.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidNumber
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// ReasonCode maps a validation error to its stable reason code for API
// responses. Unknown errors map to the empty string.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "MissingField"
	case errors.Is(err, ErrInvalidNumber):
		return "InvalidNumber"
	case errors.Is(err, ErrOrderingViolation):
		return "OrderingViolation"
	case errors.Is(err, ErrNegativeValue):
		return "NegativeValue"
	case errors.Is(err, ErrInvalidDate):
		return "InvalidDate"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	}
	return ""
}
