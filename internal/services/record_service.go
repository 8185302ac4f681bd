// Package services orchestrates the record workflow: validate the draft,
// commit it to the store, then announce the commit on the message bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stationops/internal/amqp"
	"stationops/internal/core"
	"stationops/internal/ledger"
)

// ErrForbidden is returned when the caller's role does not allow the
// requested workflow action.
var ErrForbidden = errors.New("role does not allow this action")

// Publisher is the commit-event side of the AMQP client.
type Publisher interface {
	PublishRecordCommitted(ctx context.Context, msg *amqp.RecordCommittedMessage) error
}

// RecordService is the write path of the back office. A commit is
// store-first: the event publish is best effort and never fails the
// request.
type RecordService struct {
	store     ledger.Store
	publisher Publisher
}

// NewRecordService wires the service. A nil publisher disables events.
func NewRecordService(store ledger.Store, publisher Publisher) *RecordService {
	return &RecordService{store: store, publisher: publisher}
}

// SubmitReading validates and commits a pump reading draft.
func (s *RecordService) SubmitReading(ctx context.Context, draft core.PumpReadingDraft) (core.PumpReading, error) {
	reading, err := draft.Validate()
	if err != nil {
		return core.PumpReading{}, err
	}

	saved, err := s.store.AddReading(ctx, reading)
	if err != nil {
		return core.PumpReading{}, fmt.Errorf("save pump reading: %w", err)
	}

	s.publishCommit(ctx, amqp.KindReading, saved.ID, saved.Date)
	return saved, nil
}

// GetReading returns one pump reading by id.
func (s *RecordService) GetReading(ctx context.Context, id string) (core.PumpReading, error) {
	return s.store.GetReading(ctx, id)
}

// ListReadings returns all pump readings newest-first.
func (s *RecordService) ListReadings(ctx context.Context) ([]core.PumpReading, error) {
	return s.store.ListReadings(ctx)
}

// UpdateReading applies a partial patch to a non-terminal reading.
// Approved and rejected readings are immutable; a requested status
// change must be a legal transition.
func (s *RecordService) UpdateReading(ctx context.Context, id string, upd ledger.ReadingUpdate) (core.PumpReading, error) {
	current, err := s.store.GetReading(ctx, id)
	if err != nil {
		return core.PumpReading{}, err
	}
	if current.Status.Terminal() {
		return core.PumpReading{}, fmt.Errorf("%w: %s reading cannot be modified", core.ErrInvalidTransition, current.Status)
	}
	if upd.Status != nil && !current.Status.CanTransition(*upd.Status) {
		return core.PumpReading{}, fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, current.Status, *upd.Status)
	}

	updated, err := s.store.UpdateReading(ctx, id, upd)
	if err != nil {
		return core.PumpReading{}, err
	}

	s.publishCommit(ctx, amqp.KindReading, updated.ID, updated.Date)
	return updated, nil
}

// ApproveReading moves a submitted reading to approved, stamping the
// approver. Attendants cannot approve.
func (s *RecordService) ApproveReading(ctx context.Context, id, approver string, role core.Role) (core.PumpReading, error) {
	return s.resolveReading(ctx, id, approver, role, core.StatusApproved)
}

// RejectReading moves a submitted reading to rejected.
func (s *RecordService) RejectReading(ctx context.Context, id, approver string, role core.Role) (core.PumpReading, error) {
	return s.resolveReading(ctx, id, approver, role, core.StatusRejected)
}

func (s *RecordService) resolveReading(ctx context.Context, id, approver string, role core.Role, to core.Status) (core.PumpReading, error) {
	if !role.CanApprove() {
		return core.PumpReading{}, fmt.Errorf("%w: %s cannot resolve readings", ErrForbidden, role)
	}

	current, err := s.store.GetReading(ctx, id)
	if err != nil {
		return core.PumpReading{}, err
	}
	if !current.Status.CanTransition(to) {
		return core.PumpReading{}, fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, current.Status, to)
	}

	updated, err := s.store.UpdateReading(ctx, id, ledger.ReadingUpdate{
		Status:     &to,
		ApprovedBy: &approver,
	})
	if err != nil {
		return core.PumpReading{}, err
	}

	slog.InfoContext(ctx, "Pump reading resolved",
		"id", id, "status", to, "by", approver)
	s.publishCommit(ctx, amqp.KindReading, updated.ID, updated.Date)
	return updated, nil
}

// RecordPrice validates and commits a price change. The approver field
// is role-gated: approving roles keep the draft's approver (defaulting
// to the recorder), attendants never populate it.
func (s *RecordService) RecordPrice(ctx context.Context, draft core.PriceRecordDraft, recordedBy string, role core.Role) (core.PriceRecord, error) {
	price, err := draft.Validate()
	if err != nil {
		return core.PriceRecord{}, err
	}
	price.ApprovedBy = approverStamp(price.ApprovedBy, recordedBy, role)

	saved, err := s.store.AddPrice(ctx, price)
	if err != nil {
		return core.PriceRecord{}, fmt.Errorf("save price record: %w", err)
	}

	s.publishCommit(ctx, amqp.KindPrice, saved.ID, saved.Date)
	return saved, nil
}

// ListPrices returns all price records newest-first.
func (s *RecordService) ListPrices(ctx context.Context) ([]core.PriceRecord, error) {
	return s.store.ListPrices(ctx)
}

// RecordTankReading validates and commits a tank reading. The source
// stays what the operator typed (a depot or truck description) and may
// be empty.
func (s *RecordService) RecordTankReading(ctx context.Context, draft core.TankReadingDraft) (core.TankReading, error) {
	reading, err := draft.Validate()
	if err != nil {
		return core.TankReading{}, err
	}

	saved, err := s.store.AddTankReading(ctx, reading)
	if err != nil {
		return core.TankReading{}, fmt.Errorf("save tank reading: %w", err)
	}

	s.publishCommit(ctx, amqp.KindTank, saved.ID, saved.Date)
	return saved, nil
}

// ListTankReadings returns all tank readings newest-first.
func (s *RecordService) ListTankReadings(ctx context.Context) ([]core.TankReading, error) {
	return s.store.ListTankReadings(ctx)
}

// RecordExpense validates and commits an expense. The approver field is
// role-gated the same way as for price records.
func (s *RecordService) RecordExpense(ctx context.Context, draft core.ExpenseDraft, recordedBy string, role core.Role) (core.Expense, error) {
	expense, err := draft.Validate()
	if err != nil {
		return core.Expense{}, err
	}
	expense.ApprovedBy = approverStamp(expense.ApprovedBy, recordedBy, role)

	saved, err := s.store.AddExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishCommit(ctx, amqp.KindExpense, saved.ID, saved.Date)
	return saved, nil
}

// ListExpenses returns all expenses newest-first.
func (s *RecordService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx)
}

// Taxonomy returns the station reference data.
func (s *RecordService) Taxonomy(ctx context.Context) (ledger.Taxonomy, error) {
	return s.store.Taxonomy(ctx)
}

// AddTaxonomyEntry registers a pump, tank, product or expense category.
func (s *RecordService) AddTaxonomyEntry(ctx context.Context, kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name", core.ErrMissingField)
	}
	return s.store.AddTaxonomyEntry(ctx, kind, name)
}

// RemoveTaxonomyEntry retires a pump, tank, product or expense
// category. Existing records keep referring to the removed name.
func (s *RecordService) RemoveTaxonomyEntry(ctx context.Context, kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name", core.ErrMissingField)
	}
	return s.store.RemoveTaxonomyEntry(ctx, kind, name)
}

// approverStamp resolves the approver field on price and expense
// records: only approving roles may populate it, and an explicit value
// from the form wins over the recorder's name.
func approverStamp(requested, recordedBy string, role core.Role) string {
	if !role.CanApprove() {
		return ""
	}
	if requested != "" {
		return requested
	}
	return recordedBy
}

func (s *RecordService) publishCommit(ctx context.Context, kind, id string, date core.Date) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewRecordCommittedMessage(kind, id, date)
	if err := s.publisher.PublishRecordCommitted(ctx, msg); err != nil {
		// The record is committed either way; the worker catches up on
		// its next startup sweep.
		slog.ErrorContext(ctx, "Failed to publish commit event",
			"kind", kind, "id", id, "error", err)
	}
}
