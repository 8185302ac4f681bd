package services

import (
	"context"
	"errors"
	"testing"

	"stationops/internal/amqp"
	"stationops/internal/core"
	"stationops/internal/ledger"
	"stationops/internal/ledger/memory"
)

type stubPublisher struct {
	published []*amqp.RecordCommittedMessage
	err       error
}

func (p *stubPublisher) PublishRecordCommitted(_ context.Context, msg *amqp.RecordCommittedMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func newService(pub Publisher) *RecordService {
	return NewRecordService(memory.New(ledger.Taxonomy{}), pub)
}

func submittedDraft() core.PumpReadingDraft {
	return core.PumpReadingDraft{
		Date: "2025-10-20", PumpID: "Pump 1",
		OpeningMeter: "10000", ClosingMeter: "10500", UnitPrice: "15.50",
		OperatorName: "John Doe", Status: core.StatusSubmitted,
	}
}

func TestSubmitReadingPublishesCommit(t *testing.T) {
	pub := &stubPublisher{}
	svc := newService(pub)

	saved, err := svc.SubmitReading(context.Background(), submittedDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if saved.ID == "" || !almostEqual(saved.LitresSold, 500) {
		t.Fatalf("saved reading %+v", saved)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 commit event, got %d", len(pub.published))
	}
	msg := pub.published[0]
	if msg.Kind != amqp.KindReading || msg.ID != saved.ID || msg.Date != saved.Date {
		t.Fatalf("commit event %+v", msg)
	}
}

func TestSubmitReadingRejectsInvalidDraft(t *testing.T) {
	pub := &stubPublisher{}
	svc := newService(pub)

	draft := submittedDraft()
	draft.ClosingMeter = "9000"
	if _, err := svc.SubmitReading(context.Background(), draft); !errors.Is(err, core.ErrOrderingViolation) {
		t.Fatalf("expected ordering violation, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Fatalf("rejected draft must not publish, got %d events", len(pub.published))
	}
}

func TestSubmitReadingSurvivesPublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := newService(pub)

	saved, err := svc.SubmitReading(context.Background(), submittedDraft())
	if err != nil {
		t.Fatalf("commit must not fail on publish error, got %v", err)
	}

	got, err := svc.GetReading(context.Background(), saved.ID)
	if err != nil || got.ID != saved.ID {
		t.Fatalf("reading should be committed: %v %+v", err, got)
	}
}

func TestApproveReading(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	saved, _ := svc.SubmitReading(ctx, submittedDraft())

	got, err := svc.ApproveReading(ctx, saved.ID, "Jane Admin", core.RoleManager)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != core.StatusApproved || got.ApprovedBy != "Jane Admin" {
		t.Fatalf("approved reading %+v", got)
	}
}

func TestApproveReadingForbiddenForAttendant(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	saved, _ := svc.SubmitReading(ctx, submittedDraft())

	if _, err := svc.ApproveReading(ctx, saved.ID, "Joe", core.RoleAttendant); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got, _ := svc.GetReading(ctx, saved.ID)
	if got.Status != core.StatusSubmitted {
		t.Fatalf("reading must stay submitted, got %s", got.Status)
	}
}

func TestRejectThenApproveIsInvalid(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	saved, _ := svc.SubmitReading(ctx, submittedDraft())

	if _, err := svc.RejectReading(ctx, saved.ID, "Jane Admin", core.RoleAdmin); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.ApproveReading(ctx, saved.ID, "Jane Admin", core.RoleAdmin); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	got, _ := svc.GetReading(ctx, saved.ID)
	if got.Status != core.StatusRejected {
		t.Fatalf("reading must stay rejected, got %s", got.Status)
	}
}

func TestUpdateReadingTerminalIsImmutable(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	saved, _ := svc.SubmitReading(ctx, submittedDraft())
	svc.ApproveReading(ctx, saved.ID, "Jane Admin", core.RoleAdmin)

	notes := "late correction"
	if _, err := svc.UpdateReading(ctx, saved.ID, ledger.ReadingUpdate{Notes: &notes}); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("terminal reading must be immutable, got %v", err)
	}
}

func TestUpdateReadingDraftToSubmitted(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	draft := submittedDraft()
	draft.Status = core.StatusDraft
	saved, _ := svc.SubmitReading(ctx, draft)

	submitted := core.StatusSubmitted
	got, err := svc.UpdateReading(ctx, saved.ID, ledger.ReadingUpdate{Status: &submitted})
	if err != nil {
		t.Fatalf("draft -> submitted: %v", err)
	}
	if got.Status != core.StatusSubmitted {
		t.Fatalf("status = %s, want submitted", got.Status)
	}

	approved := core.StatusApproved
	if _, err := svc.UpdateReading(ctx, saved.ID, ledger.ReadingUpdate{Status: &approved}); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("submitted -> approved via patch must be rejected, got %v", err)
	}
}

func TestUpdateReadingNotFound(t *testing.T) {
	svc := newService(nil)
	if _, err := svc.UpdateReading(context.Background(), "missing", ledger.ReadingUpdate{}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPriceApproverByRole(t *testing.T) {
	tests := []struct {
		name       string
		role       core.Role
		requested  string
		recordedBy string
		want       string
	}{
		{"manager stamps recorder", core.RoleManager, "", "Jane Admin", "Jane Admin"},
		{"admin keeps explicit approver", core.RoleAdmin, "Head Office", "Jane Admin", "Head Office"},
		{"attendant leaves approver empty", core.RoleAttendant, "", "Bob", ""},
		{"attendant cannot name an approver", core.RoleAttendant, "Bob", "Bob", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(nil)
			saved, err := svc.RecordPrice(context.Background(), core.PriceRecordDraft{
				Date: "2025-10-15", Product: "Petrol",
				OldPrice: "15.00", NewPrice: "15.50", Reason: "Market price increase",
				ApprovedBy: tt.requested,
			}, tt.recordedBy, tt.role)
			if err != nil {
				t.Fatalf("record price: %v", err)
			}
			if saved.ApprovedBy != tt.want {
				t.Fatalf("approvedBy = %q, want %q", saved.ApprovedBy, tt.want)
			}
		})
	}
}

func TestRecordPricePublishesCommit(t *testing.T) {
	pub := &stubPublisher{}
	svc := newService(pub)

	if _, err := svc.RecordPrice(context.Background(), core.PriceRecordDraft{
		Date: "2025-10-15", Product: "Petrol",
		OldPrice: "15.00", NewPrice: "15.50", Reason: "Market price increase",
	}, "Jane Admin", core.RoleManager); err != nil {
		t.Fatalf("record price: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].Kind != amqp.KindPrice {
		t.Fatalf("commit events %+v", pub.published)
	}
}

func TestRecordTankReadingKeepsSource(t *testing.T) {
	svc := newService(nil)

	tank, err := svc.RecordTankReading(context.Background(), core.TankReadingDraft{
		Date: "2025-10-19", TankID: "Tank A",
		OpeningReading: "3000", ClosingReading: "0", FuelReceived: "2000",
		Source: "Depot 7",
	})
	if err != nil {
		t.Fatalf("record tank reading: %v", err)
	}
	if tank.Source != "Depot 7" {
		t.Fatalf("source = %q, want the depot description", tank.Source)
	}

	// The source is optional; nothing is stamped in its place.
	tank, err = svc.RecordTankReading(context.Background(), core.TankReadingDraft{
		Date: "2025-10-19", TankID: "Tank B",
		OpeningReading: "1000", ClosingReading: "1200",
	})
	if err != nil {
		t.Fatalf("record tank reading: %v", err)
	}
	if tank.Source != "" {
		t.Fatalf("source = %q, want empty", tank.Source)
	}
}

func TestRecordTankReadingAndExpense(t *testing.T) {
	pub := &stubPublisher{}
	svc := newService(pub)
	ctx := context.Background()

	tank, err := svc.RecordTankReading(ctx, core.TankReadingDraft{
		Date: "2025-10-19", TankID: "Tank A",
		OpeningReading: "3000", ClosingReading: "0", FuelReceived: "2000",
	})
	if err != nil {
		t.Fatalf("record tank reading: %v", err)
	}
	if !almostEqual(tank.Balance, 5000) {
		t.Fatalf("tank reading %+v", tank)
	}

	expense, err := svc.RecordExpense(ctx, core.ExpenseDraft{
		Date: "2025-10-20", Description: "Generator fuel",
		Amount: "250", Category: "Operations",
	}, "Jane Admin", core.RoleManager)
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if expense.ApprovedBy != "Jane Admin" {
		t.Fatalf("expense %+v", expense)
	}

	if len(pub.published) != 2 {
		t.Fatalf("expected 2 commit events, got %d", len(pub.published))
	}
	if pub.published[0].Kind != amqp.KindTank || pub.published[1].Kind != amqp.KindExpense {
		t.Fatalf("commit events %+v", pub.published)
	}
}

func TestRecordExpenseAttendantLeavesApproverEmpty(t *testing.T) {
	svc := newService(nil)

	expense, err := svc.RecordExpense(context.Background(), core.ExpenseDraft{
		Date: "2025-10-20", Description: "Window cleaning",
		Amount: "40", Category: "Operations",
	}, "Bob", core.RoleAttendant)
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if expense.ApprovedBy != "" {
		t.Fatalf("approvedBy = %q, want empty for attendant", expense.ApprovedBy)
	}
}

func TestTaxonomyEntryLifecycle(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	if err := svc.AddTaxonomyEntry(ctx, ledger.KindPump, "Pump 9"); err != nil {
		t.Fatalf("add: %v", err)
	}
	tax, _ := svc.Taxonomy(ctx)
	if len(tax.Pumps) != 1 || tax.Pumps[0] != "Pump 9" {
		t.Fatalf("pumps = %v", tax.Pumps)
	}

	if err := svc.RemoveTaxonomyEntry(ctx, ledger.KindPump, "Pump 9"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	tax, _ = svc.Taxonomy(ctx)
	if len(tax.Pumps) != 0 {
		t.Fatalf("pumps = %v after remove", tax.Pumps)
	}

	if err := svc.AddTaxonomyEntry(ctx, ledger.KindPump, "  "); !errors.Is(err, core.ErrMissingField) {
		t.Fatalf("blank name: %v", err)
	}
	if err := svc.AddTaxonomyEntry(ctx, "fleet", "Truck 1"); !errors.Is(err, ledger.ErrUnknownKind) {
		t.Fatalf("unknown kind: %v", err)
	}
	if err := svc.RemoveTaxonomyEntry(ctx, ledger.KindTank, "Tank Z"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("absent entry: %v", err)
	}
}

const tol = 1e-9

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
