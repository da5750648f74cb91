package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxChainDepth bounds revision-chain walks. Chains longer than this indicate
// corrupted previous_order_id links.
const maxChainDepth = 1000

// ErrNotActive is returned when a discontinue or revise is attempted on an
// order that is not active at the time of the request.
var ErrNotActive = errors.New("order is not active")

type Service struct {
	orders Repository
	// now is the clock; swapped for a fixed instant in tests.
	now func() time.Time
}

func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// Status is a snapshot of every temporal predicate evaluated against a single
// instant, so the booleans can never disagree about what time it is.
type Status struct {
	OrderID            uuid.UUID  `json:"order_id"`
	CheckedAt          time.Time  `json:"checked_at"`
	Future             bool       `json:"future"`
	Started            bool       `json:"started"`
	Discontinued       bool       `json:"discontinued"`
	Expired            bool       `json:"expired"`
	Active             bool       `json:"active"`
	EffectiveStartDate *time.Time `json:"effective_start_date,omitempty"`
	EffectiveStopDate  *time.Time `json:"effective_stop_date,omitempty"`
}

// Create persists a freshly authored order. Only NEW orders come in this way;
// revision, discontinuation and renewal records are produced by their
// dedicated operations.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if o.ConceptCode == "" {
		return fmt.Errorf("concept_code is required")
	}
	if o.OrderType == "" {
		return fmt.Errorf("order_type is required")
	}
	if o.Action == "" {
		o.Action = ActionNew
	}
	if o.Action != ActionNew {
		return fmt.Errorf("new orders must have action NEW, got %s", o.Action)
	}
	if o.Urgency == "" {
		o.Urgency = UrgencyRoutine
	}
	if !o.Urgency.Valid() {
		return fmt.Errorf("invalid urgency: %s", o.Urgency)
	}
	if o.Urgency == UrgencyOnScheduledDate && o.ScheduledDate == nil {
		return fmt.Errorf("scheduled_date is required when urgency is %s", UrgencyOnScheduledDate)
	}
	if o.DateActivated == nil {
		now := s.now()
		o.DateActivated = &now
	}
	if err := o.checkStopDates(); err != nil {
		return err
	}
	return s.orders.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.orders.GetByOrderNumber(ctx, orderNumber)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.orders.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Order, int, error) {
	return s.orders.Search(ctx, params, limit, offset)
}

// Status evaluates every temporal predicate for the order at the given
// instant. When at is nil the clock is sampled once and that single instant
// feeds all predicates.
func (s *Service) Status(ctx context.Context, id uuid.UUID, at *time.Time) (*Status, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	checkAt := s.now()
	if at != nil {
		checkAt = *at
	}

	discontinued, err := o.IsDiscontinued(checkAt)
	if err != nil {
		return nil, err
	}
	expired, err := o.IsExpired(checkAt)
	if err != nil {
		return nil, err
	}
	active, err := o.IsActive(checkAt)
	if err != nil {
		return nil, err
	}

	return &Status{
		OrderID:            o.ID,
		CheckedAt:          checkAt,
		Future:             o.IsFuture(checkAt),
		Started:            o.IsStarted(checkAt),
		Discontinued:       discontinued,
		Expired:            expired,
		Active:             active,
		EffectiveStartDate: o.EffectiveStartDate(),
		EffectiveStopDate:  o.EffectiveStopDate(),
	}, nil
}

// Discontinue stops an active order: it creates the DISCONTINUE record,
// activates it now, and sets date_stopped on the target, all in one
// transaction. stopAt defaults to now and may not be in the future.
func (s *Service) Discontinue(ctx context.Context, id uuid.UUID, reasonCode, reasonNonCoded *string, stopAt *time.Time) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Voided {
		return nil, fmt.Errorf("cannot discontinue a voided order")
	}
	if o.Action == ActionDiscontinue {
		return nil, fmt.Errorf("a discontinuation order cannot be discontinued")
	}

	now := s.now()
	active, err := o.IsActive(now)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrNotActive
	}

	stop := now
	if stopAt != nil {
		if stopAt.After(now) {
			return nil, fmt.Errorf("stop date cannot be in the future")
		}
		stop = *stopAt
	}

	dc := o.CloneForDiscontinuing()
	dc.DateActivated = &now
	dc.OrderReasonCode = reasonCode
	dc.OrderReasonNonCoded = reasonNonCoded

	if err := s.orders.Supersede(ctx, dc, o.ID, stop); err != nil {
		return nil, err
	}
	return dc, nil
}

// Revise supersedes an active order with an edited version. The revision is
// activated now and the superseded order is stopped at the same instant.
// Revising a DISCONTINUE order re-edits the discontinuation instead; it stays
// pointed at the original target.
func (s *Service) Revise(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Voided {
		return nil, fmt.Errorf("cannot revise a voided order")
	}

	now := s.now()
	if o.Action != ActionDiscontinue {
		active, err := o.IsActive(now)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrNotActive
		}
	}

	rev := o.CloneForRevision()
	if rev.DateActivated == nil {
		rev.DateActivated = &now
	}

	if err := s.orders.Supersede(ctx, rev, o.ID, now); err != nil {
		return nil, err
	}
	return rev, nil
}

// Renew restarts a stopped or expired order as a fresh RENEW record linked to
// its predecessor. Active orders cannot be renewed; revise them instead.
func (s *Service) Renew(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Voided {
		return nil, fmt.Errorf("cannot renew a voided order")
	}
	if o.Action == ActionDiscontinue {
		return nil, fmt.Errorf("a discontinuation order cannot be renewed")
	}

	now := s.now()
	active, err := o.IsActive(now)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("cannot renew an active order; revise it instead")
	}

	renewal := o.CloneForRenewal()
	renewal.DateActivated = &now

	if err := s.orders.Create(ctx, renewal); err != nil {
		return nil, err
	}
	return renewal, nil
}

// Chain returns the revision chain starting at id, newest first, following
// previous_order_id links. Voided predecessors are included: voiding makes an
// order inert, it does not break the chain.
func (s *Service) Chain(ctx context.Context, id uuid.UUID) ([]*Order, error) {
	seen := map[uuid.UUID]bool{}
	var chain []*Order

	next := &id
	for next != nil {
		if seen[*next] {
			return nil, fmt.Errorf("revision chain contains a cycle at order %s", *next)
		}
		if len(chain) >= maxChainDepth {
			return nil, fmt.Errorf("revision chain exceeds %d orders", maxChainDepth)
		}
		seen[*next] = true

		o, err := s.orders.GetByID(ctx, *next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, o)
		next = o.PreviousOrderID
	}
	return chain, nil
}

// Void soft-deletes an order. The record stays addressable so chain links
// through it remain valid.
func (s *Service) Void(ctx context.Context, id uuid.UUID, reason string) error {
	if reason == "" {
		return fmt.Errorf("void reason is required")
	}
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return err
	}
	return s.orders.Void(ctx, id, reason)
}
