package order

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func tp(t *testing.T, s string) *time.Time {
	t.Helper()
	ts := mustTime(t, s)
	return &ts
}

func newTestOrder() *Order {
	return &Order{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		ConceptCode: "5089",
		OrderType:   "Test Order",
		Urgency:     UrgencyRoutine,
		Action:      ActionNew,
	}
}

func TestEffectiveStartDate(t *testing.T) {
	activated := tp(t, "2024-01-01T00:00:00Z")
	scheduled := tp(t, "2024-01-10T00:00:00Z")

	o := newTestOrder()
	o.DateActivated = activated
	o.ScheduledDate = scheduled

	if got := o.EffectiveStartDate(); !got.Equal(*activated) {
		t.Errorf("ROUTINE order: expected dateActivated %v, got %v", activated, got)
	}

	o.Urgency = UrgencySTAT
	if got := o.EffectiveStartDate(); !got.Equal(*activated) {
		t.Errorf("STAT order: expected dateActivated %v, got %v", activated, got)
	}

	o.Urgency = UrgencyOnScheduledDate
	if got := o.EffectiveStartDate(); !got.Equal(*scheduled) {
		t.Errorf("scheduled order: expected scheduledDate %v, got %v", scheduled, got)
	}
}

func TestEffectiveStartDate_UnknownUrgencyPanics(t *testing.T) {
	o := newTestOrder()
	o.Urgency = "WHENEVER"
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown urgency")
		}
	}()
	o.EffectiveStartDate()
}

func TestEffectiveStopDate(t *testing.T) {
	stopped := tp(t, "2024-01-15T00:00:00Z")
	expire := tp(t, "2024-02-01T00:00:00Z")

	o := newTestOrder()
	if got := o.EffectiveStopDate(); got != nil {
		t.Errorf("no dates: expected nil, got %v", got)
	}

	o.AutoExpireDate = expire
	if got := o.EffectiveStopDate(); !got.Equal(*expire) {
		t.Errorf("expected autoExpireDate %v, got %v", expire, got)
	}

	o.DateStopped = stopped
	if got := o.EffectiveStopDate(); !got.Equal(*stopped) {
		t.Errorf("expected dateStopped to win, got %v", got)
	}
}

func TestIsFuture(t *testing.T) {
	activated := mustTime(t, "2024-01-01T00:00:00Z")

	o := newTestOrder()
	o.DateActivated = &activated

	if !o.IsFuture(activated.Add(-time.Hour)) {
		t.Error("expected future before activation")
	}
	// Inclusive start boundary: not future at the activation instant.
	if o.IsFuture(activated) {
		t.Error("expected not future at the activation instant")
	}
	if o.IsFuture(activated.Add(time.Hour)) {
		t.Error("expected not future after activation")
	}
}

func TestIsFuture_NoActivationDate(t *testing.T) {
	o := newTestOrder()
	if o.IsFuture(mustTime(t, "2024-01-01T00:00:00Z")) {
		t.Error("order with no dateActivated is never future")
	}
}

func TestIsFuture_IgnoresScheduledDate(t *testing.T) {
	// isFuture answers "has the activation event happened", not "has the
	// effective start passed": a scheduled order already activated is not
	// future even before its scheduled start.
	o := newTestOrder()
	o.Urgency = UrgencyOnScheduledDate
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.ScheduledDate = tp(t, "2024-03-01T00:00:00Z")

	if o.IsFuture(mustTime(t, "2024-02-01T00:00:00Z")) {
		t.Error("activated scheduled order should not be future")
	}
}

func TestIsStarted(t *testing.T) {
	activated := mustTime(t, "2024-01-01T00:00:00Z")

	o := newTestOrder()
	o.DateActivated = &activated

	if o.IsStarted(activated.Add(-time.Millisecond)) {
		t.Error("expected not started before the start date")
	}
	// Boundary inclusivity: started exactly at the effective start date.
	if !o.IsStarted(activated) {
		t.Error("expected started at the start instant")
	}
	if !o.IsStarted(activated.Add(time.Hour)) {
		t.Error("expected started after the start date")
	}
}

func TestIsStarted_ScheduledOrder(t *testing.T) {
	o := newTestOrder()
	o.Urgency = UrgencyOnScheduledDate
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.ScheduledDate = tp(t, "2024-03-01T00:00:00Z")

	if o.IsStarted(mustTime(t, "2024-02-01T00:00:00Z")) {
		t.Error("scheduled order should not be started before its scheduled date")
	}
	if !o.IsStarted(mustTime(t, "2024-03-01T00:00:00Z")) {
		t.Error("scheduled order should be started on its scheduled date")
	}
}

func TestIsStarted_NoEffectiveStart(t *testing.T) {
	o := newTestOrder()
	o.Urgency = UrgencyOnScheduledDate
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	// No scheduled date: effective start absent.
	if o.IsStarted(mustTime(t, "2024-06-01T00:00:00Z")) {
		t.Error("order without an effective start date is never started")
	}
}

func TestIsDiscontinued_Boundary(t *testing.T) {
	stopped := mustTime(t, "2024-01-15T00:00:00Z")

	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.DateStopped = &stopped

	// Strict boundary: not discontinued exactly at the stop instant.
	got, err := o.IsDiscontinued(stopped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected not discontinued at the stop instant")
	}

	got, err = o.IsDiscontinued(stopped.Add(time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected discontinued one millisecond after the stop instant")
	}
}

func TestIsDiscontinued_MissingDates(t *testing.T) {
	at := mustTime(t, "2024-06-01T00:00:00Z")

	o := newTestOrder()
	o.DateStopped = tp(t, "2024-01-15T00:00:00Z")
	// No dateActivated.
	if got, _ := o.IsDiscontinued(at); got {
		t.Error("order with no dateActivated is never discontinued")
	}

	o = newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	// No dateStopped.
	if got, _ := o.IsDiscontinued(at); got {
		t.Error("order with no dateStopped is never discontinued")
	}
}

func TestIsDiscontinued_FutureOrder(t *testing.T) {
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-06-01T00:00:00Z")
	o.DateStopped = tp(t, "2024-06-15T00:00:00Z")

	if got, _ := o.IsDiscontinued(mustTime(t, "2024-01-01T00:00:00Z")); got {
		t.Error("future order is never discontinued")
	}
}

func TestIntegrityError_StopAfterExpire(t *testing.T) {
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.DateStopped = tp(t, "2024-03-01T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	at := mustTime(t, "2024-06-01T00:00:00Z")
	var ie *IntegrityError

	if _, err := o.IsDiscontinued(at); !errors.As(err, &ie) {
		t.Errorf("IsDiscontinued: expected IntegrityError, got %v", err)
	}
	if _, err := o.IsExpired(at); !errors.As(err, &ie) {
		t.Errorf("IsExpired: expected IntegrityError, got %v", err)
	}
	if _, err := o.IsActive(at); !errors.As(err, &ie) {
		t.Errorf("IsActive: expected IntegrityError, got %v", err)
	}
}

func TestIsExpired(t *testing.T) {
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	got, err := o.IsExpired(mustTime(t, "2024-03-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected expired after the auto-expire date")
	}

	// Strict boundary: still unexpired exactly at the expire instant.
	got, _ = o.IsExpired(mustTime(t, "2024-02-01T00:00:00Z"))
	if got {
		t.Error("expected not expired at the expire instant")
	}

	got, _ = o.IsExpired(mustTime(t, "2024-01-15T00:00:00Z"))
	if got {
		t.Error("expected not expired before the expire date")
	}
}

func TestIsExpired_DiscontinuationPrecedence(t *testing.T) {
	// Both boundaries passed: discontinuation wins, the order is not expired.
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.DateStopped = tp(t, "2024-01-15T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	at := mustTime(t, "2024-03-01T00:00:00Z")

	discontinued, err := o.IsDiscontinued(at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !discontinued {
		t.Error("expected discontinued")
	}

	expired, err := o.IsExpired(at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired {
		t.Error("discontinued order must not also be expired")
	}
}

func TestIsActive_OpenEndedOrder(t *testing.T) {
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")

	active, err := o.IsActive(mustTime(t, "2024-06-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !active {
		t.Error("expected open-ended order to be active")
	}
}

func TestIsActive_ExpiredOrder(t *testing.T) {
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	active, err := o.IsActive(mustTime(t, "2024-03-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Error("expected expired order to be inactive")
	}
}

func TestIsActive_DiscontinuedOrder(t *testing.T) {
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.DateStopped = tp(t, "2024-01-15T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	active, err := o.IsActive(mustTime(t, "2024-01-20T00:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Error("expected discontinued order to be inactive")
	}
}

func TestIsActive_AtBoundaries(t *testing.T) {
	start := mustTime(t, "2024-01-01T00:00:00Z")
	stop := mustTime(t, "2024-01-15T00:00:00Z")

	o := newTestOrder()
	o.DateActivated = &start
	o.DateStopped = &stop

	// Active exactly at the start instant and exactly at the stop instant.
	for _, at := range []time.Time{start, stop} {
		active, err := o.IsActive(at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !active {
			t.Errorf("expected active at boundary %v", at)
		}
	}
	if active, _ := o.IsActive(start.Add(-time.Millisecond)); active {
		t.Error("expected inactive before the start instant")
	}
	if active, _ := o.IsActive(stop.Add(time.Millisecond)); active {
		t.Error("expected inactive after the stop instant")
	}
}

func TestIsActive_DiscontinueOrderNeverActive(t *testing.T) {
	o := newTestOrder()
	o.Action = ActionDiscontinue
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")

	active, err := o.IsActive(mustTime(t, "2024-06-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Error("a DISCONTINUE order is never active")
	}
}

func TestVoidedOrder_AllPredicatesFalse(t *testing.T) {
	o := newTestOrder()
	o.Voided = true
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.DateStopped = tp(t, "2024-01-15T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	at := mustTime(t, "2024-03-01T00:00:00Z")

	if o.IsFuture(mustTime(t, "2023-01-01T00:00:00Z")) {
		t.Error("voided order must not be future")
	}
	if o.IsStarted(at) {
		t.Error("voided order must not be started")
	}
	if got, err := o.IsDiscontinued(at); err != nil || got {
		t.Errorf("voided order must not be discontinued, got (%v, %v)", got, err)
	}
	if got, err := o.IsExpired(at); err != nil || got {
		t.Errorf("voided order must not be expired, got (%v, %v)", got, err)
	}
	if got, err := o.IsActive(at); err != nil || got {
		t.Errorf("voided order must not be active, got (%v, %v)", got, err)
	}
}

func TestStatusPredicatesAgreeOnOneInstant(t *testing.T) {
	// The same instant passed to every predicate yields a coherent snapshot:
	// exactly one of future/active/discontinued/expired for a well-formed
	// order with a full set of dates.
	o := newTestOrder()
	o.DateActivated = tp(t, "2024-01-01T00:00:00Z")
	o.DateStopped = tp(t, "2024-01-15T00:00:00Z")
	o.AutoExpireDate = tp(t, "2024-02-01T00:00:00Z")

	checks := []struct {
		at     string
		future bool
		active bool
		disc   bool
	}{
		{"2023-12-01T00:00:00Z", true, false, false},
		{"2024-01-10T00:00:00Z", false, true, false},
		{"2024-01-20T00:00:00Z", false, false, true},
	}
	for _, tc := range checks {
		at := mustTime(t, tc.at)
		if got := o.IsFuture(at); got != tc.future {
			t.Errorf("at %s: IsFuture = %v, want %v", tc.at, got, tc.future)
		}
		if got, _ := o.IsActive(at); got != tc.active {
			t.Errorf("at %s: IsActive = %v, want %v", tc.at, got, tc.active)
		}
		if got, _ := o.IsDiscontinued(at); got != tc.disc {
			t.Errorf("at %s: IsDiscontinued = %v, want %v", tc.at, got, tc.disc)
		}
	}
}
