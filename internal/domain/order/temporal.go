package order

import (
	"fmt"
	"time"
)

// The temporal predicates below are pure: they never touch the clock. Callers
// sample the current time once per evaluation and pass the same instant to
// every predicate so one status query cannot contradict itself.
//
// Boundary rules: IsStarted is inclusive of the effective start instant, all
// other comparisons are strict. An order is started and active exactly at its
// start date, and still active exactly at its stop or expire date.

// EffectiveStartDate returns the date the order legally begins: the scheduled
// date for ON_SCHEDULED_DATE orders, the activation date otherwise.
func (o *Order) EffectiveStartDate() *time.Time {
	switch o.Urgency {
	case UrgencyOnScheduledDate:
		return o.ScheduledDate
	case UrgencyRoutine, UrgencySTAT:
		return o.DateActivated
	default:
		panic(fmt.Sprintf("order: unknown urgency %q", o.Urgency))
	}
}

// EffectiveStopDate returns the date the order ends, preferring the explicit
// stop over the computed auto-expiry.
func (o *Order) EffectiveStopDate() *time.Time {
	if o.DateStopped != nil {
		return o.DateStopped
	}
	return o.AutoExpireDate
}

// checkStopDates enforces the dateStopped <= autoExpireDate invariant on every
// predicate that reads both fields.
func (o *Order) checkStopDates() error {
	if o.DateStopped != nil && o.AutoExpireDate != nil && o.DateStopped.After(*o.AutoExpireDate) {
		return &IntegrityError{
			OrderID:        o.ID,
			DateStopped:    *o.DateStopped,
			AutoExpireDate: *o.AutoExpireDate,
		}
	}
	return nil
}

// IsFuture reports whether the activation event itself has not yet happened
// as of at. It inspects DateActivated rather than the effective start date: a
// scheduled order whose activation has passed is not future, even if its
// scheduled start is still ahead.
func (o *Order) IsFuture(at time.Time) bool {
	if o.Voided {
		return false
	}
	return o.DateActivated != nil && at.Before(*o.DateActivated)
}

// IsStarted reports whether the order has begun as of at. Inclusive: an order
// is started exactly at its effective start date.
func (o *Order) IsStarted(at time.Time) bool {
	if o.Voided {
		return false
	}
	start := o.EffectiveStartDate()
	if start == nil {
		return false
	}
	return !at.Before(*start)
}

// IsDiscontinued reports whether the order was explicitly stopped before at.
// Strict: an order is not yet discontinued exactly at its stop date.
func (o *Order) IsDiscontinued(at time.Time) (bool, error) {
	if err := o.checkStopDates(); err != nil {
		return false, err
	}
	if o.Voided {
		return false, nil
	}
	if o.DateActivated == nil || o.IsFuture(at) || o.DateStopped == nil {
		return false, nil
	}
	return at.After(*o.DateStopped), nil
}

// IsExpired reports whether the order lapsed via its auto-expire date before
// at. An order that is discontinued as of at is never also expired:
// discontinuation takes precedence when both boundaries have passed.
func (o *Order) IsExpired(at time.Time) (bool, error) {
	if err := o.checkStopDates(); err != nil {
		return false, err
	}
	if o.Voided {
		return false, nil
	}
	if o.DateActivated == nil || o.IsFuture(at) {
		return false, nil
	}
	discontinued, err := o.IsDiscontinued(at)
	if err != nil {
		return false, err
	}
	if discontinued || o.AutoExpireDate == nil {
		return false, nil
	}
	return at.After(*o.AutoExpireDate), nil
}

// IsActive reports whether the order is in force as of at: not future, not
// discontinued, not expired. Voided orders are never active. A DISCONTINUE
// order is never active either; it only causes its target to stop.
func (o *Order) IsActive(at time.Time) (bool, error) {
	if o.Voided || o.Action == ActionDiscontinue {
		return false, nil
	}
	discontinued, err := o.IsDiscontinued(at)
	if err != nil {
		return false, err
	}
	if o.IsFuture(at) || discontinued {
		return false, nil
	}
	expired, err := o.IsExpired(at)
	if err != nil {
		return false, err
	}
	return !expired, nil
}
