package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Urgency determines which date field is the effective start of an order.
type Urgency string

const (
	UrgencyRoutine         Urgency = "ROUTINE"
	UrgencySTAT            Urgency = "STAT"
	UrgencyOnScheduledDate Urgency = "ON_SCHEDULED_DATE"
)

// Valid reports whether u is one of the known urgency values.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencySTAT, UrgencyOnScheduledDate:
		return true
	}
	return false
}

// Action is the lifecycle action an order record represents. NEW is the only
// action for freshly authored orders; REVISE, DISCONTINUE and RENEW records
// are produced by the clone operations and always carry a previous-order link.
type Action string

const (
	ActionNew         Action = "NEW"
	ActionRevise      Action = "REVISE"
	ActionDiscontinue Action = "DISCONTINUE"
	ActionRenew       Action = "RENEW"
)

// Valid reports whether a is one of the known action values.
func (a Action) Valid() bool {
	switch a {
	case ActionNew, ActionRevise, ActionDiscontinue, ActionRenew:
		return true
	}
	return false
}

// Order maps to the orders table. One row per lifecycle event: revising,
// discontinuing or renewing an order appends a new row linked to its
// predecessor via PreviousOrderID. Rows are never deleted, only voided.
type Order struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	OrderNumber         string     `db:"order_number" json:"order_number"`
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	ConceptCode         string     `db:"concept_code" json:"concept_code"`
	ConceptDisplay      *string    `db:"concept_display" json:"concept_display,omitempty"`
	OrderType           string     `db:"order_type" json:"order_type"`
	CareSetting         *string    `db:"care_setting" json:"care_setting,omitempty"`
	OrdererID           *uuid.UUID `db:"orderer_id" json:"orderer_id,omitempty"`
	EncounterID         *uuid.UUID `db:"encounter_id" json:"encounter_id,omitempty"`
	Instructions        *string    `db:"instructions" json:"instructions,omitempty"`
	DateActivated       *time.Time `db:"date_activated" json:"date_activated,omitempty"`
	ScheduledDate       *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	DateStopped         *time.Time `db:"date_stopped" json:"date_stopped,omitempty"`
	AutoExpireDate      *time.Time `db:"auto_expire_date" json:"auto_expire_date,omitempty"`
	Urgency             Urgency    `db:"urgency" json:"urgency"`
	Action              Action     `db:"action" json:"action"`
	PreviousOrderID     *uuid.UUID `db:"previous_order_id" json:"previous_order_id,omitempty"`
	OrderReasonCode     *string    `db:"order_reason_code" json:"order_reason_code,omitempty"`
	OrderReasonNonCoded *string    `db:"order_reason_non_coded" json:"order_reason_non_coded,omitempty"`
	CommentToFulfiller  *string    `db:"comment_to_fulfiller" json:"comment_to_fulfiller,omitempty"`
	AccessionNumber     *string    `db:"accession_number" json:"accession_number,omitempty"`
	Voided              bool       `db:"voided" json:"voided"`
	VoidReason          *string    `db:"void_reason" json:"void_reason,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// IntegrityError is returned by the temporal predicates when an order carries
// a dateStopped later than its autoExpireDate. That combination cannot be
// produced by this service and indicates corrupted upstream data; it is
// surfaced instead of being resolved to a plausible-looking boolean.
type IntegrityError struct {
	OrderID        uuid.UUID
	DateStopped    time.Time
	AutoExpireDate time.Time
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("order %s has dateStopped %s after autoExpireDate %s",
		e.OrderID, e.DateStopped.Format(time.RFC3339), e.AutoExpireDate.Format(time.RFC3339))
}
