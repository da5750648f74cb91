package order

// Clone operations build the revision chain: each produces a fresh, unsaved
// Order linked to its predecessor through PreviousOrderID. They are purely
// structural; the service layer is responsible for gating them (an order must
// be active to be discontinued or revised) and for persisting the results.

// CloneForDiscontinuing creates the discontinuation order for o. Only the
// subject, orderable, order type and care setting are carried over; the caller
// assigns the date fields and stops the target order when saving. The clone
// does not take effect until it is persisted.
func (o *Order) CloneForDiscontinuing() *Order {
	prev := o.ID
	return &Order{
		Action:          ActionDiscontinue,
		PreviousOrderID: &prev,
		PatientID:       o.PatientID,
		ConceptCode:     o.ConceptCode,
		ConceptDisplay:  o.ConceptDisplay,
		OrderType:       o.OrderType,
		CareSetting:     o.CareSetting,
	}
}

// CloneForRevision creates a revision of o. Revising a DISCONTINUE order
// re-edits the discontinuation before it is finalized: the clone stays a
// DISCONTINUE order, keeps pointing at the original target rather than at the
// discontinuation record itself, and keeps its activation date. Revising any
// other order produces a REVISE order linked to o that inherits o's
// auto-expire date.
func (o *Order) CloneForRevision() *Order {
	target := &Order{}
	if o.Action == ActionDiscontinue {
		target.Action = ActionDiscontinue
		target.PreviousOrderID = o.PreviousOrderID
		target.DateActivated = o.DateActivated
	} else {
		prev := o.ID
		target.Action = ActionRevise
		target.PreviousOrderID = &prev
		target.AutoExpireDate = o.AutoExpireDate
	}
	o.copyDescriptiveInto(target)
	return target
}

// CloneForRenewal creates a renewal of o: a RENEW order linked to o carrying
// the same descriptive fields but none of the stop or expire dates, so the
// renewed course starts a fresh interval.
func (o *Order) CloneForRenewal() *Order {
	prev := o.ID
	target := &Order{
		Action:          ActionRenew,
		PreviousOrderID: &prev,
	}
	o.copyDescriptiveInto(target)
	return target
}

// copyDescriptiveInto carries the fields shared by revision and renewal
// clones.
func (o *Order) copyDescriptiveInto(target *Order) {
	target.CareSetting = o.CareSetting
	target.ConceptCode = o.ConceptCode
	target.ConceptDisplay = o.ConceptDisplay
	target.PatientID = o.PatientID
	target.OrderType = o.OrderType
	target.ScheduledDate = o.ScheduledDate
	target.Instructions = o.Instructions
	target.Urgency = o.Urgency
	target.CommentToFulfiller = o.CommentToFulfiller
	target.OrderReasonCode = o.OrderReasonCode
	target.OrderReasonNonCoded = o.OrderReasonNonCoded
}

// Copy performs a shallow copy of o. The id is never copied: every copy must
// be independently assignable an identity when saved. Unlike the clone
// operations, Copy carries the action and previous-order link verbatim and
// does not alter lifecycle state.
func (o *Order) Copy() *Order {
	target := &Order{
		OrderNumber:         o.OrderNumber,
		PatientID:           o.PatientID,
		ConceptCode:         o.ConceptCode,
		ConceptDisplay:      o.ConceptDisplay,
		OrderType:           o.OrderType,
		CareSetting:         o.CareSetting,
		OrdererID:           o.OrdererID,
		EncounterID:         o.EncounterID,
		Instructions:        o.Instructions,
		DateActivated:       o.DateActivated,
		ScheduledDate:       o.ScheduledDate,
		DateStopped:         o.DateStopped,
		AutoExpireDate:      o.AutoExpireDate,
		Urgency:             o.Urgency,
		Action:              o.Action,
		PreviousOrderID:     o.PreviousOrderID,
		OrderReasonCode:     o.OrderReasonCode,
		OrderReasonNonCoded: o.OrderReasonNonCoded,
		CommentToFulfiller:  o.CommentToFulfiller,
		AccessionNumber:     o.AccessionNumber,
		Voided:              o.Voided,
		VoidReason:          o.VoidReason,
		CreatedAt:           o.CreatedAt,
	}
	return target
}
