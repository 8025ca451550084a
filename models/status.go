package models

// Status is the delivery/order lifecycle enumeration. The integer values are
// the backend wire contract. Value 4 was labeled both "Requested" and
// "Accepted" in older console builds; "Requested" is the canonical label.
type Status int

const (
	StatusPending   Status = 0
	StatusShipped   Status = 1
	StatusDelivered Status = 2
	StatusCancelled Status = 3
	StatusRequested Status = 4
)

var statusNames = map[Status]string{
	StatusPending:   "Pending",
	StatusShipped:   "Shipped",
	StatusDelivered: "Delivered",
	StatusCancelled: "Cancelled",
	StatusRequested: "Requested",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether the status is one of the defined wire values.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

var statusTransitions = map[Status][]Status{
	StatusPending: {StatusShipped, StatusCancelled, StatusRequested},
	StatusShipped: {StatusDelivered},
}

// CanTransition reports whether the parent record may move from one status to
// another in a single update.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Editable reports whether line items of a parent in this status may still be
// added, changed or removed. Only Pending parents are editable; everything
// else locks the line items regardless of the actor's role.
func (s Status) Editable() bool {
	return s == StatusPending
}

// ParseStatusLabel resolves a status label back to its wire value. "Accepted"
// is accepted as a legacy alias for Requested.
func ParseStatusLabel(label string) (Status, bool) {
	if label == "Accepted" {
		return StatusRequested, true
	}
	for s, name := range statusNames {
		if name == label {
			return s, true
		}
	}
	return 0, false
}
