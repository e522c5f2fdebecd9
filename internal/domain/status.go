package domain

const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

var bookingTransitions = map[string][]string{
	BookingConfirmed:  {BookingPending},
	BookingInProgress: {BookingConfirmed},
	BookingCompleted:  {BookingInProgress},
	BookingCancelled:  {BookingPending, BookingConfirmed, BookingInProgress},
}

func ValidBookingStatus(s string) bool {
	if s == BookingPending {
		return true
	}
	_, ok := bookingTransitions[s]
	return ok
}

func BookingTerminal(s string) bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionBooking reports whether a booking in from may move to to.
func CanTransitionBooking(from, to string) bool {
	return allowed(bookingTransitions, from, to)
}

const (
	JobAssigned   = "assigned"
	JobInProgress = "in_progress"
	JobQCCheck    = "qc_check"
	JobCompleted  = "completed"
	JobDelivered  = "delivered"
)

var jobCardTransitions = map[string][]string{
	JobInProgress: {JobAssigned},
	JobQCCheck:    {JobInProgress},
	JobCompleted:  {JobQCCheck},
	JobDelivered:  {JobCompleted},
}

func ValidJobCardStatus(s string) bool {
	if s == JobAssigned {
		return true
	}
	_, ok := jobCardTransitions[s]
	return ok
}

func CanTransitionJobCard(from, to string) bool {
	return allowed(jobCardTransitions, from, to)
}

func allowed(m map[string][]string, from, to string) bool {
	for _, s := range m[to] {
		if s == from {
			return true
		}
	}
	return false
}
