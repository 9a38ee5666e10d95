package models

import "fmt"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentExpired   PaymentStatus = "expired"
)

// AllPaymentStatuses is the display order used by the admin review lists.
var AllPaymentStatuses = []PaymentStatus{PaymentPending, PaymentConfirmed, PaymentRejected, PaymentExpired}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentConfirmed, PaymentRejected, PaymentExpired},
	PaymentConfirmed: nil,
	PaymentRejected:  nil,
	PaymentExpired:   nil,
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := paymentTransitions[status]; !ok {
		return "", fmt.Errorf("unknown payment status %q", s)
	}
	return status, nil
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) Terminal() bool {
	return s.Valid() && len(paymentTransitions[s]) == 0
}

// CanTransitionTo reports whether s may move to next. Staying in the same
// status is not a transition and is handled by callers.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
