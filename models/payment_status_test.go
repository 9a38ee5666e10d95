package models

import "testing"

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentConfirmed, true},
		{PaymentPending, PaymentRejected, true},
		{PaymentPending, PaymentExpired, true},
		{PaymentPending, PaymentPending, false},
		{PaymentConfirmed, PaymentRejected, false},
		{PaymentConfirmed, PaymentPending, false},
		{PaymentRejected, PaymentConfirmed, false},
		{PaymentExpired, PaymentConfirmed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	for _, s := range AllPaymentStatuses {
		got, err := ParsePaymentStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParsePaymentStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParsePaymentStatus("refunded"); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := ParsePaymentStatus("Confirmed"); err == nil {
		t.Error("status parsing should be case sensitive")
	}
}

func TestTerminalStatuses(t *testing.T) {
	if PaymentPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []PaymentStatus{PaymentConfirmed, PaymentRejected, PaymentExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestPendingKey(t *testing.T) {
	a := Payment{UserID: "U1", ProductID: "P1", ProductCategory: CategoryCourse}
	b := a
	b.ProductCategory = CategoryMaterial
	if a.PendingKey() == b.PendingKey() {
		t.Error("category must be part of the pending key")
	}
	if !CategoryCourse.Valid() || ProductCategory("bundle").Valid() {
		t.Error("unexpected category validity")
	}
}
