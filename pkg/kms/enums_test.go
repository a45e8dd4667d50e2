package kms

import "testing"

func TestSessionStatus_String(t *testing.T) {
	tests := []struct {
		status SessionStatus
		want   string
	}{
		{StatusSecure, "Secure"},
		{StatusElevated, "Elevated"},
		{StatusCompromised, "Compromised"},
		{StatusUnknown, "Unknown"},
		{SessionStatus(99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("SessionStatus(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestSessionStatus_IsValid(t *testing.T) {
	valid := []SessionStatus{StatusSecure, StatusElevated, StatusCompromised}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("SessionStatus(%d).IsValid() = false, want true", s)
		}
	}

	invalid := []SessionStatus{StatusUnknown, SessionStatus(-1), SessionStatus(99)}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("SessionStatus(%d).IsValid() = true, want false", s)
		}
	}
}

func TestLinkStatus_String(t *testing.T) {
	tests := []struct {
		status LinkStatus
		want   string
	}{
		{LinkGreen, "GREEN"},
		{LinkYellow, "YELLOW"},
		{LinkRed, "RED"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("LinkStatus(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestLinkStatus_IsValid(t *testing.T) {
	for _, l := range []LinkStatus{LinkGreen, LinkYellow, LinkRed} {
		if !l.IsValid() {
			t.Errorf("LinkStatus(%d).IsValid() = false, want true", l)
		}
	}
	if LinkStatus(42).IsValid() {
		t.Error("LinkStatus(42).IsValid() = true, want false")
	}
}
