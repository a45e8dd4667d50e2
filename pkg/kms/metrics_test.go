package kms

import (
	"testing"

	"github.com/qstcs/qkd/pkg/bb84"
)

func TestClassifyQBER(t *testing.T) {
	tests := []struct {
		name      string
		qber      float64
		threshold float64
		want      LinkStatus
	}{
		{"perfect link", 0.0, bb84.SecurityThreshold, LinkGreen},
		{"just under elevated", 0.049, bb84.SecurityThreshold, LinkGreen},
		{"elevated boundary", 0.05, bb84.SecurityThreshold, LinkYellow},
		{"under threshold", 0.10, bb84.SecurityThreshold, LinkYellow},
		{"exactly at threshold", 0.11, bb84.SecurityThreshold, LinkYellow},
		{"just over threshold", 0.111, bb84.SecurityThreshold, LinkRed},
		{"full interception", 0.25, bb84.SecurityThreshold, LinkRed},
		{"custom strict threshold", 0.04, 0.03, LinkRed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyQBER(tc.qber, tc.threshold); got != tc.want {
				t.Errorf("ClassifyQBER(%v, %v) = %s, want %s",
					tc.qber, tc.threshold, got, tc.want)
			}
		})
	}
}

func TestLinkMetrics_Observe(t *testing.T) {
	m := NewLinkMetrics(0)

	m.Observe(0.02, false, LinkGreen)
	snap := m.Snapshot()
	if snap.LastQBER != 0.02 {
		t.Errorf("LastQBER = %v, want 0.02", snap.LastQBER)
	}
	if snap.Status != LinkGreen {
		t.Errorf("Status = %s, want GREEN", snap.Status)
	}
	if len(snap.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(snap.History))
	}
	if snap.History[0].QBER != 0.02 || snap.History[0].EvePresent {
		t.Errorf("History[0] = %+v, want QBER 0.02 without eavesdropper", snap.History[0])
	}

	m.Observe(0.25, true, LinkRed)
	snap = m.Snapshot()
	if snap.Status != LinkRed || snap.LastQBER != 0.25 {
		t.Errorf("after RED observation: status %s QBER %v", snap.Status, snap.LastQBER)
	}
}

func TestLinkMetrics_HistoryBounded(t *testing.T) {
	const size = 5
	m := NewLinkMetrics(size)

	for i := 0; i < size+3; i++ {
		m.Observe(float64(i)/100, false, LinkGreen)
	}

	snap := m.Snapshot()
	if len(snap.History) != size {
		t.Fatalf("len(History) = %d, want %d", len(snap.History), size)
	}
	// The oldest retained sample is the fourth observation (index 3).
	if snap.History[0].QBER != 0.03 {
		t.Errorf("History[0].QBER = %v, want 0.03 (oldest samples dropped)", snap.History[0].QBER)
	}
	if snap.History[size-1].QBER != 0.07 {
		t.Errorf("History[%d].QBER = %v, want 0.07 (newest last)", size-1, snap.History[size-1].QBER)
	}
}

func TestLinkMetrics_SnapshotIsolation(t *testing.T) {
	m := NewLinkMetrics(0)
	m.Observe(0.01, false, LinkGreen)

	snap := m.Snapshot()
	snap.History[0].QBER = 0.99

	if again := m.Snapshot(); again.History[0].QBER != 0.01 {
		t.Error("mutating a snapshot history changed the stored history")
	}
}

func TestLinkMetrics_Counters(t *testing.T) {
	m := NewLinkMetrics(0)

	m.RecordSessionCreated()
	m.RecordKeyIssued()
	m.RecordKeyIssued()
	m.RecordAttack()
	m.SetActiveSessions(1)
	m.SetEavesdropper(true)

	snap := m.Snapshot()
	if snap.SessionsCreated != 1 {
		t.Errorf("SessionsCreated = %d, want 1", snap.SessionsCreated)
	}
	if snap.KeysIssued != 2 {
		t.Errorf("KeysIssued = %d, want 2", snap.KeysIssued)
	}
	if snap.AttacksDetected != 1 {
		t.Errorf("AttacksDetected = %d, want 1", snap.AttacksDetected)
	}
	if snap.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", snap.ActiveSessions)
	}
	if !snap.EavesdropperActive {
		t.Error("EavesdropperActive = false, want true")
	}
}

func TestLinkMetrics_Reset(t *testing.T) {
	m := NewLinkMetrics(3)
	m.Observe(0.25, true, LinkRed)
	m.RecordAttack()
	m.RecordSessionCreated()
	m.SetEavesdropper(true)

	m.Reset()

	snap := m.Snapshot()
	if snap.Status != LinkGreen {
		t.Errorf("Status = %s after Reset(), want GREEN", snap.Status)
	}
	if snap.LastQBER != 0 || snap.AttacksDetected != 0 || snap.SessionsCreated != 0 {
		t.Errorf("counters not zeroed: %+v", snap)
	}
	if snap.EavesdropperActive {
		t.Error("eavesdropper still active after Reset()")
	}
	if len(snap.History) != 0 {
		t.Errorf("len(History) = %d after Reset(), want 0", len(snap.History))
	}

	// The history bound survives the reset.
	for i := 0; i < 6; i++ {
		m.Observe(0.01, false, LinkGreen)
	}
	if got := len(m.Snapshot().History); got != 3 {
		t.Errorf("len(History) = %d after reset and refill, want 3", got)
	}
}
