package domain

import "testing"

func TestJobStatusTransitions(t *testing.T) {
	allowed := map[JobStatus][]JobStatus{
		JobStatusPending:    {JobStatusProcessing, JobStatusFailed},
		JobStatusProcessing: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
		JobStatusCompleted:  {},
		JobStatusFailed:     {},
		JobStatusCancelled:  {},
	}
	all := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
	for from, nexts := range allowed {
		ok := make(map[JobStatus]bool, len(nexts))
		for _, n := range nexts {
			ok[n] = true
		}
		for _, next := range all {
			if got := from.CanTransitionTo(next); got != ok[next] {
				t.Fatalf("%s -> %s: got %v, want %v", from, next, got, ok[next])
			}
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestJobStatusValid(t *testing.T) {
	if JobStatus("running").Valid() {
		t.Fatalf("unknown status accepted")
	}
	if !JobStatusPending.Valid() {
		t.Fatalf("pending rejected")
	}
}

func TestModelCreditCost(t *testing.T) {
	m := VideoModel{CostPerSecond: 3}
	if got := m.CreditCost(5, "720p"); got != 30 {
		t.Fatalf("720p cost: got %d, want 30", got)
	}
	if got := m.CreditCost(10, "1080p"); got != 120 {
		t.Fatalf("1080p cost: got %d, want 120", got)
	}
	if got := m.CreditCost(5, "480p"); got != 15 {
		t.Fatalf("480p cost: got %d, want 15", got)
	}
}
