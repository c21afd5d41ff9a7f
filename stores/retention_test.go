package stores

import (
	"testing"
	"time"
)

// fakeStore records DeleteConversationsBefore calls.
type fakeStore struct {
	MessageStore
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeStore) DeleteConversationsBefore(cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func TestRetentionCutoff(t *testing.T) {
	r := NewRetentionSweeper(nil, 30*24*time.Hour)
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)

	got := r.Cutoff(now)
	want := time.Date(2025, 5, 16, 3, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("cutoff = %v, want %v", got, want)
	}
}

func TestRetentionSweepCallsStore(t *testing.T) {
	fs := &fakeStore{deleted: 3}
	r := NewRetentionSweeper(fs, 24*time.Hour)

	r.Sweep()

	if len(fs.cutoffs) != 1 {
		t.Fatalf("expected 1 delete call, got %d", len(fs.cutoffs))
	}
	if time.Since(fs.cutoffs[0]) < 23*time.Hour {
		t.Errorf("cutoff %v not ~24h in the past", fs.cutoffs[0])
	}
}

func TestRetentionDisabledWithoutMaxAge(t *testing.T) {
	r := NewRetentionSweeper(&fakeStore{}, 0)
	if err := r.Start(); err != nil {
		t.Fatalf("Start with zero max age should be a no-op, got %v", err)
	}
	r.Stop()
}

func TestRetentionStartRequiresStore(t *testing.T) {
	r := NewRetentionSweeper(nil, time.Hour)
	if err := r.Start(); err == nil {
		t.Error("expected error starting sweeper without a store")
	}
}

func TestRetentionBadCronSpec(t *testing.T) {
	r := NewRetentionSweeper(&fakeStore{}, time.Hour)
	r.Spec = "not a cron spec"
	if err := r.Start(); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}
