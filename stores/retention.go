package stores

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionSweeper periodically deletes conversations that have been
// idle longer than MaxAge. It keeps the chat database bounded without
// touching active threads.
type RetentionSweeper struct {
	Store  MessageStore
	MaxAge time.Duration
	Spec   string // cron spec, defaults to nightly at 03:00
	Logger *log.Logger

	scheduler *cron.Cron
	entryID   cron.EntryID
}

// NewRetentionSweeper creates a sweeper for the given store. maxAge <= 0
// disables sweeping (Start becomes a no-op).
func NewRetentionSweeper(store MessageStore, maxAge time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		Store:  store,
		MaxAge: maxAge,
		Spec:   "0 3 * * *",
	}
}

// Start registers the sweep job with a new cron scheduler and starts it.
func (r *RetentionSweeper) Start() error {
	if r.MaxAge <= 0 {
		return nil
	}
	if r.Store == nil {
		return fmt.Errorf("retention sweeper requires a store")
	}

	r.scheduler = cron.New()
	entryID, err := r.scheduler.AddFunc(r.Spec, r.Sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}
	r.entryID = entryID
	r.scheduler.Start()
	return nil
}

// Stop halts the scheduler. Safe to call when Start was never called.
func (r *RetentionSweeper) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

// Sweep runs one deletion pass immediately.
func (r *RetentionSweeper) Sweep() {
	cutoff := r.Cutoff(time.Now())
	deleted, err := r.Store.DeleteConversationsBefore(cutoff)
	if err != nil {
		r.logf("Retention sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		r.logf("Retention sweep removed %d conversations idle since before %s", deleted, cutoff.Format(time.RFC3339))
	}
}

// Cutoff returns the deletion boundary for a sweep running at now.
func (r *RetentionSweeper) Cutoff(now time.Time) time.Time {
	return now.Add(-r.MaxAge)
}

func (r *RetentionSweeper) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
