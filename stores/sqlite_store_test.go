package stores

import (
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStoreSimple(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndFetchHistory(t *testing.T) {
	store := newTestStore(t)

	for i := 1; i <= 3; i++ {
		parts := []map[string]string{{"text": fmt.Sprintf("message %d", i)}}
		if err := store.SaveMessage("conv-1", "user", "user_message", parts, ""); err != nil {
			t.Fatal(err)
		}
	}

	history, err := store.FetchHistory("conv-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i, msg := range history {
		if msg.Sequence != i+1 {
			t.Errorf("message %d has sequence %d", i, msg.Sequence)
		}
	}
}

func TestFetchHistoryTailLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 1; i <= 5; i++ {
		parts := []map[string]string{{"text": fmt.Sprintf("message %d", i)}}
		if err := store.SaveMessage("conv-2", "user", "user_message", parts, ""); err != nil {
			t.Fatal(err)
		}
	}

	history, err := store.FetchHistory("conv-2", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected the last 2 messages, got %d", len(history))
	}
	if history[0].Sequence != 4 || history[1].Sequence != 5 {
		t.Errorf("wrong tail: sequences %d, %d", history[0].Sequence, history[1].Sequence)
	}

	// A limit larger than the history returns everything.
	history, err = store.FetchHistory("conv-2", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 5 {
		t.Errorf("expected all 5 messages, got %d", len(history))
	}
}
