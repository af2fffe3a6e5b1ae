package killswitch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// recordingNotifier captures messages and signals each delivery.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	ch       chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan struct{}, 8)}
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) error {
	n.mu.Lock()
	n.messages = append(n.messages, text)
	n.mu.Unlock()
	n.ch <- struct{}{}
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) string {
	t.Helper()
	select {
	case <-n.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.messages[len(n.messages)-1]
}

func TestActivate_PersistsAndNotifies(t *testing.T) {
	db := newTestDB(t)
	notifier := newRecordingNotifier()
	c := NewController(db, notifier)

	st, err := c.Activate(context.Background(), "ops")
	if err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	if !st.Active || st.ActivatedBy != "ops" {
		t.Errorf("state = %+v, want active by ops", st)
	}

	if !c.Engaged() {
		t.Error("Engaged() should be true after activation")
	}

	msg := notifier.wait(t)
	if msg == "" {
		t.Error("activation alert should carry a message")
	}
}

func TestDeactivate_ClearsState(t *testing.T) {
	db := newTestDB(t)
	c := NewController(db, nil)

	if _, err := c.Activate(context.Background(), "ops"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Deactivate(context.Background(), "ops"); err != nil {
		t.Fatalf("Deactivate() error: %v", err)
	}

	if c.Engaged() {
		t.Error("Engaged() should be false after deactivation")
	}
}

func TestStatus_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	c := NewController(db, nil)
	if _, err := c.Activate(context.Background(), "ops"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	// A restart must come back with the halt still engaged.
	db2, err := sqlite.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()

	c2 := NewController(db2, nil)
	st, err := c2.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !st.Active {
		t.Error("activation should survive a restart")
	}
}

func TestEngaged_FailsSafeOnReadError(t *testing.T) {
	db := newTestDB(t)
	c := NewController(db, nil)
	db.Close()

	if !c.Engaged() {
		t.Error("Engaged() should fail safe (true) when the store is unreadable")
	}
}
