package db

import (
	"fmt"
	"testing"

	"askdb/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestChatHistoryOrder(t *testing.T) {
	d := newTestDB(t)

	for i := 0; i < 5; i++ {
		err := d.AddChatHistory(models.ChatTurn{
			SessionID: "s1",
			Role:      "user",
			Content:   fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	turns, err := d.GetSessionMessages("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(turns) != 5 {
		t.Fatalf("turns = %d, want 5", len(turns))
	}
	for i, turn := range turns {
		if turn.Content != fmt.Sprintf("message %d", i) {
			t.Errorf("turns[%d] = %q, want oldest first", i, turn.Content)
		}
		if turn.CreatedAt == "" {
			t.Errorf("turns[%d] missing created_at", i)
		}
	}
}

func TestChatHistoryDefaultSession(t *testing.T) {
	d := newTestDB(t)

	if err := d.AddChatHistory(models.ChatTurn{Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	turns, err := d.GetSessionMessages(models.DefaultChatSessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(turns) != 1 || turns[0].SessionID != models.DefaultChatSessionID {
		t.Errorf("turns = %+v", turns)
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	d := newTestDB(t)

	sess := &models.ChatSession{ID: "s1", Title: "First", CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z"}
	if err := d.StoreChatSession(sess); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := d.GetChatSession("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "First" {
		t.Fatalf("session = %+v", got)
	}

	if err := d.UpdateChatSessionTitle("s1", "Renamed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = d.GetChatSession("s1")
	if got.Title != "Renamed" {
		t.Errorf("title = %q", got.Title)
	}
	if got.UpdatedAt == "2026-01-01T00:00:00Z" {
		t.Error("updated_at not bumped")
	}

	if err := d.AddChatHistory(models.ChatTurn{SessionID: "s1", Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("add turn: %v", err)
	}

	if err := d.DeleteChatSession("s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = d.GetChatSession("s1")
	if err != nil || got != nil {
		t.Errorf("session after delete = %+v, err = %v", got, err)
	}
	turns, _ := d.GetSessionMessages("s1")
	if len(turns) != 0 {
		t.Errorf("turns after delete = %d, want 0", len(turns))
	}
}

func TestGetChatSessionMissing(t *testing.T) {
	d := newTestDB(t)
	got, err := d.GetChatSession("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("session = %+v, want nil", got)
	}
}

func TestListChatSessionsNewestFirst(t *testing.T) {
	d := newTestDB(t)

	d.StoreChatSession(&models.ChatSession{ID: "old", Title: "Old", UpdatedAt: "2026-01-01T00:00:00Z"})
	d.StoreChatSession(&models.ChatSession{ID: "new", Title: "New", UpdatedAt: "2026-02-01T00:00:00Z"})

	sessions, err := d.ListChatSessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "new" || sessions[1].ID != "old" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestEnsureDefaultChatSessionIdempotent(t *testing.T) {
	d := newTestDB(t)

	if err := d.EnsureDefaultChatSession(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	sess, _ := d.GetChatSession(models.DefaultChatSessionID)
	if sess == nil {
		t.Fatal("default session not created")
	}
	created := sess.CreatedAt

	if err := d.EnsureDefaultChatSession(); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	sess, _ = d.GetChatSession(models.DefaultChatSessionID)
	if sess.CreatedAt != created {
		t.Error("second ensure replaced the existing session")
	}
}
