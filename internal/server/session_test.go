package server

import (
	"context"
	"strings"
	"testing"

	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
)

func TestSessionManager_AttachSharesSystem(t *testing.T) {
	store := quest.NewMemoryStore()
	m := NewSessionManager(testContent(t), store, "")

	first, err := m.Attach(context.Background(), "alice", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	second, err := m.Attach(context.Background(), "alice", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}

	if first.System() != second.System() {
		t.Error("Sessions of the same player should share one system")
	}
	if first.ID() == second.ID() {
		t.Error("Sessions should have distinct ids")
	}
	if players, sessions := m.Counts(); players != 1 || sessions != 2 {
		t.Errorf("Counts = %d, %d, want 1, 2", players, sessions)
	}

	if _, err := first.System().Accept("kill_3_grunts"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	if err := m.Detach(first); err != nil {
		t.Fatalf("Detach returned error: %v", err)
	}
	if _, found, _ := store.LoadBlob(context.Background(), "quest_system/alice"); found {
		t.Error("System should not be saved while a session remains")
	}

	if err := m.Detach(second); err != nil {
		t.Fatalf("Detach returned error: %v", err)
	}
	if _, found, _ := store.LoadBlob(context.Background(), "quest_system/alice"); !found {
		t.Error("System should be saved when the last session detaches")
	}
	if players, sessions := m.Counts(); players != 0 || sessions != 0 {
		t.Errorf("Counts = %d, %d, want 0, 0", players, sessions)
	}
	if _, ok := m.System("alice"); ok {
		t.Error("System should be dropped after the last detach")
	}
}

func TestSessionManager_RestoresProgressOnReattach(t *testing.T) {
	store := quest.NewMemoryStore()
	m := NewSessionManager(testContent(t), store, "saves")

	session, err := m.Attach(context.Background(), "bob", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	sys := session.System()
	if _, err := sys.Accept("kill_3_grunts"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	sys.ReportEnemyKilled("Grunt", 2)
	m.Detach(session)

	if _, found, _ := store.LoadBlob(context.Background(), "saves/bob"); !found {
		t.Fatal("Save should use the configured save root")
	}

	session, err = m.Attach(context.Background(), "bob", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	defer m.Detach(session)

	if got := taskProgress(t, session.System(), "kill_3_grunts", "kill_grunts"); got != 2 {
		t.Errorf("Restored progress = %d, want 2", got)
	}
}

func TestSessionManager_NewPlayerGetsAchievements(t *testing.T) {
	m := NewSessionManager(testContent(t), quest.NewMemoryStore(), "")
	session, err := m.Attach(context.Background(), "carol", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	defer m.Detach(session)

	if got := len(session.System().ActiveAchievements()); got != 1 {
		t.Errorf("ActiveAchievements = %d, want 1", got)
	}
}

func TestSessionManager_AttachWithoutStore(t *testing.T) {
	m := NewSessionManager(testContent(t), nil, "")
	session, err := m.Attach(context.Background(), "dave", &fakeClient{})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	if got := len(session.System().ActiveAchievements()); got != 1 {
		t.Errorf("ActiveAchievements = %d, want 1", got)
	}
	if err := session.Save(); err != nil {
		t.Errorf("Save without a store should be a no-op, got %v", err)
	}
	if err := m.Detach(session); err != nil {
		t.Errorf("Detach returned error: %v", err)
	}
}

func TestSessionManager_RejectsEmptyPlayer(t *testing.T) {
	m := NewSessionManager(testContent(t), nil, "")
	if _, err := m.Attach(context.Background(), "", &fakeClient{}); err == nil {
		t.Error("Attach should reject an empty player id")
	}
}

func TestSessionManager_PushesEvents(t *testing.T) {
	m := NewSessionManager(testContent(t), quest.NewMemoryStore(), "")
	phone, laptop := &fakeClient{}, &fakeClient{}

	a, _ := m.Attach(context.Background(), "erin", phone)
	b, _ := m.Attach(context.Background(), "erin", laptop)

	if _, err := a.System().Accept("herb_run"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	for _, client := range []*fakeClient{phone, laptop} {
		if !client.HasLine("event quest_registered herb_run") {
			t.Errorf("Client lines = %v, want the registration event", client.Lines())
		}
	}

	m.Detach(b)
	a.System().ReportItemCollected("herb", 2)
	if _, err := a.System().TurnIn("herb_run"); err != nil {
		t.Fatalf("TurnIn returned error: %v", err)
	}

	if !phone.HasLine("event quest_completed herb_run") {
		t.Errorf("Attached client lines = %v, want the completion event", phone.Lines())
	}
	if laptop.HasLine("event quest_completed herb_run") {
		t.Error("Detached client should not receive events")
	}
	m.Detach(a)
}

func TestSessionManager_ReportElapsed(t *testing.T) {
	m := NewSessionManager(testContent(t), quest.NewMemoryStore(), "")
	session, _ := m.Attach(context.Background(), "frank", &fakeClient{})
	defer m.Detach(session)

	m.ReportElapsed(60)
	m.ReportElapsed(60)

	sys := session.System()
	if !sys.HasCompleted("veteran") {
		t.Error("veteran should complete after 120 seconds")
	}
}

func TestSessionManager_SaveAllJoinsErrors(t *testing.T) {
	m := NewSessionManager(testContent(t), failingStore{}, "")
	alice, _ := m.Attach(context.Background(), "alice", &fakeClient{})
	bob, _ := m.Attach(context.Background(), "bob", &fakeClient{})

	err := m.SaveAll(context.Background())
	if err == nil {
		t.Fatal("SaveAll should fail when the store fails")
	}
	for _, player := range []string{"alice", "bob"} {
		if !strings.Contains(err.Error(), player) {
			t.Errorf("Error %q should name %s", err, player)
		}
	}

	if err := m.Detach(alice); err == nil {
		t.Error("Detach should report the failed save")
	}
	m.Detach(bob)
}

func TestSession_Disconnect(t *testing.T) {
	m := NewSessionManager(testContent(t), nil, "")
	session, _ := m.Attach(context.Background(), "gina", &fakeClient{})
	defer m.Detach(session)

	if session.Quitting() {
		t.Error("New session should not be quitting")
	}
	session.Disconnect()
	if !session.Quitting() {
		t.Error("Quitting should be true after Disconnect")
	}
	if session.PlayerID() != "gina" {
		t.Errorf("PlayerID = %q, want gina", session.PlayerID())
	}
}
