package observer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const tinyChampionSource = `.name "tiny"
.comment "loops forever"
loop: live %1
zjmp %:loop
`

func writeTinyChampion(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.s")
	if err := os.WriteFile(path, []byte(tinyChampionSource), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCreateSessionStartsRunningMatch(t *testing.T) {
	path := writeTinyChampion(t)
	mgr := NewMatchManager(nil, 1)

	session, err := mgr.CreateSession(MatchCreateRequest{ChampionPaths: []string{path}})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected a non-empty session ID")
	}
	if mgr.Count() != 1 {
		t.Errorf("Count = %d, want 1", mgr.Count())
	}

	got, err := mgr.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != session {
		t.Error("GetSession returned a different session")
	}

	if err := mgr.StopSession(session.ID); err != nil {
		t.Fatalf("StopSession: %v", err)
	}
}

func TestGetSessionUnknownIDErrors(t *testing.T) {
	mgr := NewMatchManager(nil, 1)
	if _, err := mgr.GetSession("nonexistent"); err != ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestCreateSessionPropagatesLoaderError(t *testing.T) {
	mgr := NewMatchManager(nil, 1)
	if _, err := mgr.CreateSession(MatchCreateRequest{ChampionPaths: []string{"/nonexistent/champ.s"}}); err == nil {
		t.Fatal("expected an error for a missing champion file")
	}
}

func TestListSessionsAndDestroySession(t *testing.T) {
	path := writeTinyChampion(t)
	mgr := NewMatchManager(nil, 1)

	session, err := mgr.CreateSession(MatchCreateRequest{ChampionPaths: []string{path}})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	ids := mgr.ListSessions()
	if len(ids) != 1 || ids[0] != session.ID {
		t.Errorf("ListSessions = %v, want [%s]", ids, session.ID)
	}

	if err := mgr.DestroySession(session.ID); err != nil {
		t.Fatalf("DestroySession: %v", err)
	}
	if mgr.Count() != 0 {
		t.Errorf("Count after destroy = %d, want 0", mgr.Count())
	}
	if _, err := mgr.GetSession(session.ID); err != ErrSessionNotFound {
		t.Errorf("GetSession after destroy err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStatusReflectsRoster(t *testing.T) {
	path := writeTinyChampion(t)
	mgr := NewMatchManager(nil, 1)

	session, err := mgr.CreateSession(MatchCreateRequest{ChampionPaths: []string{path}})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer mgr.DestroySession(session.ID)

	// Allow a few ticks to run so the status reflects a loaded player.
	time.Sleep(20 * time.Millisecond)

	status := session.Status()
	if len(status.Players) != 1 {
		t.Fatalf("Players = %+v, want 1 entry", status.Players)
	}
	if status.Players[0].Name != "tiny" {
		t.Errorf("Players[0].Name = %q, want tiny", status.Players[0].Name)
	}
}
