package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"dealsweep/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)

	jwt, err := store.JWT()
	if err != nil {
		t.Fatalf("read empty jwt: %v", err)
	}
	if jwt != "" {
		t.Fatalf("expected empty jwt before login, got %q", jwt)
	}

	user := &models.User{FirstName: "Ada", LastName: "L", IsApproved: true}
	if err := store.SaveSession("jwt-1", user); err != nil {
		t.Fatalf("save session: %v", err)
	}

	jwt, _ = store.JWT()
	if jwt != "jwt-1" {
		t.Fatalf("expected jwt-1, got %q", jwt)
	}
	got, err := store.User()
	if err != nil {
		t.Fatalf("read user: %v", err)
	}
	if got == nil || got.FirstName != "Ada" || !got.IsApproved {
		t.Fatalf("unexpected user %+v", got)
	}

	if err := store.ClearSession(); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	jwt, _ = store.JWT()
	if jwt != "" {
		t.Fatalf("expected jwt cleared, got %q", jwt)
	}
}

func TestSiteTokenSurvivesLogout(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveSiteToken("site-1"); err != nil {
		t.Fatalf("save site token: %v", err)
	}
	if err := store.SaveSession("jwt-1", nil); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := store.ClearSession(); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	token, err := store.SiteToken()
	if err != nil {
		t.Fatalf("read site token: %v", err)
	}
	if token != "site-1" {
		t.Fatalf("site token should survive logout, got %q", token)
	}
}

func TestRunBookkeeping(t *testing.T) {
	store := newTestStore(t)

	run := &models.ScrapeRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusStopped
	run.PagesWalked = 4
	run.RowsFound = 110
	if err := store.UpdateRun(run); err != nil {
		t.Fatalf("update run: %v", err)
	}

	last, err := store.LastRun()
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if last == nil || last.ID != run.ID {
		t.Fatalf("expected last run %s, got %+v", run.ID, last)
	}
	if last.Status != models.RunStatusStopped || last.RowsFound != 110 {
		t.Fatalf("unexpected run record %+v", last)
	}
	if last.FinishedAt == nil {
		t.Fatalf("expected finished timestamp")
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}
