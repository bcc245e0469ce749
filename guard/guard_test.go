package guard

import (
	"path/filepath"
	"strings"
	"testing"
)

func openTestGuard(t *testing.T, quota int) *Guard {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "guard.db"), quota)
	if err != nil {
		t.Fatalf("Failed to open guard: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestCheckAllowsWithinQuota(t *testing.T) {
	g := openTestGuard(t, 3)

	for i := 0; i < 3; i++ {
		if err := g.Check("creator1"); err != nil {
			t.Fatalf("Check %d failed: %v", i+1, err)
		}
	}
	err := g.Check("creator1")
	if err == nil {
		t.Fatal("Expected quota rejection on fourth submission")
	}
	if !strings.Contains(err.Error(), "quota") {
		t.Errorf("Unexpected rejection message: %v", err)
	}

	// Other creators have their own window.
	if err := g.Check("creator2"); err != nil {
		t.Errorf("Quota of one creator leaked to another: %v", err)
	}
}

func TestBlacklistRejectsImmediately(t *testing.T) {
	g := openTestGuard(t, 100)

	if err := g.Blacklist("badactor"); err != nil {
		t.Fatalf("Failed to blacklist: %v", err)
	}

	err := g.Check("badactor")
	if err == nil {
		t.Fatal("Expected blacklist rejection")
	}
	if !strings.Contains(err.Error(), "blacklisted") {
		t.Errorf("Unexpected rejection message: %v", err)
	}

	blocked, err := g.IsBlacklisted("badactor")
	if err != nil || !blocked {
		t.Errorf("Expected creator to be blacklisted, got %v %v", blocked, err)
	}

	if err := g.Unblacklist("badactor"); err != nil {
		t.Fatalf("Failed to unblacklist: %v", err)
	}
	if err := g.Check("badactor"); err != nil {
		t.Errorf("Check failed after unblacklist: %v", err)
	}
}

func TestListBlacklist(t *testing.T) {
	g := openTestGuard(t, 10)

	g.Blacklist("alpha")
	g.Blacklist("beta")
	// Usage records share the DB; make sure they never leak into the listing.
	g.Check("gamma")

	creators, err := g.ListBlacklist()
	if err != nil {
		t.Fatalf("Failed to list blacklist: %v", err)
	}
	if len(creators) != 2 {
		t.Fatalf("Expected 2 blacklisted creators, got %d: %v", len(creators), creators)
	}
	found := map[string]bool{}
	for _, c := range creators {
		found[c] = true
	}
	if !found["alpha"] || !found["beta"] {
		t.Errorf("Unexpected blacklist contents: %v", creators)
	}
}

func TestUsageSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "guard.db")

	g, err := Open(dbPath, 2)
	if err != nil {
		t.Fatalf("Failed to open guard: %v", err)
	}
	g.Check("creator1")
	g.Check("creator1")
	if err := g.Close(); err != nil {
		t.Fatalf("Failed to close guard: %v", err)
	}

	g, err = Open(dbPath, 2)
	if err != nil {
		t.Fatalf("Failed to reopen guard: %v", err)
	}
	defer g.Close()

	if err := g.Check("creator1"); err == nil {
		t.Error("Quota usage lost across restart")
	}
}
