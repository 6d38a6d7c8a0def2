package session

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func issue(t *testing.T, u auth.SessionUser) string {
	t.Helper()
	tm, err := auth.NewTokenManager("session-test-secret-32-characters-x", time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	tok, _, err := tm.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func TestDecode(t *testing.T) {
	tok := issue(t, auth.SessionUser{ID: "u1", GroupID: "g1", Permissions: []string{"manage_members"}, Name: "Jane"})
	c, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.UserID != "u1" || c.CurrentGroupID != "g1" || c.Name != "Jane" {
		t.Errorf("claims = %+v", c)
	}
	if !c.Can("manage_members") || c.Can("manage_finances") {
		t.Errorf("Can mismatch for %v", c.Permissions)
	}
	if c.ExpiresAt.IsZero() || c.Expired(time.Now()) {
		t.Error("expected future expiry")
	}

	if _, err := Decode("garbage"); err == nil {
		t.Error("expected error for garbage token")
	}
}

func TestProvider_RefreshAndLogout(t *testing.T) {
	store := &MemoryStore{}
	p := NewProvider(store)

	var events []bool
	p.OnChange(func(_ Claims, signedIn bool) { events = append(events, signedIn) })

	if _, ok := p.Claims(); ok {
		t.Fatal("new provider should be signed out")
	}

	tok := issue(t, auth.SessionUser{ID: "u1", GroupID: "g1", Permissions: []string{"admin"}})
	if err := p.Refresh(tok); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	c, ok := p.Claims()
	if !ok || c.UserID != "u1" || !c.Can("manage_finances") {
		t.Errorf("claims after refresh = %+v, %v", c, ok)
	}
	if saved, _ := store.Load(); saved != tok {
		t.Error("token not persisted")
	}

	c.Permissions[0] = "tampered"
	if again, _ := p.Claims(); again.Permissions[0] != "admin" {
		t.Error("Claims must return a copy")
	}

	if err := p.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if p.Token() != "" {
		t.Error("token should be empty after logout")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Error("stored token should be cleared")
	}
	if len(events) != 2 || events[0] != true || events[1] != false {
		t.Errorf("events = %v, want [true false]", events)
	}
}

func TestProvider_RefreshRejectsGarbage(t *testing.T) {
	p := NewProvider(&MemoryStore{})
	if err := p.Refresh("nope"); err == nil {
		t.Error("expected error")
	}
	if p.Token() != "" {
		t.Error("bad token must not be kept")
	}
}

func TestFileStore_SaveTightensExistingFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	store := FileStore{Path: filepath.Join(t.TempDir(), "token")}
	if err := os.WriteFile(store.Path, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := store.Save("new-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if tok, err := store.Load(); err != nil || tok != "new-token" {
		t.Errorf("Load = %q, %v", tok, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(store.Path))
	if len(entries) != 1 {
		t.Errorf("left temp files behind: %d entries", len(entries))
	}
}

func TestProvider_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	store := FileStore{Path: filepath.Join(dir, "nested", "token")}

	p := NewProvider(store)
	if err := p.Load(); err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if p.Token() != "" {
		t.Error("expected no token")
	}

	tok := issue(t, auth.SessionUser{ID: "u2"})
	if err := store.Save(tok); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(store.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	p2 := NewProvider(store)
	if err := p2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c, ok := p2.Claims(); !ok || c.UserID != "u2" {
		t.Errorf("claims = %+v, %v", c, ok)
	}

	if err := os.WriteFile(store.Path, []byte("corrupt"), 0o600); err != nil {
		t.Fatal(err)
	}
	p3 := NewProvider(store)
	if err := p3.Load(); err == nil {
		t.Error("expected error for corrupt token")
	}
	if _, err := os.Stat(store.Path); !os.IsNotExist(err) {
		t.Error("corrupt token file should be removed")
	}
}
