package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	mux      *http.ServeMux
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func issueToken(t *testing.T) string {
	t.Helper()
	tm, err := auth.NewTokenManager("hubctl-test-secret-0123456789abcdef", time.Hour, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	tok, _, err := tm.Issue(auth.SessionUser{
		ID:          "u1",
		Name:        "Ann",
		Email:       "ann@example.com",
		GroupID:     "g1",
		Permissions: []string{"admin"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, env{
		stdin:  strings.NewReader(stdin),
		stdout: &out,
		stderr: &errOut,
		getenv: func(string) string { return "" },
	})
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

// signedIn writes a valid token and returns the global flags pointing at
// srv and that token file.
func signedIn(t *testing.T, srv *httptest.Server) []string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte(issueToken(t)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return []string{"-server", srv.URL, "-token-file", path}
}

func TestRun_Usage(t *testing.T) {
	if r := runCLI(t, ""); r.code != 2 || !strings.Contains(r.stderr, "commands:") {
		t.Errorf("no args: code %d, stderr %q", r.code, r.stderr)
	}
	if r := runCLI(t, "", "frobnicate"); r.code != 2 || !strings.Contains(r.stderr, `unknown command "frobnicate"`) {
		t.Errorf("unknown: code %d, stderr %q", r.code, r.stderr)
	}
	if r := runCLI(t, "", "-token-file", filepath.Join(t.TempDir(), "tok"), "list"); r.code != 2 || !strings.Contains(r.stderr, "usage: hubctl list") {
		t.Errorf("missing kind: code %d, stderr %q", r.code, r.stderr)
	}
}

func TestLoginThenWhoami(t *testing.T) {
	api, srv := newFakeAPI(t)
	tok := issueToken(t)
	api.mux.HandleFunc("/public/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["email"] != "ann@example.com" || in["password"] != "secret pass" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"Invalid email or password."}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "Signed in.", "token": tok, "user": map[string]string{"_id": "u1"}})
	})
	tokenFile := filepath.Join(t.TempDir(), "token")
	global := []string{"-server", srv.URL, "-token-file", tokenFile}

	r := runCLI(t, "secret pass\n", append(global, "login", "-email", "ann@example.com")...)
	if r.code != 0 {
		t.Fatalf("login: code %d, stderr %q", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "Signed in.") {
		t.Errorf("stdout = %q", r.stdout)
	}
	b, err := os.ReadFile(tokenFile)
	if err != nil || strings.TrimSpace(string(b)) != tok {
		t.Fatalf("token file = %q, err %v", b, err)
	}

	r = runCLI(t, "", append(global, "whoami")...)
	if r.code != 0 {
		t.Fatalf("whoami: code %d, stderr %q", r.code, r.stderr)
	}
	for _, want := range []string{"Ann <ann@example.com>", "group:       g1", "permissions: admin"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("whoami missing %q in %q", want, r.stdout)
		}
	}
}

func TestWhoami_SignedOut(t *testing.T) {
	r := runCLI(t, "", "-token-file", filepath.Join(t.TempDir(), "none"), "whoami")
	if r.code != 1 || !strings.Contains(r.stderr, "not signed in") {
		t.Errorf("code %d, stderr %q", r.code, r.stderr)
	}
}

func TestList_TruncatesTitlesAndShowsPager(t *testing.T) {
	api, srv := newFakeAPI(t)
	title := strings.Repeat("a", 50)
	api.mux.HandleFunc("/private/announcements", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			t.Errorf("page = %q", r.URL.Query().Get("page"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"announcements": []map[string]string{{"_id": "a1", "title": title, "createdAt": "2024-01-02T10:00:00Z"}},
			"totalPages":    2,
		})
	})

	r := runCLI(t, "", append(signedIn(t, srv), "list", "announcements")...)
	if r.code != 0 {
		t.Fatalf("code %d, stderr %q", r.code, r.stderr)
	}
	want := "a1  " + strings.Repeat("a", 40) + "...  (2024-01-02)"
	if !strings.Contains(r.stdout, want) {
		t.Errorf("stdout %q missing %q", r.stdout, want)
	}
	if !strings.Contains(r.stdout, "Page 1 of 2  [next]") {
		t.Errorf("pager missing: %q", r.stdout)
	}
}

func TestSearch_InvalidFilterSendsNothing(t *testing.T) {
	api, srv := newFakeAPI(t)
	r := runCLI(t, "", append(signedIn(t, srv), "search", "payments", "minAmount=lots")...)
	if r.code != 1 {
		t.Fatalf("code = %d", r.code)
	}
	if !strings.Contains(r.stderr, "[error]") || !strings.Contains(r.stderr, "minAmount must be a number") {
		t.Errorf("stderr = %q", r.stderr)
	}
	if got := api.seen(); len(got) != 0 {
		t.Errorf("requests = %v", got)
	}
}

func TestSearch_UsesFilteredEndpoint(t *testing.T) {
	api, srv := newFakeAPI(t)
	var query string
	api.mux.HandleFunc("/private/search-payments", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		io.WriteString(w, `{"payments":[],"totalPages":0}`)
	})
	r := runCLI(t, "", append(signedIn(t, srv), "search", "payments", "minAmount=10")...)
	if r.code != 0 {
		t.Fatalf("code %d, stderr %q", r.code, r.stderr)
	}
	if !strings.Contains(query, "minAmount=10") || !strings.Contains(query, "page=1") {
		t.Errorf("query = %q", query)
	}
	if !strings.Contains(r.stdout, "No payments found.") || !strings.Contains(r.stdout, "Page 1 of 1") {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestShow_Highlights(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.mux.HandleFunc("/private/minutes/m1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"minutes":{"_id":"m1","title":"June","content":"Dues are due. Pay dues."}}`)
	})
	r := runCLI(t, "", append(signedIn(t, srv), "show", "-find", "dues", "minutes", "m1")...)
	if r.code != 0 {
		t.Fatalf("code %d, stderr %q", r.code, r.stderr)
	}
	if !strings.Contains(r.stdout, "Content: [[Dues]] are due. Pay [[dues]].") {
		t.Errorf("stdout = %q", r.stdout)
	}
	if !strings.Contains(r.stdout, `2 matches for "dues".`) {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestBulkDelete(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		var ids []string
		api.mux.HandleFunc("/private/minutes/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
			var in struct{ IDs []string }
			_ = json.NewDecoder(r.Body).Decode(&in)
			ids = in.IDs
			io.WriteString(w, `{"message":"Deleted 1 of 2.","deleted":["a"],"failed":[{"id":"b","reason":"not found"}]}`)
		})
		api.mux.HandleFunc("/private/minutes", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"minutes":[],"totalPages":0}`)
		})

		r := runCLI(t, "", append(signedIn(t, srv), "bulk-delete", "-yes", "minutes", "a", "b")...)
		if r.code != 0 {
			t.Fatalf("code %d, stderr %q", r.code, r.stderr)
		}
		if strings.Join(ids, ",") != "a,b" {
			t.Errorf("ids = %v", ids)
		}
		if !strings.Contains(r.stdout, "Deleted 1 of 2.") || !strings.Contains(r.stdout, "  b: not found") {
			t.Errorf("stdout = %q", r.stdout)
		}
	})

	t.Run("declined", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		r := runCLI(t, "n\n", append(signedIn(t, srv), "bulk-delete", "minutes", "a")...)
		if r.code != 0 {
			t.Fatalf("code %d, stderr %q", r.code, r.stderr)
		}
		if !strings.Contains(r.stdout, "Delete 1 minutes? [y/N]") || !strings.Contains(r.stdout, "Nothing deleted.") {
			t.Errorf("stdout = %q", r.stdout)
		}
		if got := api.seen(); len(got) != 0 {
			t.Errorf("requests = %v", got)
		}
	})
}

func TestExport_WritesCSV(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.mux.HandleFunc("/private/announcements", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"announcements":[{"_id":"1","title":"Hello","createdAt":"2024-01-02T00:00:00Z"}],"totalPages":1}`)
	})
	dir := t.TempDir()
	r := runCLI(t, "", append(signedIn(t, srv), "export", "-dir", dir, "announcements")...)
	if r.code != 0 {
		t.Fatalf("code %d, stderr %q", r.code, r.stderr)
	}
	path := strings.TrimSpace(r.stdout)
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "announcements-") {
		t.Fatalf("path = %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Title,Created At\n\"Hello\",2024-01-02 00:00:00\n"; string(b) != want {
		t.Errorf("csv = %q, want %q", b, want)
	}
}

func TestExport_EmptyPageIsReported(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.mux.HandleFunc("/private/expenses", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"expenses":[],"totalPages":0}`)
	})
	r := runCLI(t, "", append(signedIn(t, srv), "export", "-dir", t.TempDir(), "expenses")...)
	if r.code != 1 || !strings.Contains(r.stderr, "nothing to export") {
		t.Errorf("code %d, stderr %q", r.code, r.stderr)
	}
}

func TestCreate_ClientSideValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative amount", []string{"create", "expenses", "title=Paint", "amount=-5"}, "amount must be greater than 0"},
		{"not a number", []string{"create", "expenses", "title=Paint", "amount=ten"}, "is not a number"},
		{"missing title", []string{"create", "expenses", "amount=5"}, "title is required"},
		{"read-only kind", []string{"create", "users", "fullName=X"}, "users are read-only"},
		{"bad pair", []string{"create", "expenses", "title"}, "expected key=value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeAPI(t)
			r := runCLI(t, "", append(signedIn(t, srv), tt.args...)...)
			if r.code != 1 || !strings.Contains(r.stderr, tt.want) {
				t.Errorf("code %d, stderr %q", r.code, r.stderr)
			}
			if got := api.seen(); len(got) != 0 {
				t.Errorf("requests = %v", got)
			}
		})
	}
}

func TestCreate_SendsTypedBody(t *testing.T) {
	api, srv := newFakeAPI(t)
	var body map[string]any
	api.mux.HandleFunc("/private/expenses", func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		_ = dec.Decode(&body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"message":"Expense created.","expense":{"_id":"e1"}}`)
	})
	r := runCLI(t, "", append(signedIn(t, srv), "create", "expenses", "title=Paint", "amount=12.50", "published=true")...)
	if r.code != 0 {
		t.Fatalf("code %d, stderr %q", r.code, r.stderr)
	}
	if body["amount"] != json.Number("12.5") || body["published"] != true || body["title"] != "Paint" {
		t.Errorf("body = %#v", body)
	}
	if strings.TrimSpace(r.stdout) != "Expense created. e1" {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestUnauthorized_ClearsSession(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.mux.HandleFunc("/private/members", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"authentication required"}`)
	})
	global := signedIn(t, srv)
	r := runCLI(t, "", append(global, "list", "members")...)
	if r.code != 1 || !strings.Contains(r.stderr, "signed out; run hubctl login") {
		t.Errorf("code %d, stderr %q", r.code, r.stderr)
	}
	if _, err := os.Stat(global[3]); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
}
