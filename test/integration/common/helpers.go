package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leadflowhq/leadflow/internal/util"
	"github.com/leadflowhq/leadflow/internal/webhook"
	"github.com/leadflowhq/leadflow/pkg/leadflow/models"
)

// manifest used by the server journeys. Greet finishes in one quick
// exec task, Fanout exercises the parallel path.
const manifest = `run: Greet
workflows:
  - name: Greet
    tasks:
      - exec: echo hello from leadflow
  - name: Fanout
    mode: parallel
    tasks:
      - exec: echo fan one
      - exec: echo fan two
`

// WriteManifest writes the journey manifest into a temp dir and returns
// its path.
func WriteManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.yml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}

// StartFeedFixture serves a small enrollment feed so the dashboard
// endpoints never reach out to the real receiver. Timestamps are
// stamped per request so the month filters always match.
func StartFeedFixture(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts := time.Now().UTC().Format(time.RFC3339)
		events := []webhook.Event{
			{Timestamp: ts, Data: webhook.EventData{SetOfficerName: "Maria Torres", OpenerName: "Jamal Carter", Leadsales: "yes", Leadsource: "Referral", Paymentamount: "$1,200.00", InitialPayment: "yes", CaseID: "41001"}},
			{Timestamp: ts, Data: webhook.EventData{SetOfficerName: "Maria Torres", OpenerName: "Jamal Carter", Leadsales: "yes", Leadsource: "Google Ads", Paymentamount: "$800.00", CaseID: "41002"}},
			{Timestamp: ts, Data: webhook.EventData{SetOfficerName: "Devon Blake", OpenerName: "Priya Nair", Leadsales: "yes", Leadsource: "Referral", Paymentamount: "$450.00", CaseID: "41003"}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	}))
	t.Cleanup(server.Close)
	return server
}

// WaitForServer polls the dashboard page until the server answers.
func WaitForServer(t *testing.T, port int) {
	t.Helper()
	addr := fmt.Sprintf("http://localhost:%d/", port)
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Server did not come up on port %d", port)
}

// NoRedirectClient returns a client that surfaces 3xx responses instead
// of following them, so login redirects can be asserted directly.
func NoRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Login posts the admin password to the login form and returns the
// session cookie from the redirect response.
func Login(t *testing.T, port int, password string) *http.Cookie {
	t.Helper()
	client := NoRedirectClient()
	form := url.Values{"password": {password}}
	resp, err := client.PostForm(fmt.Sprintf("http://localhost:%d/login", port), form)
	if err != nil {
		t.Fatalf("Failed to post /login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("Expected 303 from login, got %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "sessionId" {
			return c
		}
	}
	t.Fatal("No sessionId cookie on login response")
	return nil
}

// WaitForRunStatus polls the run API until the run reaches the wanted
// status or the deadline passes.
func WaitForRunStatus(t *testing.T, port int, cookie *http.Cookie, runID string, want string) {
	t.Helper()
	client := &http.Client{Timeout: 10 * time.Second}
	addr := fmt.Sprintf("http://localhost:%d/api/runs/%s", port, runID)
	deadline := time.Now().Add(30 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		req, err := http.NewRequest("GET", addr, nil)
		if err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
		req.AddCookie(cookie)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Failed to GET run %s: %v", runID, err)
		}
		run, err := util.DecodeJSONBodyResponse[models.RunApiResponse](resp)
		if err != nil {
			t.Fatalf("Failed to decode run response: %v", err)
		}
		last = run.Status
		if last == want {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("Run %s never reached %s, last status %s", runID, want, last)
}
