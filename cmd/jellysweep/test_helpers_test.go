package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeJellyfin is a minimal in-memory Jellyfin server for CLI tests: two
// libraries, per-user policies, and a record of every policy write.
type fakeJellyfin struct {
	t *testing.T

	mu       sync.Mutex
	policies map[string]map[string]any
	users    []map[string]any

	rejectPut bool
	writes    []string // "METHOD userID"
}

func newFakeJellyfin(t *testing.T) *fakeJellyfin {
	t.Helper()
	return &fakeJellyfin{
		t: t,
		users: []map[string]any{
			{"Id": "u1", "Name": "alice"},
			{"Id": "u2", "Name": "bob"},
		},
		policies: map[string]map[string]any{
			"u1": {"EnableAllFolders": false, "EnabledFolders": []string{"lib1"}},
			"u2": {"EnableAllFolders": false, "EnabledFolders": []string{}},
		},
	}
}

func (f *fakeJellyfin) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(server.Close)
	return server
}

func (f *fakeJellyfin) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("X-Emby-Token") == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/Library/VirtualFolders":
		fmt.Fprint(w, `[{"Name":"Movies","ItemId":"lib1"},{"Name":"Shows","ItemId":"lib2"}]`)
	case r.URL.Path == "/Users" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.users)
	case strings.HasSuffix(r.URL.Path, "/Policy"):
		userID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/Users/"), "/Policy")
		policy, ok := f.policies[userID]
		if !ok {
			http.Error(w, "unknown user", http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(policy)
		case http.MethodPut:
			if f.rejectPut {
				f.writes = append(f.writes, "PUT "+userID)
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			f.storePolicy(userID, r)
			f.writes = append(f.writes, "PUT "+userID)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			f.storePolicy(userID, r)
			f.writes = append(f.writes, "POST "+userID)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method", http.StatusMethodNotAllowed)
		}
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (f *fakeJellyfin) storePolicy(userID string, r *http.Request) {
	var policy map[string]any
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		f.t.Errorf("decode policy write: %v", err)
		return
	}
	f.policies[userID] = policy
}

func (f *fakeJellyfin) writeLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func runCLI(t *testing.T, serverURL string, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--url", serverURL, "--api-key", "test-key"}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
