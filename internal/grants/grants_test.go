package grants

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"jellysweep/internal/services/jellyfin"
)

type fakeService struct {
	policies map[string]jellyfin.Policy
	readErr  map[string]error
	writeErr map[string]error
	outcome  jellyfin.WriteOutcome
	writes   []string
	written  map[string]jellyfin.Policy
}

func newFakeService() *fakeService {
	return &fakeService{
		policies: make(map[string]jellyfin.Policy),
		readErr:  make(map[string]error),
		writeErr: make(map[string]error),
		written:  make(map[string]jellyfin.Policy),
	}
}

func (s *fakeService) UserPolicy(ctx context.Context, userID string) (jellyfin.Policy, error) {
	if err := s.readErr[userID]; err != nil {
		return nil, err
	}
	return s.policies[userID], nil
}

func (s *fakeService) UpdatePolicy(ctx context.Context, userID string, policy jellyfin.Policy) (jellyfin.WriteOutcome, error) {
	if err := s.writeErr[userID]; err != nil {
		return 0, err
	}
	s.writes = append(s.writes, userID)
	s.written[userID] = policy
	return s.outcome, nil
}

var (
	movies = jellyfin.Library{ID: "lib1", Name: "Movies"}
	users  = []jellyfin.User{
		{ID: "u1", Name: "alice"},
		{ID: "u2", Name: "bob"},
		{ID: "u3", Name: "carol"},
	}
)

func TestRunGrantSkipsNoOpsAndAllAccess(t *testing.T) {
	svc := newFakeService()
	svc.policies["u1"] = jellyfin.Policy{"EnabledFolders": []any{"lib1"}}
	svc.policies["u2"] = jellyfin.Policy{"EnableAllFolders": true}
	svc.policies["u3"] = jellyfin.Policy{"EnabledFolders": []any{"other"}}

	runner := &Runner{Service: svc, Apply: true}
	result, err := runner.Run(context.Background(), users, movies, Grant)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Unchanged != 1 {
		t.Fatalf("expected alice unchanged, got %d", result.Unchanged)
	}
	if result.SkippedAll != 1 {
		t.Fatalf("expected bob skipped as all-access, got %d", result.SkippedAll)
	}
	if len(result.Changed) != 1 || result.Changed[0].ID != "u3" {
		t.Fatalf("expected only carol changed, got %+v", result.Changed)
	}
	if len(svc.writes) != 1 || svc.writes[0] != "u3" {
		t.Fatalf("expected exactly one write for carol, got %v", svc.writes)
	}
	if !svc.written["u3"].HasFolder("lib1") {
		t.Fatalf("expected lib1 granted in written policy: %v", svc.written["u3"])
	}
}

func TestRunGrantIsIdempotent(t *testing.T) {
	svc := newFakeService()
	svc.policies["u1"] = jellyfin.Policy{"EnabledFolders": []any{}}
	one := []jellyfin.User{users[0]}

	runner := &Runner{Service: svc, Apply: true}
	if _, err := runner.Run(context.Background(), one, movies, Grant); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// The server now reports the library as granted.
	svc.policies["u1"] = svc.written["u1"]

	result, err := runner.Run(context.Background(), one, movies, Grant)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Unchanged != 1 {
		t.Fatalf("expected no-op on second run, got %+v", result)
	}
	if len(svc.writes) != 1 {
		t.Fatalf("expected no second write, got %v", svc.writes)
	}
}

func TestRunDryRunNeverWrites(t *testing.T) {
	svc := newFakeService()
	svc.policies["u1"] = jellyfin.Policy{"EnabledFolders": []any{}}
	svc.policies["u2"] = jellyfin.Policy{"EnabledFolders": []any{}}
	svc.policies["u3"] = jellyfin.Policy{"EnabledFolders": []any{}}

	var report bytes.Buffer
	runner := &Runner{Service: svc, Apply: false, Report: &report}
	result, err := runner.Run(context.Background(), users, movies, Grant)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Changed) != 3 {
		t.Fatalf("expected three planned changes, got %d", len(result.Changed))
	}
	if len(svc.writes) != 0 {
		t.Fatalf("dry-run must not write, got %v", svc.writes)
	}
	if !strings.Contains(report.String(), "alice") || !strings.Contains(report.String(), "grant Movies") {
		t.Fatalf("unexpected report: %q", report.String())
	}
}

func TestRunRevokeRemovesFolder(t *testing.T) {
	svc := newFakeService()
	svc.policies["u1"] = jellyfin.Policy{"EnabledFolders": []any{"lib1", "other"}}

	runner := &Runner{Service: svc, Apply: true}
	result, err := runner.Run(context.Background(), []jellyfin.User{users[0]}, movies, Revoke)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Changed) != 1 {
		t.Fatalf("expected one change, got %+v", result)
	}
	if svc.written["u1"].HasFolder("lib1") {
		t.Fatalf("expected lib1 revoked: %v", svc.written["u1"])
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	svc := newFakeService()
	svc.policies["u1"] = jellyfin.Policy{"EnabledFolders": []any{}}
	svc.policies["u2"] = jellyfin.Policy{"EnabledFolders": []any{}}
	svc.policies["u3"] = jellyfin.Policy{"EnabledFolders": []any{}}
	svc.readErr["u1"] = errors.New("read boom")
	svc.writeErr["u2"] = errors.New("write boom")

	runner := &Runner{Service: svc, Apply: true}
	result, err := runner.Run(context.Background(), users, movies, Grant)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Failures) != 2 {
		t.Fatalf("expected two failures, got %+v", result.Failures)
	}
	if len(result.Changed) != 1 || result.Changed[0].ID != "u3" {
		t.Fatalf("expected carol still updated, got %+v", result.Changed)
	}
}

func TestRunCountsFallbacks(t *testing.T) {
	svc := newFakeService()
	svc.policies["u1"] = jellyfin.Policy{"EnabledFolders": []any{}}
	svc.outcome = jellyfin.WriteFallback

	runner := &Runner{Service: svc, Apply: true}
	result, err := runner.Run(context.Background(), []jellyfin.User{users[0]}, movies, Grant)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Fallbacks != 1 {
		t.Fatalf("expected one fallback, got %d", result.Fallbacks)
	}
}

func TestAcquireApplyLockIsExclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireApplyLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := AcquireApplyLock(dir); err == nil {
		t.Fatal("expected second acquire to fail while held")
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	second, err := AcquireApplyLock(dir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = second.Unlock()
}
