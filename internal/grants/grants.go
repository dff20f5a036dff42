package grants

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"jellysweep/internal/logging"
	"jellysweep/internal/services/jellyfin"
)

// Action selects the direction of a policy change.
type Action int

const (
	// Grant adds the library to each user's allow-list.
	Grant Action = iota
	// Revoke removes it.
	Revoke
)

func (a Action) String() string {
	if a == Revoke {
		return "revoke"
	}
	return "grant"
}

// PolicyService is the slice of the Jellyfin client the runner needs.
type PolicyService interface {
	UserPolicy(ctx context.Context, userID string) (jellyfin.Policy, error)
	UpdatePolicy(ctx context.Context, userID string, policy jellyfin.Policy) (jellyfin.WriteOutcome, error)
}

// Failure records one user whose update could not be completed.
type Failure struct {
	User jellyfin.User
	Err  error
}

// Result summarizes a run across all users.
type Result struct {
	// Changed lists users that were updated (apply mode) or would be
	// (dry-run).
	Changed []jellyfin.User
	// SkippedAll counts users whose policy grants every library; those are
	// never converted to an explicit allow-list.
	SkippedAll int
	// Unchanged counts users for whom the change was already in effect.
	Unchanged int
	// Fallbacks counts writes that needed the POST retry after a 405.
	Fallbacks int
	Failures  []Failure
}

// Runner applies one library grant or revocation to every user in turn. Each
// user is independent: a failure is recorded and the loop moves on.
type Runner struct {
	Service PolicyService
	Logger  *slog.Logger
	// Apply issues writes; when false (dry-run) intended changes are only
	// reported.
	Apply bool
	// Report receives one line per affected user.
	Report io.Writer
}

// Run walks the users sequentially. Only the context being canceled stops the
// walk early.
func (r *Runner) Run(ctx context.Context, users []jellyfin.User, lib jellyfin.Library, action Action) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	report := r.Report
	if report == nil {
		report = io.Discard
	}

	result := &Result{}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		policy, err := r.Service.UserPolicy(ctx, user.ID)
		if err != nil {
			result.Failures = append(result.Failures, Failure{User: user, Err: err})
			logger.Warn("read policy failed", "user", user.Name, "error", err)
			continue
		}

		if policy.EnableAllFolders() {
			result.SkippedAll++
			logger.Debug("skipping all-access user", "user", user.Name)
			continue
		}

		var next jellyfin.Policy
		switch action {
		case Grant:
			if policy.HasFolder(lib.ID) {
				result.Unchanged++
				continue
			}
			next = policy.WithFolder(lib.ID)
		case Revoke:
			if !policy.HasFolder(lib.ID) {
				result.Unchanged++
				continue
			}
			next = policy.WithoutFolder(lib.ID)
		}

		fmt.Fprintf(report, "User: %s (%s) -> %s %s (%s)\n", user.Name, user.ID, action, lib.Name, lib.ID)

		if !r.Apply {
			result.Changed = append(result.Changed, user)
			continue
		}

		outcome, err := r.Service.UpdatePolicy(ctx, user.ID, next)
		if err != nil {
			result.Failures = append(result.Failures, Failure{User: user, Err: err})
			logger.Warn("policy update failed", "user", user.Name, "error", err)
			continue
		}
		if outcome == jellyfin.WriteFallback {
			result.Fallbacks++
		}
		result.Changed = append(result.Changed, user)
	}
	return result, nil
}
