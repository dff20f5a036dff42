package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jellysweep/internal/grants"
	"jellysweep/internal/resolve"
)

func newAddLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-library <ID|NAME>",
		Short: "Grant a library to every user (dry-run unless --apply)",
		Args:  cobra.ExactArgs(1),
	}
	return configureGrantCommand(cmd, ctx, grants.Grant)
}

func newDelLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "del-library <ID|NAME>",
		Short: "Revoke a library from every user (dry-run unless --apply)",
		Args:  cobra.ExactArgs(1),
	}
	return configureGrantCommand(cmd, ctx, grants.Revoke)
}

func configureGrantCommand(cmd *cobra.Command, ctx *commandContext, action grants.Action) *cobra.Command {
	var apply bool

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := ctx.client()
		if err != nil {
			return err
		}

		users, catalog, err := fetchUsersAndLibraries(cmd.Context(), client)
		if err != nil {
			return err
		}

		resolution := resolve.Resolve(args[0], catalog)
		switch resolution.Kind {
		case resolve.NotFound:
			return fmt.Errorf("library %q not found (%d known)", args[0], len(catalog.Libraries))
		case resolve.Ambiguous:
			var lines []string
			for _, candidate := range resolution.Candidates {
				lines = append(lines, fmt.Sprintf("  - %s -> %s", candidate.ID, candidate.Name))
			}
			return fmt.Errorf("several libraries match %q:\n%s\nuse the exact ID to disambiguate", args[0], strings.Join(lines, "\n"))
		}
		lib := resolution.Library

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Target library: %s -> %s\n", lib.ID, lib.Name)

		if apply {
			cfg := ctx.configValue()
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			lock, err := grants.AcquireApplyLock(cfg.Paths.StateDir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()
		}

		runner := &grants.Runner{
			Service: client,
			Logger:  ctx.loggerValue(),
			Apply:   apply,
			Report:  out,
		}
		result, err := runner.Run(cmd.Context(), users, lib, action)
		if err != nil {
			return err
		}

		if apply {
			fmt.Fprintf(out, "\nApplied: %d updated, %d skipped (all access), %d already in place, %d errors.\n",
				len(result.Changed), result.SkippedAll, result.Unchanged, len(result.Failures))
		} else {
			fmt.Fprintf(out, "\nDry-run: %d users would change, %d skipped (all access), %d already in place. Use --apply to write.\n",
				len(result.Changed), result.SkippedAll, result.Unchanged)
		}

		if len(result.Failures) > 0 {
			for _, failure := range result.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "error updating %s (%s): %v\n", failure.User.Name, failure.User.ID, failure.Err)
			}
			if apply {
				return fmt.Errorf("%d of %d updates failed", len(result.Failures), len(users))
			}
		}
		return nil
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Perform the writes instead of reporting them")
	return cmd
}
