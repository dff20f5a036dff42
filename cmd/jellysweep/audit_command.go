package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jellysweep/internal/audit"
	"jellysweep/internal/services/jellyfin"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report which users can see which libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			users, catalog, err := fetchUsersAndLibraries(cmd.Context(), client)
			if err != nil {
				return err
			}

			entries := make([]audit.Entry, 0, len(users))
			for _, user := range users {
				policy, err := client.UserPolicy(cmd.Context(), user.ID)
				if err != nil {
					// An unreadable policy should not sink the whole audit;
					// the user shows up with no access.
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: policy for %s unreadable: %v\n", user.Name, err)
					policy = jellyfin.Policy{}
				}
				entries = append(entries, audit.Entry{User: user, Policy: policy})
			}

			matrix, err := audit.BuildMatrix(cmd.Context(), entries, catalog, client)
			if err != nil {
				return fmt.Errorf("build access matrix: %w", err)
			}

			if len(matrix.UnknownFolderIDs) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: some enabled folder IDs could not be resolved:")
				for _, id := range matrix.UnknownFolderIDs {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", id)
				}
			}

			if outputPath != "" {
				return writeAuditCSV(outputPath, matrix, cmd)
			}

			rows := make([][]string, 0, len(matrix.Rows))
			for _, row := range matrix.Rows {
				rows = append(rows, []string{row.User, row.Library, yesNo(row.Access)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"User", "Library", "Access"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the matrix as CSV to this path")
	return cmd
}

func writeAuditCSV(path string, matrix *audit.Matrix, cmd *cobra.Command) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := audit.WriteCSV(file, matrix.Rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(matrix.Rows), path)
	return nil
}

// fetchUsersAndLibraries performs the two startup reads every server command
// needs. An empty user list almost always means a bad URL or API key.
func fetchUsersAndLibraries(ctx context.Context, client *jellyfin.Client) ([]jellyfin.User, jellyfin.Catalog, error) {
	users, err := client.Users(ctx)
	if err != nil {
		return nil, jellyfin.Catalog{}, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return nil, jellyfin.Catalog{}, errors.New("no users found; check the URL, API key, and permissions")
	}

	catalog, err := client.Libraries(ctx)
	if err != nil {
		return nil, jellyfin.Catalog{}, fmt.Errorf("list libraries: %w", err)
	}
	return users, catalog, nil
}
