package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List libraries (ID and name)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			catalog, err := client.Libraries(cmd.Context())
			if err != nil {
				return fmt.Errorf("list libraries: %w", err)
			}

			libraries := catalog.Libraries
			sort.Slice(libraries, func(i, j int) bool {
				return strings.ToLower(libraries[i].Name) < strings.ToLower(libraries[j].Name)
			})

			rows := make([][]string, 0, len(libraries))
			for _, lib := range libraries {
				rows = append(rows, []string{lib.ID, lib.Name})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"ID", "Name"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
