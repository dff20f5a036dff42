package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var server serverFlags
	var configFlag string
	var verboseFlag bool

	ctx := newCommandContext(&server, &configFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "jellysweep",
		Short:         "Audit and edit Jellyfin library access",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&server.url, "url", "", "Jellyfin base URL (e.g. http://10.0.0.2:8096)")
	rootCmd.PersistentFlags().StringVar(&server.apiKey, "api-key", "", "Jellyfin API key (X-Emby-Token)")
	rootCmd.PersistentFlags().BoolVar(&server.insecure, "insecure", false, "Skip TLS certificate verification")
	rootCmd.PersistentFlags().IntVar(&server.timeout, "timeout", 0, "Network timeout in seconds (default 20)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newAddLibraryCommand(ctx))
	rootCmd.AddCommand(newDelLibraryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
