package commands

import "github.com/spf13/cobra"

// NewRootCommand assembles the iznik-probe command tree.
func NewRootCommand(version string) *cobra.Command {
	global := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "iznik-probe",
		Short: "Exercise the Freegle API request layer from the command line",
		Long: `iznik-probe sends requests to the Freegle backend through the same request
layer applications use, so retries, outcome classification and error reporting
behave exactly as they do in production.

Configuration comes from config.yaml, config.<env>.yaml and environment
variables (API_BASE, API_TIMEOUT, REPORT_SINK, LOG_LEVEL, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&global.ConfigFile, "config", "c", "", "Config file (default: config.yaml and config.<env>.yaml in the working directory)")
	root.PersistentFlags().StringVar(&global.BaseURL, "base", "", "API base URL, overriding configuration")
	root.PersistentFlags().StringVar(&global.Env, "env", "", "Environment (production|development|debug)")

	root.AddCommand(
		NewRequestCommand(global),
		NewEventsCommand(global),
		NewVersionCommand(version),
	)
	return root
}
