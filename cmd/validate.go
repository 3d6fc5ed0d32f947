package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file, apply GEONET_* environment overrides and flags,
and print the effective settings without decoding anything.

Examples:
  geonet validate -c geonet.yml
  GEONET_OUTPUT_FORMAT=yaml geonet validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// loading and validation already happened in the root command
		fmt.Fprintf(cmd.OutOrStdout(), "VALID: gn version %d, output %s, %d worker(s), dedup %t, metrics %t\n",
			cfg.Station.ItsGnProtocolVersion,
			cfg.Output.Format,
			cfg.Pipeline.Workers,
			cfg.Dedup.Enabled,
			cfg.Metrics.Enabled,
		)
		return nil
	},
}
