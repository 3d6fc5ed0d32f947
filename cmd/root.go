// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/geonet/internal/config"
	"firestige.xyz/geonet/internal/log"
)

var (
	// Global flags
	configFile string
	logLevel   string
	format     string
	gnVersion  uint8

	// cfg is loaded by the root command before any subcommand runs
	cfg *config.GlobalConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geonet",
	Short: "geonet - ETSI ITS GeoNetworking decoder",
	Long: `geonet decodes ETSI ITS GeoNetworking frames received over ITS-G5.
It walks the Basic Header, the optional security envelope, the Common Header and
the geo-addressed extended headers, hands BTP payloads to the DENM decoder and
prints one record per decoded frame.

Frames come from hex dumps (decode) or from pcap/pcapng captures (replay).`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := log.Init(&loaded.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults and GEONET_* environment when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log level (trace/debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "",
		"override output format (json/yaml/pb)")
	rootCmd.PersistentFlags().Uint8Var(&gnVersion, "gn-version", 0,
		"override accepted GeoNetworking protocol version")

	// Add subcommands
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.GlobalConfig, error) {
	loaded, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("format") {
		loaded.Output.Format = format
	}
	if flags.Changed("gn-version") {
		loaded.Station.ItsGnProtocolVersion = gnVersion
	}
	if err := loaded.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return loaded, nil
}

