package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strictpgs/strictpgs/internal/config"
	"github.com/strictpgs/strictpgs/internal/logger"
	"github.com/strictpgs/strictpgs/pkg/pgs"
)

var (
	// Global flags
	cfgFile   string
	dirPrefix string
	source    string
)

var rootCmd = &cobra.Command{
	Use:   "pgsctl",
	Short: "Strict account database manager",
	Long: `pgsctl keeps passwd, group, shadow, gshadow, subuid and subgid
consistent with a strict site policy: a pinned set of system users and
groups, one group and one subordinate id block per normal user, empty
comment fields, and no secondary memberships for root.

Every mutating command locks the databases, applies the change to an
in-memory copy, repairs whatever else deviates from the policy, and
atomically rewrites all six files with a backup of each.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pgsctl:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", getenvDefault("PGSCTL_CONFIG", config.DefaultPath()), "config file path")
	rootCmd.PersistentFlags().StringVar(&dirPrefix, "prefix", getenvDefault("PGSCTL_PREFIX", ""), "directory prefix of the account databases")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "agent name for the managed-by marker")
}

// loadSettings merges the config file with flag and environment
// overrides.
func loadSettings() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if dirPrefix != "" {
		cfg.DirPrefix = dirPrefix
	}
	if source != "" {
		cfg.Source = source
	}
	if cfg.LogDir != "" {
		if err := logger.Init(cfg.LogDir); err != nil {
			return cfg, fmt.Errorf("init logging: %w", err)
		}
	}
	return cfg, nil
}

func openSession(readOnly bool) (*pgs.DB, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return pgs.Open(pgs.Options{
		DirPrefix: cfg.DirPrefix,
		ReadOnly:  readOnly,
		Source:    cfg.Source,
	})
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
