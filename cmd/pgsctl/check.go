package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strictpgs/strictpgs/internal/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the account databases against the policy",
	Long: `Load the account databases and verify them without touching the
files. Structural damage and policy deviations are reported through the
exit status; a consistent database prints nothing but a confirmation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSession(true)
		if err != nil {
			return err
		}
		defer db.Discard()

		if err := db.VerifyStructure(); err != nil {
			return fmt.Errorf("structural damage, not automatically repairable: %w", err)
		}
		if err := db.VerifyPolicy(); err != nil {
			return fmt.Errorf("policy deviation, repairable with pgsctl fix: %w", err)
		}
		fmt.Println("account databases are consistent")
		return nil
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair fixable deviations and rewrite the databases",
	Long: `Lock the account databases, repair every deviation that has a
deterministic fix (ordering, comments, software user hygiene, stray or
missing derived entries), and atomically rewrite all six files with a
backup of each. Structural damage cannot be repaired and aborts the
command before anything is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("account databases fixated and rewritten")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
}
