package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account category",
	Long: `Print all user and group categories with their members, one
category per line, in the order the databases carry them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSession(true)
		if err != nil {
			return err
		}
		defer db.Discard()

		categories := []struct {
			label string
			names []string
		}{
			{"system users", db.SystemUsers()},
			{"normal users", db.NormalUsers()},
			{"software users", db.SoftwareUsers()},
			{"deprecated users", db.DeprecatedUsers()},
			{"system groups", db.SystemGroups()},
			{"per-user groups", db.PerUserGroups()},
			{"stand-alone groups", db.StandAloneGroups()},
			{"device groups", db.DeviceGroups()},
			{"software groups", db.SoftwareGroups()},
			{"deprecated groups", db.DeprecatedGroups()},
		}
		for _, c := range categories {
			fmt.Printf("%s:\t%s\n", c.label, strings.Join(c.names, " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
