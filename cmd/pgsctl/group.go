package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strictpgs/strictpgs/internal/logger"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage stand-alone groups",
}

var groupAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a stand-alone group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.AddStandAloneGroup(name); err != nil {
			db.Discard()
			return err
		}
		g, _ := db.LookupGroup(name)
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("added group %s with id %d", name, g.GID)
		return nil
	},
}

var groupDelCmd = &cobra.Command{
	Use:   "del NAME",
	Short: "Remove a stand-alone group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.RemoveStandAloneGroup(name); err != nil {
			db.Discard()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("removed group %s", name)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stand-alone groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSession(true)
		if err != nil {
			return err
		}
		defer db.Discard()

		for _, name := range db.StandAloneGroups() {
			g, _ := db.LookupGroup(name)
			if len(g.Members) > 0 {
				fmt.Printf("%s\t%d\t%s\n", name, g.GID, strings.Join(g.Members, ","))
			} else {
				fmt.Printf("%s\t%d\n", name, g.GID)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupAddCmd)
	groupCmd.AddCommand(groupDelCmd)
	groupCmd.AddCommand(groupListCmd)
}
