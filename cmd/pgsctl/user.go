package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/strictpgs/strictpgs/internal/logger"
)

var passwordFromStdin bool

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage normal users",
}

var userAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a normal user",
	Long: `Create a normal user: a passwd entry with the first free id, a
per-user group of the same name, a shadow entry with the hashed
password, and a subordinate id block in subuid and subgid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		password, err := readPassword(true)
		if err != nil {
			return err
		}

		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.AddNormalUser(name, password); err != nil {
			db.Discard()
			return err
		}
		u, _ := db.LookupUser(name)
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("added user %s with id %d", name, u.UID)
		return nil
	},
}

var userDelCmd = &cobra.Command{
	Use:   "del NAME",
	Short: "Remove a normal user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.RemoveNormalUser(name); err != nil {
			db.Discard()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("removed user %s", name)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd NAME",
	Short: "Set the password of a normal user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		password, err := readPassword(true)
		if err != nil {
			return err
		}

		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.SetPassword(name, password); err != nil {
			db.Discard()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("set password for user %s", name)
		return nil
	},
}

var userJoinCmd = &cobra.Command{
	Use:   "join NAME GROUP",
	Short: "Add a normal user to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, group := args[0], args[1]
		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.JoinGroup(name, group); err != nil {
			db.Discard()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("user %s joined group %s", name, group)
		return nil
	},
}

var userLeaveCmd = &cobra.Command{
	Use:   "leave NAME GROUP",
	Short: "Remove a normal user from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, group := args[0], args[1]
		db, err := openSession(false)
		if err != nil {
			return err
		}
		if err := db.LeaveGroup(name, group); err != nil {
			db.Discard()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		logger.Info("user %s left group %s", name, group)
		return nil
	},
}

var userCheckPasswordCmd = &cobra.Command{
	Use:   "check-password NAME",
	Short: "Verify a password against the stored hash",
	Long: `Check a candidate password against the stored shadow hash of a
normal user. Needs no lock and changes nothing. A locked account or a
hash in a format this tool does not produce never verifies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		password, err := readPassword(false)
		if err != nil {
			return err
		}

		db, err := openSession(true)
		if err != nil {
			return err
		}
		defer db.Discard()

		if err := db.CheckPassword(name, password); err != nil {
			return err
		}
		fmt.Println("password verified")
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List normal users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSession(true)
		if err != nil {
			return err
		}
		defer db.Discard()

		for _, name := range db.NormalUsers() {
			u, _ := db.LookupUser(name)
			groups, err := db.SecondaryGroups(name)
			if err != nil {
				return err
			}
			if len(groups) > 0 {
				fmt.Printf("%s\t%d\t%s\n", name, u.UID, strings.Join(groups, ","))
			} else {
				fmt.Printf("%s\t%d\n", name, u.UID)
			}
		}
		return nil
	},
}

// readPassword prompts on the terminal, or takes one line from stdin
// when --stdin is given.
func readPassword(confirm bool) (string, error) {
	if passwordFromStdin {
		sc := bufio.NewScanner(os.Stdin)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("no password on stdin")
		}
		return sc.Text(), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Retype password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userDelCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userJoinCmd)
	userCmd.AddCommand(userLeaveCmd)
	userCmd.AddCommand(userCheckPasswordCmd)
	userCmd.AddCommand(userListCmd)

	userAddCmd.Flags().BoolVar(&passwordFromStdin, "stdin", false, "read the password from standard input")
	userPasswdCmd.Flags().BoolVar(&passwordFromStdin, "stdin", false, "read the password from standard input")
	userCheckPasswordCmd.Flags().BoolVar(&passwordFromStdin, "stdin", false, "read the password from standard input")
}
