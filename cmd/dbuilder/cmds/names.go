package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Manage the custom names of a guild",
}

var namesAddCmd = &cobra.Command{
	Use:   "add TENANT NAME",
	Short: "Add a custom name to the pool",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		added, err := a.names.Allocator.AddCustom(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), outcome(added, "added"))
		return nil
	},
}

var namesRemoveCmd = &cobra.Command{
	Use:   "remove TENANT NAME",
	Short: "Withdraw a custom name from the pool",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		removed, err := a.names.Allocator.RemoveCustom(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), outcome(removed, "removed"))
		return nil
	},
}

var namesListCmd = &cobra.Command{
	Use:   "list TENANT",
	Short: "List the custom names of a guild, one per line with its in-use flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		cursor := ""
		for {
			page, err := a.names.Allocator.ListCustom(cmd.Context(), args[0], cursor)
			if err != nil {
				return err
			}
			for _, it := range page.Items {
				state := "free"
				if it.InUse {
					state = "in-use"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", it.Name, state)
			}
			if page.Cursor == "" {
				return nil
			}
			cursor = page.Cursor
		}
	},
}

func outcome(changed bool, verb string) string {
	if changed {
		return verb
	}
	return "unchanged"
}

func init() {
	namesCmd.AddCommand(namesAddCmd, namesRemoveCmd, namesListCmd)
}
