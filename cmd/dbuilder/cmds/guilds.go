package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

var guildsCmd = &cobra.Command{
	Use:   "guilds",
	Short: "Record whether the bot is in a guild",
}

var guildsMarkCmd = &cobra.Command{
	Use:   "mark TENANT",
	Short: "Mark the guild as joined",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkGuild(true),
}

var guildsUnmarkCmd = &cobra.Command{
	Use:   "unmark TENANT",
	Short: "Mark the guild as left",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkGuild(false),
}

func runMarkGuild(joined bool) func(cmd *cobra.Command, args []string) error {
	verb := "joined"
	if !joined {
		verb = "left"
	}
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		changed, err := a.registry.MarkGuild(cmd.Context(), args[0], joined)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), outcome(changed, verb))
		return nil
	}
}

func init() {
	guildsCmd.AddCommand(guildsMarkCmd, guildsUnmarkCmd)
}
