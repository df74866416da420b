// Package cmds holds the dbuilder command line: the API server and the admin commands that operate on the
// same Redis state.
package cmds

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dbuilder",
	Short: "Channel name pool and platform gateway for Discord guilds",
	Long: `dbuilder hands out human readable channel names per guild, remembers which channel got which name,
and returns names to the pool when channels go away. It also proxies guild and channel listings from the
platform API with cached, self-refreshing user credentials.

Configuration is read from the environment; a .env file (or $ENV_FILE) is loaded first when present.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadEnv()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, namesCmd, guildsCmd)
}

func loadEnv() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Debugf("env file %s not loaded: %v", envFile, err)
	}
}
