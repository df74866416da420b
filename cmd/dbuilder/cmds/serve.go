package cmds

import (
	"dbuilder/internal/api"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.withPlatform(); err != nil {
			return err
		}

		var platform api.Platform
		if a.platform != nil {
			platform = a.platform
		}
		h := api.NewHandler(a.names, a.assoc, a.registry, platform)
		stop, done := api.RunServerInterruptible(servePort, h)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case s := <-sig:
			log.WithField("signal", s.String()).Info("shutting down")
			stop <- struct{}{}
			return <-done
		case err := <-done:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
}
