package main

import (
	"dbuilder/cmd/dbuilder/cmds"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := cmds.Execute(); err != nil {
		log.WithError(err).Error("dbuilder failed")
		os.Exit(1)
	}
}
