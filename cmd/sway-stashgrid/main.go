package main

import (
	"os"

	"github.com/pancsta/sway-stashgrid/internal/cmds"
	"github.com/pancsta/sway-stashgrid/internal/logging"
)

func main() {
	logger := logging.NewFromConfigValues(os.Getenv("STASHGRID_LOG_LEVEL"), "console")

	// start the root command
	err := cmds.GetRootCmd(logger).Execute()
	if err != nil {
		logger.Fatal().Err(err).Msg("sway-stashgrid")
	}
}
