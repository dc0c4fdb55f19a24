package main

import (
	"os"

	"github.com/datafund/swarmgate/internal/swarmgate"
	"github.com/datafund/swarmgate/pkg/logger"
)

func main() {
	cmd := swarmgate.NewSwarmGateCommand()
	if err := cmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
