// Command tz-wrapped-backend is the composition root: it loads process
// configuration, constructs a node.Client for the selected node endpoint
// (or the first configured one when none is selected), and wires the
// operation.Service and notify.LoggingNotifier together.
// The HTTP surface itself is an external collaborator with a defined
// interface only; this binary stops at constructing the service layer a
// router would call into.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/airgap-it/tz-wrapped-backend/config"
	"github.com/airgap-it/tz-wrapped-backend/node"
	"github.com/airgap-it/tz-wrapped-backend/notify"
	"github.com/airgap-it/tz-wrapped-backend/operation"
	"github.com/echa/log"
)

func main() {
	if err := run(); err != nil {
		log.Log.Errorf("%s", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML settings document")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	selected, err := selectedNode(settings)
	if err != nil {
		return err
	}
	nodeClient := node.New(selected.URL)
	nodeClient.Log = log.Log

	// store.* repositories are an external collaborator specified only by
	// interface. A real deployment supplies concrete implementations here
	// before constructing operation.Service; this composition root
	// demonstrates the wiring shape without fabricating a database.
	_ = &operation.Service{
		NodeClient: nodeClient,
		Notifier:   notify.NewLoggingNotifier(),
	}

	log.Log.Infof("tz-wrapped-backend starting: domain=%s contracts=%d node=%s (%s)",
		settings.Domain, len(settings.Contracts), selected.Name, selected.URL)
	return nil
}

func selectedNode(settings *config.Settings) (config.NodeSettings, error) {
	for _, n := range settings.Nodes {
		if n.Selected {
			return n, nil
		}
	}
	if len(settings.Nodes) > 0 {
		return settings.Nodes[0], nil
	}
	return config.NodeSettings{}, fmt.Errorf("no node endpoints configured")
}
