// Package swarmgate assembles the swarmgate command tree and service
// wiring.
package swarmgate

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/datafund/swarmgate/internal/swarmgate/config"
	"github.com/datafund/swarmgate/internal/swarmgate/options"
	"github.com/datafund/swarmgate/internal/swarmgate/tools"
	"github.com/datafund/swarmgate/pkg/utils/json"
	"github.com/datafund/swarmgate/pkg/version"
)

const bannerText = `
  ____                                          _
 / ___|_      ____ _ _ __ _ __ ___   __ _  __ _| |_ ___
 \___ \ \ /\ / / _' | '__| '_ ' _ \ / _' |/ _' | __/ _ \
  ___) \ V  V / (_| | |  | | | | | | (_| | (_| | ||  __/
 |____/ \_/\_/ \__,_|_|  |_| |_| |_|\__, |\__,_|\__\___|
                                    |___/

        Swarm stamps and storage over MCP
`

// NewSwarmGateCommand creates the `swarmgate` root command.
func NewSwarmGateCommand() *cobra.Command {
	opts := options.NewOptions()

	cmds := &cobra.Command{
		Use:   "swarmgate",
		Short: "swarmgate bridges MCP tool calls to a Swarm storage gateway",
		Long: heredoc.Doc(`
			swarmgate is an MCP (Model Context Protocol) stdio server that exposes
			Swarm postage stamp management and small-blob storage as callable tools.

			Each tool invocation is translated into a single HTTP call against the
			configured swarm_connect gateway, with bounded retries, per-attempt
			timeouts and a stable error taxonomy. The adapter itself is stateless;
			the gateway owns all stamp and data lifecycle.

			Run without arguments to serve MCP on stdin/stdout. Configuration comes
			from flags or environment (SWARM_GATEWAY_URL, DEFAULT_STAMP_AMOUNT, ...).`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			cfg, err := config.CreateConfigFromOptions(opts)
			if err != nil {
				return err
			}

			// Banner goes to stderr; stdout is the MCP transport.
			color.New(color.FgCyan).Fprint(os.Stderr, bannerText)
			return Run(cfg)
		},
	}

	opts.AddFlags(cmds.PersistentFlags())

	cmds.AddCommand(newToolsCommand(opts))
	cmds.AddCommand(newVersionCommand())

	return cmds
}

// newToolsCommand lists the tool catalog without starting the server.
func newToolsCommand(opts *options.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools exposed by this server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 80
			table.Wrap = true
			table.AddRow("NAME", "DESCRIPTION")
			for _, t := range tools.Catalog(tools.Defaults{
				StampAmount: opts.Stamp.DefaultAmount,
				StampDepth:  opts.Stamp.DefaultDepth,
				StampID:     opts.Stamp.DefaultID,
			}) {
				table.AddRow(t.Name, t.Description)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(version.Get(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
