// Package cli wires the zenrecon commands.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/config"
)

// NewRootCommand builds the zenrecon command tree. Prompts read from in
// and reports go to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	var flags GlobalFlags

	root := &cobra.Command{
		Use:   "zenrecon",
		Short: "Reconcile Zenmoney ledgers against bank statements and each other",
		Long: `zenrecon keeps a local snapshot of one or more Zenmoney ledgers and
reconciles them.

  zenrecon sync --user alice
  zenrecon bank --user alice --account <id> --file statement.qif
  zenrecon peer --user alice --peer-user bob --from 2025-06-01 \
      --my-payee Bob --their-payee Alice --expense-account <id>
  zenrecon runs
  zenrecon serve`,
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "config.yaml", "config file (falls back to environment variables)")
	root.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flags.User, "user", "", "configured user to act as (default: the only configured user)")

	open := func() (*App, error) {
		return NewApp(config.LoadOrEnv_WithPath(flags.ConfigPath), flags)
	}

	root.AddCommand(
		newSyncCommand(&flags, open),
		newBankCommand(&flags, open, in),
		newPeerCommand(&flags, open, in),
		newRunsCommand(open),
		newServeCommand(open),
	)
	return root
}

// opener builds the App for a command invocation.
type opener func() (*App, error)
