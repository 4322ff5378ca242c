package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/zenmoney-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
)

func newSyncCommand(global *GlobalFlags, open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Log in if needed and download the latest changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			user, err := app.ResolveUser(global.User)
			if err != nil {
				return err
			}
			session, err := app.Session(user)
			if err != nil {
				return err
			}

			app.Logger.Info("Downloading data from Zenmoney", "user", user)
			if err := session.Sync(cmd.Context(), nil); err != nil {
				return err
			}

			accounts, err := session.GetAccounts(ledger.AccountFilter{})
			if err != nil {
				return err
			}
			txs, err := session.GetTransactions(ledger.Filter{})
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Synced %s: %d accounts, %d transactions\n", user, len(accounts), len(txs))
			return nil
		},
	}
}

func newBankCommand(global *GlobalFlags, open opener, in io.Reader) *cobra.Command {
	var flags BankFlags

	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Compare a bank statement (QIF or CSV) with one ledger account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			user, err := app.ResolveUser(global.User)
			if err != nil {
				return err
			}
			session, err := app.Session(user)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			PrintHeader(out, "bank", flags.DryRun)

			reconciler := reconcile.NewBankReconciler(session, app.Deps())
			report, err := reconciler.Reconcile(cmd.Context(), flags.ToRequest(NewPromptConfirmer(in, out)))
			if report != nil && report.Result != nil {
				PrintBankReport(out, report)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.AccountID, "account", "", "ledger account ID the statement belongs to (required)")
	cmd.Flags().StringVar(&flags.File, "file", "", "statement file, .qif or .csv (required)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "compare only, never push entries")
	cmd.Flags().BoolVar(&flags.Yes, "yes", false, "push missing entries without asking")
	cmd.Flags().BoolVar(&flags.Offline, "offline", false, "use the stored snapshot without syncing first")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPeerCommand(global *GlobalFlags, open opener, in io.Reader) *cobra.Command {
	var flags PeerFlags

	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Diff debt postings between two users and add what you missed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			req, err := flags.ToRequest(NewPromptConfirmer(in, out))
			if err != nil {
				return err
			}

			app, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			me, err := app.ResolveUser(global.User)
			if err != nil {
				return err
			}
			if me == flags.PeerUser {
				return fmt.Errorf("--peer-user must differ from %s", me)
			}
			mine, err := app.Session(me)
			if err != nil {
				return err
			}
			theirs, err := app.Session(flags.PeerUser)
			if err != nil {
				return err
			}

			PrintHeader(out, "peer", flags.DryRun)

			reconciler := reconcile.NewPeerReconciler(mine, theirs, app.Config.Reconcile.DebtAccountTitle, app.Deps())
			report, err := reconciler.Reconcile(cmd.Context(), req)
			if report != nil && report.Result != nil {
				PrintPeerReport(out, report, me, flags.PeerUser)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.PeerUser, "peer-user", "", "configured user to compare with (required)")
	cmd.Flags().StringVar(&flags.From, "from", "", "first date to compare, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&flags.To, "to", "", "last date to compare, YYYY-MM-DD (default: open)")
	cmd.Flags().StringVar(&flags.MyPayee, "my-payee", "", "payee naming the peer in my ledger (required)")
	cmd.Flags().StringVar(&flags.TheirPayee, "their-payee", "", "payee naming me in the peer's ledger (required)")
	cmd.Flags().StringVar(&flags.ExpenseAccount, "expense-account", "", "my account for the expense side of new debts (required)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "compare only, never push entries")
	cmd.Flags().BoolVar(&flags.Yes, "yes", false, "push missed entries without asking")
	cmd.Flags().BoolVar(&flags.Offline, "offline", false, "use the stored snapshots without syncing first")
	for _, name := range []string{"peer-user", "from", "my-payee", "their-payee", "expense-account"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newRunsCommand(open opener) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent reconciliation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			runs, err := app.Store.ListRuns(limit)
			if err != nil {
				return err
			}
			PrintRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
