package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/eshaffer321/zenmoney-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/ledger"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

var (
	headerColor  = color.New(color.Bold)
	missingColor = color.New(color.FgRed)
	extraColor   = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
)

// PrintHeader prints the command banner
func PrintHeader(w io.Writer, command string, dryRun bool) {
	mode := "APPLY"
	if dryRun {
		mode = "DRY-RUN"
	}
	headerColor.Fprintf(w, "zenrecon: %s (%s mode)\n", command, mode)
}

// PrintBankReport prints the missing and extra sets of a bank run
func PrintBankReport(w io.Writer, report *reconcile.BankReport) {
	fmt.Fprintf(w, "Account: %s | Statement: %s .. %s\n\n", report.Account.Title, report.From, report.To)

	result := report.Result
	if len(result.MissingInLedger) > 0 {
		missingColor.Fprintf(w, "Missing in ledger (%d):\n", len(result.MissingInLedger))
		for _, bt := range result.MissingInLedger {
			fmt.Fprintf(w, "  %s  %10s  %s\n", bt.Date, ledger.AmountKey(bt.Amount), bt.Comment)
		}
		fmt.Fprintln(w)
	}
	if len(result.ExtraInLedger) > 0 {
		extraColor.Fprintf(w, "Extra in ledger (%d):\n", len(result.ExtraInLedger))
		for _, tx := range result.ExtraInLedger {
			fmt.Fprintf(w, "  %s  %10s  %s\n", tx.Date, ledger.AmountKey(ledger.NetAmount(tx, report.Account.ID)), describe(tx))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Matched=%d Missing=%d Extra=%d Created=%d\n",
		len(result.Matches),
		len(result.MissingInLedger),
		len(result.ExtraInLedger),
		len(report.Created))
	if t := report.Totals; t != nil {
		if t.Valid {
			fmt.Fprintf(w, "Totals agree: %s\n", ledger.AmountKey(t.BankSum))
		} else {
			extraColor.Fprintf(w, "Totals differ: %s\n", t.Reason)
		}
	}
	printOutcome(w, report.Outcome)
}

// PrintPeerReport prints the missed and extra debt records of a peer run
func PrintPeerReport(w io.Writer, report *reconcile.PeerReport, me, peer string) {
	fmt.Fprintf(w, "Debt accounts: %s (%s) <-> %s (%s)\n\n",
		report.MyDebtAccount.Title, me, report.TheirDebtAccount.Title, peer)

	result := report.Result
	if len(result.Missed) > 0 {
		missingColor.Fprintf(w, "Recorded by %s only (%d):\n", peer, len(result.Missed))
		for _, tx := range result.Missed {
			amount := matcher.TheirSettlementAmount(tx, report.TheirDebtAccount.ID)
			fmt.Fprintf(w, "  %s  %10s  %s\n", tx.Date, ledger.AmountKey(amount), describe(tx))
		}
		fmt.Fprintln(w)
	}
	if len(result.Extra) > 0 {
		extraColor.Fprintf(w, "Recorded by %s only (%d):\n", me, len(result.Extra))
		for _, tx := range result.Extra {
			amount := matcher.MySettlementAmount(tx, report.MyDebtAccount.ID)
			fmt.Fprintf(w, "  %s  %10s  %s\n", tx.Date, ledger.AmountKey(amount), describe(tx))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Matched=%d Missed=%d Extra=%d Created=%d\n",
		len(result.Matched),
		len(result.Missed),
		len(result.Extra),
		len(report.Created))
	printOutcome(w, report.Outcome)
}

// PrintRuns prints the run history as a table
func PrintRuns(w io.Writer, runs []storage.ReconcileRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tUSER\tTARGET\tSTARTED\tMISSING\tEXTRA\tMATCHED\tCREATED\tSTATUS")
	for _, r := range runs {
		target := r.AccountID
		if r.Kind == storage.RunKindPeer {
			target = r.Peer
		}
		status := r.Status
		if r.DryRun {
			status += " (dry-run)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Kind, r.Owner, target,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Counts.Missing, r.Counts.Extra, r.Counts.Matched, r.Counts.Created,
			statusColor(r.Status).Sprint(status))
	}
	_ = tw.Flush()
}

func printOutcome(w io.Writer, outcome reconcile.Outcome) {
	switch outcome {
	case reconcile.OutcomeInSync:
		okColor.Fprintln(w, "Ledgers are in sync.")
	case reconcile.OutcomeApplied:
		okColor.Fprintln(w, "Corrective entries pushed.")
	case reconcile.OutcomeDeclined:
		extraColor.Fprintln(w, "Skipped adding transactions.")
	case reconcile.OutcomeDryRun:
		fmt.Fprintln(w, "Dry run: nothing was pushed.")
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case storage.RunStatusCompleted:
		return okColor
	case storage.RunStatusFailed:
		return missingColor
	default:
		return extraColor
	}
}

func describe(tx ledger.Transaction) string {
	payee := tx.PayeeName()
	switch {
	case tx.Comment != "" && payee != "":
		return payee + " / " + tx.Comment
	case tx.Comment != "":
		return tx.Comment
	default:
		return payee
	}
}
