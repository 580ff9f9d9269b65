package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/infra/initializer"
	"github.com/amirasaad/corebank/pkg/app"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/service/accountsync"
	ledgerweb "github.com/amirasaad/corebank/webapi/ledger"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  balance <account>
  audit <account> [from] [to]
  reconcile <account>
  sync <account> <customer> <currency> [type]
  status <account> <status> [reason]`

// interactive is set when stdout is a terminal.
var interactive bool

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func main() {
	interactive = term.IsTerminal(int(os.Stdout.Fd()))
	color.NoColor = !interactive
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		os.Exit(1)
	}
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		fmt.Println("Failed to initialize dependencies:", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := runCommand(ctx, app.New(deps, cfg), os.Stdout, os.Args[1:]); err != nil {
		failColor.Println("Error:", err)
		cancel()
		cleanup()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	switch args[0] {
	case "balance":
		if len(args) < 2 {
			return fmt.Errorf("usage: balance <account>")
		}
		b, err := a.Ledger.GetBalance(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s balance=%s hold=%s available=%s status=%s\n",
			b.AccountNumber, b.Currency, b.Balance, b.HoldAmount, b.AvailableBalance, b.Status)
	case "audit":
		if len(args) < 2 {
			return fmt.Errorf("usage: audit <account> [from] [to]")
		}
		var from, to time.Time
		var err error
		if len(args) > 2 {
			if from, err = ledgerweb.ParseTime(args[2]); err != nil {
				return err
			}
		}
		if len(args) > 3 {
			if to, err = ledgerweb.ParseTime(args[3]); err != nil {
				return err
			}
		}
		entries, err := a.Ledger.AuditByAccount(ctx, args[1], from, to)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s %-8s %14s %14s -> %14s %s by %s\n",
				e.OperationTime.Format(time.RFC3339), e.OperationType, e.Amount,
				e.PreviousBalance, e.NewBalance, e.TransactionReference, e.PerformedBy)
		}
	case "reconcile":
		if len(args) < 2 {
			return fmt.Errorf("usage: reconcile <account>")
		}
		report, err := a.Ledger.Reconcile(ctx, args[1])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		if interactive {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(report); err != nil {
			return err
		}
		if report.Consistent() {
			okColor.Fprintln(out, "consistent")
		} else {
			failColor.Fprintf(out, "%d violation(s)\n", len(report.Violations))
		}
	case "sync":
		if len(args) < 4 {
			return fmt.Errorf("usage: sync <account> <customer> <currency> [type]")
		}
		req := accountsync.SyncRequest{AccountNumber: args[1], CustomerRef: args[2], Currency: strings.ToUpper(args[3])}
		if len(args) > 4 {
			req.Type = ledger.Type(strings.ToUpper(args[4]))
		}
		res, err := a.Sync.Sync(ctx, req)
		if err != nil {
			return err
		}
		if res.AlreadySynced {
			fmt.Fprintf(out, "Account %s already synced (%s)\n", res.AccountNumber, res.Status)
			return nil
		}
		fmt.Fprintf(out, "Account %s synced for %s in %s\n", res.AccountNumber, res.CustomerRef, res.Currency)
	case "status":
		if len(args) < 3 {
			return fmt.Errorf("usage: status <account> <status> [reason]")
		}
		reason := strings.Join(args[3:], " ")
		res, err := a.Sync.UpdateStatus(ctx, args[1], ledger.Status(strings.ToUpper(args[2])), reason)
		if err != nil {
			return err
		}
		c := okColor
		if res.Current != ledger.StatusActive {
			c = failColor
		}
		c.Fprintf(out, "Account %s: %s -> %s (changed=%t)\n", res.AccountNumber, res.Previous, res.Current, res.Changed)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return nil
}
