// Command gagyebu-cli runs ledger maintenance against the configured backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"gagyebu/internal/cli"
	"gagyebu/internal/config"
	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/services"
	"gagyebu/internal/session"
)

const usage = `usage: gagyebu-cli <command> [flags]

commands:
  summary        -owner ID -month YYYY-MM
  reset-month    -owner ID -month YYYY-MM -yes
  reset-history  -owner ID -cutover YYYY-MM -yes
  token          -owner ID [-ttl 24h]
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("gagyebu-cli")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg := cli.LoadAndValidateConfig(logger, nil)

	ctx := context.Background()
	if err := run(ctx, logger, cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		var partial *core.PartialBatchFailure
		if errors.As(err, &partial) {
			fmt.Fprintf(os.Stderr, "%v\nre-run the same command to finish\n", err)
			os.Exit(3)
		}
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		cli.Fatal(logger, "Command failed", err)
	}
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	owner := fs.String("owner", "", "owner id")
	month := fs.String("month", "", "month (YYYY-MM)")
	cutover := fs.String("cutover", "", "cutover month (YYYY-MM)")
	yes := fs.Bool("yes", false, "confirm a destructive operation")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return errors.New("-owner is required")
	}

	if cmd == "token" {
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		token, err := session.NewVerifier(cfg.JWTSecret).Issue(*owner, *ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, token)
		return nil
	}

	app, err := cli.Wire(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case "summary":
		k, err := core.ParseMonthKey(*month)
		if err != nil {
			return err
		}
		view, err := app.Ledger.MonthView(ctx, *owner, k)
		if err != nil {
			return err
		}
		return printSummary(out, view)
	case "reset-month":
		k, err := core.ParseMonthKey(*month)
		if err != nil {
			return err
		}
		n, err := app.Transactions.ResetMonth(ctx, *owner, k, services.ResetOptions{Confirmed: *yes})
		if err != nil {
			return confirmHint(err)
		}
		fmt.Fprintf(out, "deleted %d transactions in %s\n", n, k)
	case "reset-history":
		res, err := app.FixedItems.ResetHistory(ctx, *owner, core.MonthKey(*cutover), services.ResetOptions{Confirmed: *yes})
		if err != nil {
			return confirmHint(err)
		}
		fmt.Fprintf(out, "deleted %d closed versions, moved %d open items to %s (%d chunks)\n",
			res.Deleted, res.Rewritten, *cutover, res.Chunks)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	return nil
}

func confirmHint(err error) error {
	if errors.Is(err, core.ErrConfirmationRequired) {
		return fmt.Errorf("%w: pass -yes", err)
	}
	return err
}

func printSummary(out io.Writer, view core.MonthView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "month\t%s\t\n", view.MonthKey)
	fmt.Fprintf(tw, "income\t%s\t\n", core.FormatAmount(view.Stats.Income))
	fmt.Fprintf(tw, "expense\t%s\t\n", core.FormatAmount(view.Stats.Expense))
	fmt.Fprintf(tw, "%s\t%s\t\n", view.BalanceLabel, core.FormatAmount(view.Stats.Balance))
	fmt.Fprintln(tw, "\t\t")
	for _, m := range view.Comparison {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", m.MonthKey,
			core.FormatAmount(m.Income), core.FormatAmount(m.Expense), core.FormatAmount(m.Net))
	}
	return tw.Flush()
}
