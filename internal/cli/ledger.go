package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/report"
)

func init() {
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(reportCmd)

	cardCmd.Flags().Bool("plain", false, "Print raw markdown")
	cardCmd.Flags().Int("width", 100, "Word wrap width")

	reportCmd.Flags().String("currency", "", "Currency to report (required)")
	reportCmd.Flags().String("account", "", "Only count this account")
	reportCmd.Flags().String("code", "", "Only count this tax code")
	reportCmd.Flags().Float64("from", -1, "First day of the range")
	reportCmd.Flags().Float64("to", -1, "Last day of the range")
	reportCmd.Flags().Bool("relative", false, "Read --from and --to as days ago")
	reportCmd.Flags().Bool("rollup", false, "Report on an aggregate account instead of an owner")
	_ = reportCmd.MarkFlagRequired("currency")
}

// ─── tick ───────────────────────────────────────────────────────────────────

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one settlement pass over every ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, _, stop, err := startEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer stop()

		results, err := eng.TickAll(cmd.Context())
		for _, res := range results {
			line := fmt.Sprintf("%-16s voided=%d settled=%d paid=%d collected=%d",
				res.Owner, res.Voided, res.Settlements, res.Payouts, res.Collections)
			if res.TransferErr != nil {
				line += " error=" + res.TransferErr.Error()
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return err
	},
}

// ─── card ───────────────────────────────────────────────────────────────────

var cardCmd = &cobra.Command{
	Use:   "card OWNER",
	Short: "Show an owner's tax card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, stop, err := startEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer stop()

		l, err := eng.Lookup(args[0])
		if err != nil {
			return err
		}
		md := l.Markdown()

		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		width, _ := cmd.Flags().GetInt("width")
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
		if err != nil {
			return err
		}
		out, err := r.Render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// ─── log ────────────────────────────────────────────────────────────────────

var logCmd = &cobra.Command{
	Use:   "log OWNER",
	Short: "Print an owner's event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, stop, err := startEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer stop()

		l, err := eng.Lookup(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), l.Log().Render())
		return nil
	},
}

// ─── report ─────────────────────────────────────────────────────────────────

var reportCmd = &cobra.Command{
	Use:   "report NAME KIND",
	Short: "Query taxes, payments or rebates",
	Long: `Query the report of an owner, or of an aggregate account with --rollup.
KIND is one of taxes, payments or rebates. Without --from and --to the
running total is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	kind, err := report.ParseKind(args[1])
	if err != nil {
		return err
	}
	currency, _ := cmd.Flags().GetString("currency")
	account, _ := cmd.Flags().GetString("account")
	code, _ := cmd.Flags().GetString("code")
	from, _ := cmd.Flags().GetFloat64("from")
	to, _ := cmd.Flags().GetFloat64("to")
	relative, _ := cmd.Flags().GetBool("relative")
	rollup, _ := cmd.Flags().GetBool("rollup")

	eng, _, stop, err := startEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	var rep *report.Report
	if rollup {
		ru, err := eng.LookupRollup(args[0])
		if err != nil {
			return err
		}
		rep = ru.Report()
	} else {
		l, err := eng.Lookup(args[0])
		if err != nil {
			return err
		}
		rep = l.Report()
	}

	f := report.Filter{Account: account, Code: code, Range: dayRange(from, to, relative, rep.Today())}
	fmt.Fprintln(cmd.OutOrStdout(), taxledger.FormatCurrency(rep.Query(kind, currency, f), currency))
	return nil
}

// dayRange turns the --from/--to flags into a range. Negative values mean
// the flag was not set.
func dayRange(from, to float64, relative bool, today int) *report.Range {
	if from < 0 && to < 0 {
		return nil
	}
	if from < 0 {
		from = to
	}
	if to < 0 {
		to = from
	}
	var rng report.Range
	if relative {
		rng = report.Relative(today, from, to)
	} else {
		rng = report.Absolute(from, to)
	}
	return &rng
}
