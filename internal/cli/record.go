package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xraph/taxledger"
)

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(recordDebtCmd)
	recordCmd.AddCommand(recordRebateCmd)
	recordCmd.AddCommand(recordPaymentCmd)

	for _, c := range []*cobra.Command{recordDebtCmd, recordRebateCmd, recordPaymentCmd} {
		c.Flags().String("code", "", "Tax code")
		c.Flags().String("scope", "", "Jurisdiction")
	}
	recordDebtCmd.Flags().Bool("transfer", false, "Record a transfer instead of a tax")
	recordDebtCmd.Flags().Bool("suspended", false, "Hold the debt until resumed")
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record debts, rebates and payments",
}

// ─── record debt ────────────────────────────────────────────────────────────

var recordDebtCmd = &cobra.Command{
	Use:   "debt OWNER TARGET AMOUNT CURRENCY",
	Short: "Record a tax or transfer owed to TARGET",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		transfer, _ := cmd.Flags().GetBool("transfer")
		suspended, _ := cmd.Flags().GetBool("suspended")
		d := taxledger.Debt{
			Scope:      scopeFlag(cmd),
			Target:     args[1],
			Currency:   args[3],
			Code:       codeFlag(cmd),
			Amount:     amount,
			IsTransfer: transfer,
			Suspended:  suspended,
		}
		return record(cmd, args[0], func(eng *taxledger.Engine) (bool, error) {
			return eng.RecordDebt(cmd.Context(), args[0], d)
		})
	},
}

// ─── record rebate ──────────────────────────────────────────────────────────

var recordRebateCmd = &cobra.Command{
	Use:   "rebate OWNER TARGET AMOUNT CURRENCY",
	Short: "Record a rebate against taxes owed to TARGET",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		r := taxledger.Rebate{
			Scope:    scopeFlag(cmd),
			Target:   args[1],
			Currency: args[3],
			Code:     codeFlag(cmd),
			Amount:   amount,
		}
		return record(cmd, args[0], func(eng *taxledger.Engine) (bool, error) {
			return eng.RecordRebate(cmd.Context(), args[0], r)
		})
	},
}

// ─── record payment ─────────────────────────────────────────────────────────

var recordPaymentCmd = &cobra.Command{
	Use:   "payment OWNER SOURCE AMOUNT CURRENCY",
	Short: "Record a payment owed to OWNER by SOURCE",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		p := taxledger.PaymentCredit{
			Scope:    scopeFlag(cmd),
			Source:   args[1],
			Currency: args[3],
			Code:     codeFlag(cmd),
			Amount:   amount,
		}
		return record(cmd, args[0], func(eng *taxledger.Engine) (bool, error) {
			return eng.RecordPayment(cmd.Context(), args[0], p)
		})
	},
}

func record(cmd *cobra.Command, owner string, fn func(*taxledger.Engine) (bool, error)) error {
	eng, _, stop, err := startEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	recorded, err := fn(eng)
	if err != nil {
		return err
	}
	if !recorded {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing recorded: amount is negligible")
		return nil
	}
	l, err := eng.Lookup(owner)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), l.Card().Summary())
	return nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

func scopeFlag(cmd *cobra.Command) string {
	s, _ := cmd.Flags().GetString("scope")
	return s
}

func codeFlag(cmd *cobra.Command) string {
	s, _ := cmd.Flags().GetString("code")
	return s
}
