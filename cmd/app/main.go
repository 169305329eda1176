package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"TradePilot/internal/di"
	"TradePilot/internal/domain/models"
	"TradePilot/internal/services/tax"
	"TradePilot/pkg/config"
)

var cfg *config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tradepilot",
		Short:         "Paper trading engine for NSE/BSE equities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			c, err := config.LoadWithEnv(path)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			cfg = c
			return nil
		},
	}
	root.PersistentFlags().String("config", "config/config.yaml", "config file path")

	root.AddCommand(newServeCmd(), newTaxCmd(), newStatusCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the trading session, REST API and price stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}

func newTaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tax <BUY|SELL> <price> <qty>",
		Short:   "Print the regulatory cost breakdown of a trade",
		Example: "  tradepilot tax BUY 2450.50 10",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTaxBreakdown(cmd.OutOrStdout(), args[0], args[1], args[2])
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the exchange session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := di.ProvideCalendar(cfg)
			if err != nil {
				return err
			}
			st := cal.Describe(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", st.Text, st.AsOf)
			return nil
		},
	}
}

func printTaxBreakdown(w io.Writer, actionArg, priceArg, qtyArg string) error {
	action := models.Action(strings.ToUpper(actionArg))
	if !action.Valid() {
		return fmt.Errorf("action must be BUY or SELL, got %q", actionArg)
	}
	price, err := decimal.NewFromString(priceArg)
	if err != nil || !price.IsPositive() {
		return fmt.Errorf("price must be a positive number, got %q", priceArg)
	}
	qty, err := strconv.Atoi(qtyArg)
	if err != nil || qty <= 0 {
		return fmt.Errorf("qty must be a positive integer, got %q", qtyArg)
	}

	b := tax.Calculate(action, price.InexactFloat64(), qty)
	turnover := price.Mul(decimal.NewFromInt(int64(qty)))
	total := decimal.NewFromFloat(b.Total)
	net := turnover.Add(total)
	if action == models.ActionSell {
		net = turnover.Sub(total)
	}

	rows := []struct {
		label string
		v     decimal.Decimal
	}{
		{"Turnover", turnover},
		{"STT", decimal.NewFromFloat(b.STT)},
		{"Stamp duty", decimal.NewFromFloat(b.StampDuty)},
		{"GST", decimal.NewFromFloat(b.GST)},
		{"Other charges", decimal.NewFromFloat(b.Other)},
		{"Total charges", total},
		{"Net amount", net},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-14s %12s\n", r.label, r.v.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}
