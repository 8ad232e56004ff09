package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/internal/container"
	"github.com/oksasatya/invest-payout-engine/internal/domain/payout"
)

// quoteCmd needs no infrastructure: pricing is pure.
func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote [amount]",
		Short: "Project the returns of a principal over the full term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive integer in minor units: %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), payout.Project(amount))
		},
	}
}

func payoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout [investment-id]",
		Short: "Process the next monthly payout of an investment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			svc := container.GetInvestmentService()
			var res *application.PayoutResult
			if due, _ := cmd.Flags().GetBool("due-only"); due {
				res, err = svc.ProcessDuePayout(cmd.Context(), args[0])
			} else {
				res, err = svc.ProcessMonthlyPayout(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Bool("due-only", false, "Refuse unless the next payment date has passed")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Pay every investment whose payment date has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := container.GetInvestmentService().SweepDuePayouts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair the investment index and owner aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := container.GetInvestmentService().Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
}

func setStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status [investment-id] [active|paused|cancelled]",
		Short: "Change the lifecycle status of an investment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			inv, err := container.GetInvestmentService().SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), inv)
		},
	}
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			a, err := container.GetAccountService().CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin: id=%s email=%s\n", a.ID, a.Email)
			return nil
		},
	}
	cmd.Flags().StringP("name", "n", "Administrator", "Display name")
	cmd.Flags().StringP("email", "e", "", "Login e-mail")
	cmd.Flags().StringP("password", "p", "", "Initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
