// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/editalproj/edital-mcp/internal/ledger"
)

func ledgerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Record and inspect completed analyses",
		Long: `Manage the append-only ledger of completed analyses.

Each document name can be registered once. The ledger is a CSV file or a
PostgreSQL table, selected by ledger.backend. Registration is not safe for
concurrent writers; run one registering process at a time.

Examples:
  edital-mcp ledger register --document edital_001.pdf --requirements 42 --status CONCLUIDO --execution-time 2m30s
  edital-mcp ledger list
  edital-mcp ledger show 3`,
	}

	cmd.AddCommand(ledgerRegisterCmd(a))
	cmd.AddCommand(ledgerListCmd(a))
	cmd.AddCommand(ledgerShowCmd(a))

	return cmd
}

func ledgerRegisterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a completed analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			document, _ := cmd.Flags().GetString("document")
			requirements, _ := cmd.Flags().GetInt("requirements")
			status, _ := cmd.Flags().GetString("status")
			elapsed, _ := cmd.Flags().GetDuration("execution-time")
			delivery, _ := cmd.Flags().GetString("delivery")

			l, closeStore, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			entry, err := l.Register(cmd.Context(), ledger.Registration{
				DocumentName:     document,
				RequirementCount: requirements,
				Status:           status,
				ExecutionTime:    elapsed,
				DeliveryPath:     delivery,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered analysis %d: %s\n", entry.ID, entry.DocumentName)
			return nil
		},
	}

	cmd.Flags().String("document", "", "Document name (unique key)")
	cmd.Flags().Int("requirements", 0, "Number of extracted requirements")
	cmd.Flags().String("status", "CONCLUIDO", "Analysis status")
	cmd.Flags().Duration("execution-time", 0, "Elapsed analysis time, e.g. 2m30s")
	cmd.Flags().String("delivery", "", "Path of the delivered reports")

	return cmd
}

func ledgerListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")

			l, closeStore, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := l.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch formatStr {
			case "json":
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode entries: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case "table":
				if len(entries) == 0 {
					fmt.Fprintln(out, "No analyses registered.")
					return nil
				}
				fmt.Fprintf(out, "%-4s %-20s %-40s %6s %-12s %10s\n", "ID", "DATE", "DOCUMENT", "REQS", "STATUS", "TIME")
				for _, e := range entries {
					fmt.Fprintf(out, "%-4d %-20s %-40s %6d %-12s %10s\n",
						e.ID, e.Timestamp.Format(time.DateTime), truncate(e.DocumentName, 40), e.RequirementCount, e.Status, e.ExecutionTime)
				}
				fmt.Fprintf(out, "\nTotal: %d\n", len(entries))
			default:
				return fmt.Errorf("unknown format %q (want table or json)", formatStr)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "table", "Output format (table, json)")

	return cmd
}

func ledgerShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one registered analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: id %q is not a number", ledger.ErrInvalidEntry, args[0])
			}

			l, closeStore, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			e, err := l.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:           %d\n", e.ID)
			fmt.Fprintf(out, "Date:         %s\n", e.Timestamp.Format(time.RFC3339))
			fmt.Fprintf(out, "Document:     %s\n", e.DocumentName)
			fmt.Fprintf(out, "Requirements: %d\n", e.RequirementCount)
			fmt.Fprintf(out, "Status:       %s\n", e.Status)
			fmt.Fprintf(out, "Elapsed:      %s\n", e.ExecutionTime)
			fmt.Fprintf(out, "Delivery:     %s\n", e.DeliveryPath)
			return nil
		},
	}

	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
