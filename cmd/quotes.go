package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/store"
)

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Inspect persisted quotes",
	Long:  "Commands for listing and viewing quotes generated by previous pipeline runs.",
}

// -- quotes list --

var quotesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted quotes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		client, _ := cmd.Flags().GetString("client")
		limit, _ := cmd.Flags().GetInt("limit")

		results, err := st.ListResults(ctx, store.ResultFilter{
			ClientName: client,
			Limit:      limit,
		})
		if err != nil {
			return eris.Wrap(err, "quotes list")
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No quotes found.")
			return nil
		}

		formatQuotesList(cmd.OutOrStdout(), results)
		return nil
	},
}

// -- quotes show --

var quotesShowCmd = &cobra.Command{
	Use:   "show <quote-id>",
	Short: "Show full details of a quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		result, err := st.GetResult(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "quotes show")
		}

		letterOnly, _ := cmd.Flags().GetBool("letter")
		if letterOnly {
			if result.GeneratedQuote == nil {
				return eris.Errorf("quote %s has no letter", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.GeneratedQuote.QuoteLetter)
			return nil
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func formatQuotesList(w io.Writer, results []model.StoredResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUOTE ID\tCLIENT\tPREMIUM\tRISK\tAPPROVAL\tSAVED")

	for _, r := range results {
		client := "Unknown"
		if r.ClientProfile != nil && r.ClientProfile.ClientName != "" {
			client = r.ClientProfile.ClientName
		}
		premium := "-"
		if r.ModifierResult != nil {
			premium = "$" + commaFloat(r.ModifierResult.AdjustedPremium)
		}
		risk := "-"
		if r.RiskAssessment != nil {
			risk = string(r.RiskAssessment.OverallRiskLevel)
		}
		approval := "auto-bind"
		if r.AuthorityCheck != nil && r.AuthorityCheck.RequiresApproval {
			approval = r.AuthorityCheck.ApproverRole
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.QuoteID, client, premium, risk, approval,
			r.SavedAt.Format(time.RFC3339))
	}

	tw.Flush()
}

func init() {
	quotesListCmd.Flags().String("client", "", "filter by client name substring")
	quotesListCmd.Flags().Int("limit", 50, "max quotes to list")
	quotesShowCmd.Flags().Bool("letter", false, "print only the quote letter text")

	quotesCmd.AddCommand(quotesListCmd)
	quotesCmd.AddCommand(quotesShowCmd)
	rootCmd.AddCommand(quotesCmd)
}
