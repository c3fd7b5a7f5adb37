package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/pipeline"
)

var (
	quoteText string
	quoteJSON bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote [email-file]",
	Short: "Generate a quote from a single broker email",
	Long:  "Reads a broker email from a file, --text, or stdin and runs it through the ten-step underwriting pipeline.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		email, err := readEmailInput(args, quoteText, cmd.InOrStdin())
		if err != nil {
			return err
		}

		progress := pipeline.WithProgress(func(step int, name string, status pipeline.StepStatus) {
			printStepProgress(cmd.ErrOrStderr(), step, name, status)
		})

		env, err := initQuoteEnv(ctx, "quote", progress)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.Process(ctx, email)

		if quoteJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return eris.Wrap(err, "encode result")
			}
		} else {
			printQuoteResult(cmd.OutOrStdout(), result)
		}

		if !result.Success {
			return eris.New("quote generation failed")
		}
		return nil
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteText, "text", "", "email content passed inline instead of from a file")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the full pipeline result as JSON")
	rootCmd.AddCommand(quoteCmd)
}

// readEmailInput resolves the broker email from the first positional arg,
// the --text flag, or stdin, in that order of precedence.
func readEmailInput(args []string, text string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", eris.Wrap(err, "read email file")
		}
		return string(data), nil
	}
	if text != "" {
		return text, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", eris.Wrap(err, "read stdin")
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", eris.New("no email content: pass a file, --text, or pipe to stdin")
	}
	return string(data), nil
}

func printStepProgress(w io.Writer, step int, name string, status pipeline.StepStatus) {
	var icon string
	switch status {
	case pipeline.StepRunning:
		icon = "..."
	case pipeline.StepComplete:
		icon = "done"
	default:
		icon = "FAIL"
	}
	fmt.Fprintf(w, "  [%2d/10] %-25s %s\n", step, name, icon)
}

// printQuoteResult renders a human-readable summary of a pipeline run.
func printQuoteResult(w io.Writer, result *model.PipelineResult) {
	if !result.Success {
		fmt.Fprintln(w, "\nQuote generation failed.")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  Error: %s\n", e)
		}
		return
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 70))
	fmt.Fprintln(w, "        QUOTE GENERATED SUCCESSFULLY")
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if result.ClientProfile != nil {
		fmt.Fprintf(w, "\nClient: %s\n", result.ClientProfile.ClientName)
	}
	if result.IndustryClassification != nil {
		fmt.Fprintf(w, "Industry: %s (BIC: %s)\n",
			result.IndustryClassification.IndustryName,
			result.IndustryClassification.BICCode)
	}

	if result.ModifierResult != nil {
		fmt.Fprintf(w, "\nAnnual Premium: $%s\n", commaFloat(result.ModifierResult.AdjustedPremium))

		if result.PremiumCalculation != nil {
			fmt.Fprintln(w, "\nPremium Breakdown:")
			for _, item := range result.PremiumCalculation.LineItems {
				fmt.Fprintf(w, "  - %s: $%s\n", coverageDisplayName(item.CoverageType), commaFloat(item.BasePremium))
			}
		}
		if len(result.ModifierResult.ModifiersApplied) > 0 {
			fmt.Fprintln(w, "\nModifiers Applied:")
			for _, mod := range result.ModifierResult.ModifiersApplied {
				sign := ""
				if mod.PremiumImpact > 0 {
					sign = "+"
				}
				fmt.Fprintf(w, "  - %s: %s$%s (%+.0f%%)\n",
					mod.ModifierName, sign, commaFloat(mod.PremiumImpact), mod.ModifierValue*100)
			}
		}
	}

	if result.RiskAssessment != nil {
		fmt.Fprintln(w, "\nRisk Assessment:")
		fmt.Fprintf(w, "  Level: %s\n", result.RiskAssessment.OverallRiskLevel)
		fmt.Fprintf(w, "  Score: %.0f/100\n", result.RiskAssessment.RiskScore)
		fmt.Fprintf(w, "  Recommendation: %s\n", result.RiskAssessment.Recommendation)
	}

	if result.AuthorityCheck != nil {
		fmt.Fprintln(w, "\nAuthority:")
		fmt.Fprintf(w, "  Level: %s\n", result.AuthorityCheck.AuthorityLevel)
		if result.AuthorityCheck.RequiresApproval {
			fmt.Fprintf(w, "  Requires approval: %s\n", result.AuthorityCheck.ApprovalReason)
		} else {
			fmt.Fprintln(w, "  Auto-bind eligible")
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	fmt.Fprintf(w, "\nQuote ID: %s\n", result.QuoteID)

	if result.Metrics != nil {
		fmt.Fprintf(w, "Processing time: %.1f seconds\n", result.Metrics.TotalDurationSeconds)
	}
}
