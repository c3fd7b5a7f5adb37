package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/pipeline"
)

func TestReadEmailInput_FileArg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email.txt")
	require.NoError(t, os.WriteFile(path, []byte("quote request body"), 0o644))

	got, err := readEmailInput([]string{path}, "ignored", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "quote request body", got)
}

func TestReadEmailInput_MissingFile(t *testing.T) {
	_, err := readEmailInput([]string{filepath.Join(t.TempDir(), "nope.txt")}, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read email file")
}

func TestReadEmailInput_TextFlag(t *testing.T) {
	got, err := readEmailInput(nil, "inline email", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "inline email", got)
}

func TestReadEmailInput_Stdin(t *testing.T) {
	got, err := readEmailInput([]string{"-"}, "", strings.NewReader("piped email"))
	require.NoError(t, err)
	assert.Equal(t, "piped email", got)
}

func TestReadEmailInput_EmptyStdin(t *testing.T) {
	_, err := readEmailInput(nil, "", strings.NewReader("  \n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email content")
}

func TestPrintStepProgress(t *testing.T) {
	var buf bytes.Buffer
	printStepProgress(&buf, 3, "Rate Discovery", pipeline.StepRunning)
	printStepProgress(&buf, 3, "Rate Discovery", pipeline.StepComplete)
	printStepProgress(&buf, 10, "Quote Generation", pipeline.StepFailed)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  [ 3/10] Rate Discovery            ...", lines[0])
	assert.Equal(t, "  [ 3/10] Rate Discovery            done", lines[1])
	assert.Equal(t, "  [10/10] Quote Generation          FAIL", lines[2])
}

func TestPrintQuoteResult_Success(t *testing.T) {
	result := successfulResult()
	result.IndustryClassification = &model.IndustryClassification{
		BICCode:      "23",
		IndustryName: "Construction - General",
	}
	result.PremiumCalculation = &model.PremiumCalculation{
		LineItems: []model.PremiumLineItem{
			{CoverageType: "general_liability", BasePremium: 5000},
		},
		TotalBasePremium: 5000,
	}
	result.ModifierResult.ModifiersApplied = []model.ModifierDetail{
		{ModifierName: "Experience credit", ModifierValue: -0.05, PremiumImpact: -250},
	}
	result.AuthorityCheck.RequiresApproval = true
	result.AuthorityCheck.ApprovalReason = "Adverse loss history requires review"
	result.Warnings = []string{"Requires Senior Underwriter approval"}

	var buf bytes.Buffer
	printQuoteResult(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "QUOTE GENERATED SUCCESSFULLY")
	assert.Contains(t, out, "Client: Acme Roofing LLC")
	assert.Contains(t, out, "Industry: Construction - General (BIC: 23)")
	assert.Contains(t, out, "Annual Premium: $4,750.00")
	assert.Contains(t, out, "- General Liability: $5,000.00")
	assert.Contains(t, out, "- Experience credit: $-250.00 (-5%)")
	assert.Contains(t, out, "Level: MEDIUM")
	assert.Contains(t, out, "Score: 55/100")
	assert.Contains(t, out, "Requires approval: Adverse loss history requires review")
	assert.Contains(t, out, "- Requires Senior Underwriter approval")
	assert.Contains(t, out, "Quote ID: Q-20260830-DEADBEEF")
	assert.Contains(t, out, "Processing time: 12.5 seconds")
}

func TestPrintQuoteResult_Failure(t *testing.T) {
	var buf bytes.Buffer
	printQuoteResult(&buf, &model.PipelineResult{
		Success: false,
		Errors:  []string{"pipeline: parse email: malformed response"},
	})
	out := buf.String()

	assert.Contains(t, out, "Quote generation failed.")
	assert.Contains(t, out, "Error: pipeline: parse email: malformed response")
	assert.NotContains(t, out, "QUOTE GENERATED")
}
