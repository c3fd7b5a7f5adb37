package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/internal/model"
)

func TestFormatQuotesList(t *testing.T) {
	savedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	approved := successfulResult()
	approved.AuthorityCheck.RequiresApproval = true
	approved.AuthorityCheck.ApproverRole = "Senior Underwriter"

	results := []model.StoredResult{
		{PipelineResult: *successfulResult(), SavedAt: savedAt},
		{PipelineResult: *approved, SavedAt: savedAt},
		{PipelineResult: model.PipelineResult{QuoteID: "Q-20260830-BBBBBBBB", Success: true}, SavedAt: savedAt},
	}

	var buf bytes.Buffer
	formatQuotesList(&buf, results)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Contains(t, lines[0], "QUOTE ID")
	assert.Contains(t, lines[0], "APPROVAL")

	assert.Contains(t, lines[1], "Q-20260830-DEADBEEF")
	assert.Contains(t, lines[1], "Acme Roofing LLC")
	assert.Contains(t, lines[1], "$4,750.00")
	assert.Contains(t, lines[1], "MEDIUM")
	assert.Contains(t, lines[1], "auto-bind")
	assert.Contains(t, lines[1], "2026-08-30T12:00:00Z")

	assert.Contains(t, lines[2], "Senior Underwriter")

	// Sparse result falls back to placeholders.
	assert.Contains(t, lines[3], "Unknown")
	assert.Contains(t, lines[3], "-")
}
