package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	outPrinter = message.NewPrinter(language.English)
	outCaser   = cases.Title(language.English)
)

// commaFloat renders 12345.6 as "12,345.60".
func commaFloat(v float64) string {
	return outPrinter.Sprintf("%.2f", v)
}

// coverageDisplayName turns "general_liability" into "General Liability".
func coverageDisplayName(coverageType string) string {
	return outCaser.String(strings.ReplaceAll(coverageType, "_", " "))
}
