// Package parse holds the deterministic text extraction used by the agents:
// Brazilian-format amounts, CPF and birthdate recognition. Everything here is
// pure; LLM-backed extraction lives in agent/classify.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// Amount extracts the first monetary value from free text using a single
// rule for every flow: "R$" and spaces are ignored; when a comma is present
// it is the decimal separator and dots are thousands separators; without a
// comma, one final dot group of one or two digits reads as a decimal point
// and any other dots read as thousands separators. Examples: "5.000,50" ->
// 5000.50, "1500,75" -> 1500.75, "R$ 5.000" -> 5000, "120.5" -> 120.5.
func Amount(text string) (float64, bool) {
	cleaned := strings.NewReplacer("R$", "", "r$", "", " ", "").Replace(text)

	token := amountPattern.FindString(cleaned)
	if token == "" {
		return 0, false
	}

	normalized := normalizeAmount(token)
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func normalizeAmount(token string) string {
	if strings.Contains(token, ",") {
		token = strings.ReplaceAll(token, ".", "")
		return strings.Replace(token, ",", ".", 1)
	}

	if dots := strings.Count(token, "."); dots > 0 {
		last := strings.LastIndex(token, ".")
		fraction := token[last+1:]
		if dots == 1 && len(fraction) >= 1 && len(fraction) <= 2 {
			return token
		}
		return strings.ReplaceAll(token, ".", "")
	}
	return token
}
