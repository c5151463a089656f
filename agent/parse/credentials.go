package parse

import (
	"regexp"
	"strings"
)

var (
	cpfPattern       = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`)
	birthdatePattern = regexp.MustCompile(`(\d{2})[/-](\d{2})[/-](\d{4})`)
	digitPattern     = regexp.MustCompile(`\D`)
)

// CPF extracts an 11-digit CPF from free text, stripped of punctuation.
func CPF(text string) (string, bool) {
	match := cpfPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return digitPattern.ReplaceAllString(match, ""), true
}

// NormalizeCPF strips everything but digits from a CPF candidate.
func NormalizeCPF(cpf string) string {
	return digitPattern.ReplaceAllString(cpf, "")
}

// Birthdate extracts a DD/MM/YYYY date from free text, normalizing "-"
// separators to "/". No calendar validation happens here; the triage agent
// compares against the stored value verbatim.
func Birthdate(text string) (string, bool) {
	groups := birthdatePattern.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}
	return groups[1] + "/" + groups[2] + "/" + groups[3], true
}

// NormalizeBirthdate converts "-" separated dates to the stored "/" format.
func NormalizeBirthdate(birthdate string) string {
	return strings.ReplaceAll(strings.TrimSpace(birthdate), "-", "/")
}
