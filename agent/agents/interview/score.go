package interview

import "math"

// Employment types accepted by the interview.
const (
	EmploymentFormal     = "formal"
	EmploymentSelf       = "autônomo"
	EmploymentUnemployed = "desempregado"
)

// Debt answers accepted by the interview.
const (
	DebtsYes = "sim"
	DebtsNo  = "não"
)

// Dependent buckets. Three or more dependents collapse into one bucket.
const (
	DependentsThreePlus = "3+"
)

// Answers carries the five validated interview answers.
type Answers struct {
	MonthlyIncome float64
	Employment    string
	FixedExpenses float64
	Dependents    string // "0", "1", "2" or "3+"
	HasDebts      string // "sim" or "não"
}

var (
	employmentWeight = map[string]float64{
		EmploymentFormal:     300,
		EmploymentSelf:       200,
		EmploymentUnemployed: 0,
	}
	dependentsWeight = map[string]float64{
		"0":                 100,
		"1":                 80,
		"2":                 60,
		DependentsThreePlus: 30,
	}
	debtWeight = map[string]float64{
		DebtsYes: -100,
		DebtsNo:  100,
	}
)

// Score computes the recalculated credit score. The formula is pure and
// deterministic: income over expenses weighted by 30, plus the categorical
// weights, clamped to [0, 1000] and rounded to 2 decimal places.
func Score(a Answers) float64 {
	score := (a.MonthlyIncome/(a.FixedExpenses+1))*30 +
		employmentWeight[a.Employment] +
		dependentsWeight[a.Dependents] +
		debtWeight[a.HasDebts]

	score = math.Max(0, math.Min(1000, score))
	return math.Round(score*100) / 100
}
