package bankdb

import (
	"time"

	"github.com/uptrace/bun"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	CPF         string    `bun:"cpf,pk"`
	Birthdate   string    `bun:"birthdate,notnull"`
	Score       float64   `bun:"score,notnull"`
	CreditLimit float64   `bun:"credit_limit,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type policyRow struct {
	bun.BaseModel `bun:"table:score_limit_policy,alias:p"`

	MinimumScore float64 `bun:"minimum_score,pk"`
	MaximumLimit float64 `bun:"maximum_limit,notnull"`
}

type increaseRequestRow struct {
	bun.BaseModel `bun:"table:limit_increase_requests,alias:r"`

	ID             int64     `bun:"id,pk,autoincrement"`
	CPF            string    `bun:"cpf,notnull"`
	RequestedAt    time.Time `bun:"requested_at,notnull"`
	PriorLimit     float64   `bun:"prior_limit,notnull"`
	RequestedLimit float64   `bun:"requested_limit,notnull"`
	Status         string    `bun:"status,notnull"`
}
