package bankdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/bancoagil/atendimento/agent/contract"
	"github.com/bancoagil/atendimento/agent/parse"
)

// CustomerStore implements contract.CustomerStore on Postgres.
type CustomerStore struct {
	db *bun.DB
}

func NewCustomerStore(db *bun.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) Get(ctx context.Context, cpf string) (contractx.CustomerRecord, error) {
	cpf = parse.NormalizeCPF(cpf)
	if cpf == "" {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: empty cpf", contractx.ErrValidation)
	}

	var row customerRow
	err := s.db.NewSelect().
		Model(&row).
		Where("cpf = ?", cpf).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.CustomerRecord{}, fmt.Errorf("%w: cpf=%s", contractx.ErrNotFound, cpf)
		}
		return contractx.CustomerRecord{}, fmt.Errorf("select customer: %w", err)
	}

	return contractx.CustomerRecord{
		CPF:         row.CPF,
		Birthdate:   row.Birthdate,
		Score:       row.Score,
		CreditLimit: row.CreditLimit,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (s *CustomerStore) SetScore(ctx context.Context, cpf string, score float64) error {
	return s.updateColumn(ctx, cpf, "score", score)
}

func (s *CustomerStore) SetLimit(ctx context.Context, cpf string, limit float64) error {
	return s.updateColumn(ctx, cpf, "credit_limit", limit)
}

func (s *CustomerStore) updateColumn(ctx context.Context, cpf, column string, value float64) error {
	cpf = parse.NormalizeCPF(cpf)
	if cpf == "" {
		return fmt.Errorf("%w: empty cpf", contractx.ErrValidation)
	}

	res, err := s.db.NewUpdate().
		Model((*customerRow)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = ?", time.Now().UTC()).
		Where("cpf = ?", cpf).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update customer %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer %s: %w", column, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: cpf=%s", contractx.ErrNotFound, cpf)
	}
	return nil
}

// PolicyTable implements contract.PolicyTable on Postgres. The table is tiny
// and effectively static, so rows are cached after the first read.
type PolicyTable struct {
	db     *bun.DB
	cached []contractx.PolicyRow
}

func NewPolicyTable(db *bun.DB) *PolicyTable {
	return &PolicyTable{db: db}
}

func (t *PolicyTable) Rows(ctx context.Context) ([]contractx.PolicyRow, error) {
	if t.cached != nil {
		return t.cached, nil
	}

	var rows []policyRow
	err := t.db.NewSelect().
		Model(&rows).
		Order("minimum_score ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select policy rows: %w", err)
	}

	out := make([]contractx.PolicyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, contractx.PolicyRow{
			MinimumScore: r.MinimumScore,
			MaximumLimit: r.MaximumLimit,
		})
	}
	t.cached = out
	return out, nil
}

// RequestLedger implements contract.RequestLedger on Postgres.
type RequestLedger struct {
	db *bun.DB
}

func NewRequestLedger(db *bun.DB) *RequestLedger {
	return &RequestLedger{db: db}
}

func (l *RequestLedger) Append(ctx context.Context, req contractx.IncreaseRequest) error {
	if strings.TrimSpace(req.CPF) == "" {
		return fmt.Errorf("%w: ledger entry without cpf", contractx.ErrValidation)
	}
	if req.Status != contractx.StatusApproved && req.Status != contractx.StatusRejected {
		return fmt.Errorf("%w: ledger status %q", contractx.ErrValidation, req.Status)
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}

	row := increaseRequestRow{
		CPF:            parse.NormalizeCPF(req.CPF),
		RequestedAt:    req.RequestedAt.UTC(),
		PriorLimit:     req.PriorLimit,
		RequestedLimit: req.RequestedLimit,
		Status:         req.Status,
	}
	if _, err := l.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("append increase request: %w", err)
	}
	return nil
}
