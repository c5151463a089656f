package bankdb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/bancoagil/atendimento/agent/parse"
)

// CreateTables creates the three tables when missing. There is no migration
// story: the schema is fixed and the demo dataset is reloadable from CSV.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*customerRow)(nil),
		(*policyRow)(nil),
		(*increaseRequestRow)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// SeedCustomersCSV upserts customers from a CSV file with the columns
// cpf, birthdate (DD/MM/YYYY), score, credit_limit. A header row is skipped.
func SeedCustomersCSV(ctx context.Context, db *bun.DB, path string) error {
	return seedCSV(path, 4, func(fields []string) error {
		score, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("score %q: %w", fields[2], err)
		}
		limit, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return fmt.Errorf("credit_limit %q: %w", fields[3], err)
		}

		row := customerRow{
			CPF:         parse.NormalizeCPF(fields[0]),
			Birthdate:   parse.NormalizeBirthdate(fields[1]),
			Score:       score,
			CreditLimit: limit,
			UpdatedAt:   time.Now().UTC(),
		}
		_, err = db.NewInsert().
			Model(&row).
			On("CONFLICT (cpf) DO UPDATE").
			Set("birthdate = EXCLUDED.birthdate").
			Set("score = EXCLUDED.score").
			Set("credit_limit = EXCLUDED.credit_limit").
			Exec(ctx)
		return err
	})
}

// SeedPolicyCSV upserts policy tiers from a CSV file with the columns
// minimum_score, maximum_limit. A header row is skipped.
func SeedPolicyCSV(ctx context.Context, db *bun.DB, path string) error {
	return seedCSV(path, 2, func(fields []string) error {
		minScore, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("minimum_score %q: %w", fields[0], err)
		}
		maxLimit, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("maximum_limit %q: %w", fields[1], err)
		}

		row := policyRow{MinimumScore: minScore, MaximumLimit: maxLimit}
		_, err = db.NewInsert().
			Model(&row).
			On("CONFLICT (minimum_score) DO UPDATE").
			Set("maximum_limit = EXCLUDED.maximum_limit").
			Exec(ctx)
		return err
	})
}

func seedCSV(path string, wantFields int, insert func(fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = wantFields
	reader.TrimLeadingSpace = true

	line := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", path, line+1, err)
		}
		line++
		if line == 1 && looksLikeHeader(fields) {
			continue
		}
		if err := insert(fields); err != nil {
			return fmt.Errorf("seed %s line %d: %w", path, line, err)
		}
	}
}

func looksLikeHeader(fields []string) bool {
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			return false
		}
	}
	log.Debug().Strs("fields", fields).Msg("skipping csv header row")
	return true
}
