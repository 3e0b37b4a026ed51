package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/liamcryan/ieuler/internal/models"
)

// PostgresRecordRepository implements puzzle-progress persistence
// against a PostgreSQL database.
type PostgresRecordRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresRecordRepository creates a new PostgresRecordRepository
// using the provided *sql.DB.
func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{DB: db}
}

// RecordsForUser fetches all stored sync records for the given user in
// puzzle-id order.
func (r *PostgresRecordRepository) RecordsForUser(ctx context.Context, login string) ([]models.SyncRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, solved, correct_answer, completed_on, code
		  FROM records WHERE user_login = $1 ORDER BY id
	`, login)
	if err != nil {
		return nil, fmt.Errorf("RecordsForUser: %w", err)
	}
	defer rows.Close()

	var records []models.SyncRecord
	for rows.Next() {
		var (
			rec           models.SyncRecord
			solved        sql.NullBool
			correctAnswer sql.NullString
			completedOn   sql.NullString
			code          sql.NullString
		)
		if err := rows.Scan(&rec.ID, &solved, &correctAnswer, &completedOn, &code); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if solved.Valid {
			rec.Solved = &solved.Bool
		}
		rec.CorrectAnswer = correctAnswer.String
		rec.CompletedOn = completedOn.String
		if code.Valid && code.String != "" {
			if err := json.Unmarshal([]byte(code.String), &rec.Code); err != nil {
				return nil, fmt.Errorf("decode code for puzzle %d: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertRecords inserts or field-merges the given records for a user
// within one transaction. Absent fields never overwrite stored values
// and code blobs merge per language, matching the catalog's merge rule,
// so two machines pushing different languages both survive.
func (r *PostgresRecordRepository) UpsertRecords(ctx context.Context, login string, records []models.SyncRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if rec.ID < 1 {
			return fmt.Errorf("upsert: invalid puzzle id %d", rec.ID)
		}
		var (
			solved        sql.NullBool
			correctAnswer sql.NullString
			completedOn   sql.NullString
			code          sql.NullString
		)
		if rec.Solved != nil {
			solved = sql.NullBool{Bool: *rec.Solved, Valid: true}
		}
		if rec.CorrectAnswer != "" {
			correctAnswer = sql.NullString{String: rec.CorrectAnswer, Valid: true}
		}
		if rec.CompletedOn != "" {
			completedOn = sql.NullString{String: rec.CompletedOn, Valid: true}
		}
		if len(rec.Code) > 0 {
			merged, err := mergedCode(ctx, tx, login, rec)
			if err != nil {
				return err
			}
			blob, err := json.Marshal(merged)
			if err != nil {
				return fmt.Errorf("encode code for puzzle %d: %w", rec.ID, err)
			}
			code = sql.NullString{String: string(blob), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (user_login, id, solved, correct_answer, completed_on, code)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_login, id) DO UPDATE SET
				solved = COALESCE(EXCLUDED.solved, records.solved),
				correct_answer = COALESCE(EXCLUDED.correct_answer, records.correct_answer),
				completed_on = COALESCE(EXCLUDED.completed_on, records.completed_on),
				code = COALESCE(EXCLUDED.code, records.code)
		`, login, rec.ID, solved, correctAnswer, completedOn, code)
		if err != nil {
			return fmt.Errorf("upsert puzzle %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// mergedCode combines the stored code blob with the incoming entries,
// incoming languages winning. The row is locked for the rest of the
// transaction so the read-modify-write cannot race a concurrent push.
func mergedCode(ctx context.Context, tx *sql.Tx, login string, rec models.SyncRecord) (map[string]models.CodeEntry, error) {
	var stored sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT code FROM records WHERE user_login = $1 AND id = $2 FOR UPDATE
	`, login, rec.ID).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read code for puzzle %d: %w", rec.ID, err)
	}

	merged := make(map[string]models.CodeEntry, len(rec.Code))
	if stored.Valid && stored.String != "" {
		if err := json.Unmarshal([]byte(stored.String), &merged); err != nil {
			return nil, fmt.Errorf("decode code for puzzle %d: %w", rec.ID, err)
		}
	}
	for lang, entry := range rec.Code {
		merged[lang] = entry
	}
	return merged, nil
}
