package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGCallLogRepository struct {
	db *pgxpool.Pool
}

func NewCallLogRepository(db *pgxpool.Pool) *PGCallLogRepository {
	return &PGCallLogRepository{db: db}
}

func (r *PGCallLogRepository) Record(ctx context.Context, entry domain.ProviderCallLog) error {
	input := []byte(entry.Input)
	if len(input) == 0 {
		input = []byte("{}")
	}
	var output []byte
	if len(entry.Output) > 0 {
		output = entry.Output
	}
	_, err := r.db.Exec(ctx, `INSERT INTO provider_call_logs (tool_name, input_params, output_result, error_message, duration_ms, success, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ToolName, input, output, nullString(entry.ErrorMessage), entry.DurationMs, entry.Success, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert call log: %w", err)
	}
	return nil
}

func (r *PGCallLogRepository) Recent(ctx context.Context, limit int) ([]domain.ProviderCallLog, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tool_name, input_params, output_result, error_message, duration_ms, success, timestamp
		FROM provider_call_logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.ProviderCallLog
	for rows.Next() {
		var (
			l             domain.ProviderCallLog
			input, output []byte
			errMsg        *string
			duration      *int64
		)
		if err := rows.Scan(&l.ID, &l.ToolName, &input, &output, &errMsg, &duration, &l.Success, &l.Timestamp); err != nil {
			return nil, err
		}
		l.Input = input
		l.Output = output
		l.ErrorMessage = deref(errMsg)
		if duration != nil {
			l.DurationMs = *duration
		}
		logs = append(logs, l)
	}
	if logs == nil {
		logs = []domain.ProviderCallLog{}
	}
	return logs, rows.Err()
}
