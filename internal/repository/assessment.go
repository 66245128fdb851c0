package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"aptocheck/internal/domain"
)

type AssessmentsFilter struct {
	CUIT   *string
	Status *string
	UserID *int64
	Limit  int
}

type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) Create(ctx context.Context, a *domain.Assessment) error {
	reasons, err := json.Marshal(a.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, cuit, client_name, status, eligible,
			current_situation, worst_6m, worst_12m,
			reasons, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.CUIT,
		a.ClientName,
		string(a.Status),
		a.Eligible,
		intPtrToNull(a.CurrentSituation),
		intPtrToNull(a.Worst6Months),
		intPtrToNull(a.Worst12Months),
		reasons,
		a.UserID,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	query := `
		SELECT id, cuit, client_name, status, eligible,
		       current_situation, worst_6m, worst_12m,
		       reasons, user_id, created_at
		FROM assessments
		WHERE id = $1
	`

	return scanAssessment(r.db.QueryRowContext(ctx, query, id))
}

func (r *AssessmentRepository) List(ctx context.Context, f AssessmentsFilter) ([]domain.Assessment, error) {
	query := `
		SELECT id, cuit, client_name, status, eligible,
		       current_situation, worst_6m, worst_12m,
		       reasons, user_id, created_at
		FROM assessments
	`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.CUIT != nil {
		where = append(where, fmt.Sprintf("cuit = $%d", i))
		args = append(args, *f.CUIT)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", i))
		args = append(args, *f.UserID)
		i++
	}

	query += " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", i)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*domain.Assessment, error) {
	var (
		a       domain.Assessment
		status  string
		cur     sql.NullInt64
		w6      sql.NullInt64
		w12     sql.NullInt64
		reasons []byte
	)

	if err := row.Scan(
		&a.ID,
		&a.CUIT,
		&a.ClientName,
		&status,
		&a.Eligible,
		&cur,
		&w6,
		&w12,
		&reasons,
		&a.UserID,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}

	a.Status = domain.EligibilityStatus(status)
	a.CurrentSituation = nullToIntPtr(cur)
	a.Worst6Months = nullToIntPtr(w6)
	a.Worst12Months = nullToIntPtr(w12)

	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &a.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
	}

	return &a, nil
}

func intPtrToNull(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullToIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
