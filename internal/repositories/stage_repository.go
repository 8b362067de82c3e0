package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"patio-backend/internal/models"
	"patio-backend/internal/services"
)

type StageRepository struct {
	DB *pgxpool.Pool
}

func NewStageRepository(db *pgxpool.Pool) *StageRepository {
	return &StageRepository{DB: db}
}

func (r *StageRepository) List(ctx context.Context, companyID string) ([]*models.StageDefinition, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT key, label, descricao, sla_minutos, ordem, terminal, built_in, empresa_id, created_at, updated_at
         FROM estagios WHERE empresa_id=$1
         ORDER BY ordem ASC, key ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []*models.StageDefinition
	for rows.Next() {
		var s models.StageDefinition
		err := rows.Scan(&s.Key, &s.Label, &s.Description, &s.SLAMinutes, &s.Position,
			&s.Terminal, &s.BuiltIn, &s.CompanyID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		stages = append(stages, &s)
	}
	return stages, rows.Err()
}

// Insert writes the definition unless the key already exists for the
// company. Reports whether a row was actually written, so callers can tell
// a fresh auto-registration from an idempotent re-insert.
func (r *StageRepository) Insert(ctx context.Context, stage *models.StageDefinition) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`INSERT INTO estagios(key, empresa_id, label, descricao, sla_minutos, ordem, terminal, built_in, created_at, updated_at)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         ON CONFLICT (empresa_id, key) DO NOTHING`,
		stage.Key, stage.CompanyID, stage.Label, stage.Description, stage.SLAMinutes,
		stage.Position, stage.Terminal, stage.BuiltIn, stage.CreatedAt, stage.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *StageRepository) Update(ctx context.Context, stage *models.StageDefinition) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE estagios SET label=$1, descricao=$2, sla_minutos=$3, ordem=$4, updated_at=$5
         WHERE empresa_id=$6 AND key=$7`,
		stage.Label, stage.Description, stage.SLAMinutes, stage.Position, stage.UpdatedAt,
		stage.CompanyID, stage.Key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrNotFound
	}
	return nil
}
