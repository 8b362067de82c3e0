package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"patio-backend/internal/models"
)

type EventRepository struct {
	DB *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{DB: db}
}

const eventColumns = `id, fila_x_id, acao,
	COALESCE(estagio_anterior, ''), COALESCE(estagio_novo, ''),
	COALESCE(ordem_id, ''), COALESCE(observacoes, ''),
	usuario_id, usuario_nome, empresa_id, data_acao, created_at`

func scanEvents(rows pgx.Rows) ([]*models.TransitionEvent, error) {
	defer rows.Close()
	var events []*models.TransitionEvent
	for rows.Next() {
		var e models.TransitionEvent
		err := rows.Scan(&e.ID, &e.ItemID, &e.Action,
			&e.FromStage, &e.ToStage, &e.OrderID, &e.Notes,
			&e.ActorID, &e.ActorName, &e.CompanyID, &e.OccurredAt, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// ListByItem returns the item's full history oldest first, the order replay
// expects.
func (r *EventRepository) ListByItem(ctx context.Context, companyID, itemID string) ([]*models.TransitionEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+eventColumns+` FROM historico_fila_x
         WHERE fila_x_id=$1 AND empresa_id=$2
         ORDER BY data_acao ASC, created_at ASC`, itemID, companyID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListByCompany returns the most recent events across every item of the
// company, newest first.
func (r *EventRepository) ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.TransitionEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+eventColumns+` FROM historico_fila_x
         WHERE empresa_id=$1
         ORDER BY data_acao DESC, created_at DESC
         LIMIT $2`, companyID, limit)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}
