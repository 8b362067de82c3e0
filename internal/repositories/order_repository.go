package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"patio-backend/internal/models"
	"patio-backend/internal/services"
)

// OrderRepository reads externally owned orders. The queue never writes to
// ordens_carga.
type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `id, numero_referencia, tipo_referencia,
	COALESCE(remetente, ''), COALESCE(destinatario, ''), status, empresa_id, created_at`

func scanOrder(row pgx.Row) (*models.OrderSummary, error) {
	var o models.OrderSummary
	err := row.Scan(&o.ID, &o.Number, &o.Type, &o.Sender, &o.Recipient,
		&o.Status, &o.CompanyID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Get(ctx context.Context, companyID, id string) (*models.OrderSummary, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM ordens_carga WHERE id=$1 AND empresa_id=$2`, id, companyID)
	return scanOrder(row)
}

// Search matches the reference number, sender or recipient. With
// excludeLinked, orders already attached to any card are filtered out so
// the link dialog only offers fresh candidates.
func (r *OrderRepository) Search(ctx context.Context, companyID, query string, excludeLinked bool) ([]*models.OrderSummary, error) {
	sql := `SELECT ` + orderColumns + ` FROM ordens_carga oc
         WHERE oc.empresa_id=$1
           AND (oc.numero_referencia ILIKE $2 OR oc.remetente ILIKE $2 OR oc.destinatario ILIKE $2)`
	if excludeLinked {
		sql += `
           AND NOT EXISTS (
               SELECT 1 FROM ordens_fila_x ofx
               WHERE ofx.ordem_id = oc.id AND ofx.empresa_id = oc.empresa_id
           )`
	}
	sql += `
         ORDER BY oc.created_at DESC
         LIMIT 20`

	rows, err := r.DB.Query(ctx, sql, companyID, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.OrderSummary
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
