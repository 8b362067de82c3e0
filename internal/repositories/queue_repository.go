package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"patio-backend/internal/models"
	"patio-backend/internal/services"
)

// itemColumns is the full fila_x projection row. Nullable text columns are
// coalesced so the model stays plain strings.
const itemColumns = `id, titulo_cartao, tipo_operacao, estagio, prioridade,
	data_entrada, data_atualizacao,
	COALESCE(motorista_nome, ''), COALESCE(motorista_telefone, ''),
	COALESCE(veiculo_placa, ''), COALESCE(veiculo_tipo, ''),
	COALESCE(doca_designada, ''), COALESCE(observacoes, ''),
	arquivado, data_arquivamento, empresa_id`

type QueueRepository struct {
	DB *pgxpool.Pool
}

func NewQueueRepository(db *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{DB: db}
}

func scanItem(row pgx.Row) (*models.QueueItem, error) {
	var it models.QueueItem
	err := row.Scan(&it.ID, &it.Title, &it.OperationType, &it.Stage, &it.Priority,
		&it.EnteredAt, &it.UpdatedAt,
		&it.DriverName, &it.DriverPhone, &it.VehiclePlate, &it.VehicleType,
		&it.Dock, &it.Notes,
		&it.Archived, &it.ArchivedAt, &it.CompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *QueueRepository) Get(ctx context.Context, companyID, id string) (*models.QueueItem, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM fila_x WHERE id=$1 AND empresa_id=$2`, id, companyID)
	return scanItem(row)
}

func (r *QueueRepository) List(ctx context.Context, companyID string, archived bool) ([]*models.QueueItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+itemColumns+` FROM fila_x
         WHERE empresa_id=$1 AND arquivado=$2
         ORDER BY data_entrada ASC`, companyID, archived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.QueueItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *QueueRepository) FindRecentByDriver(ctx context.Context, companyID, driverName, plate string, since time.Time) (*models.QueueItem, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM fila_x
         WHERE empresa_id=$1 AND motorista_nome=$2 AND veiculo_placa=$3
           AND arquivado=FALSE AND data_entrada >= $4
         ORDER BY data_entrada DESC LIMIT 1`,
		companyID, driverName, plate, since)
	return scanItem(row)
}

// insertEvent appends one immutable history row inside the caller's tx.
func insertEvent(ctx context.Context, tx pgx.Tx, ev *models.TransitionEvent) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO historico_fila_x(id, fila_x_id, acao, estagio_anterior, estagio_novo,
             ordem_id, observacoes, usuario_id, usuario_nome, empresa_id, data_acao, created_at)
         VALUES($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $12)`,
		ev.ID, ev.ItemID, ev.Action, ev.FromStage, ev.ToStage,
		ev.OrderID, ev.Notes, ev.ActorID, ev.ActorName, ev.CompanyID, ev.OccurredAt, ev.CreatedAt)
	return err
}

func (r *QueueRepository) Create(ctx context.Context, item *models.QueueItem, ev *models.TransitionEvent) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO fila_x(id, titulo_cartao, tipo_operacao, estagio, prioridade,
             data_entrada, data_atualizacao, motorista_nome, motorista_telefone,
             veiculo_placa, veiculo_tipo, doca_designada, observacoes, empresa_id)
         VALUES($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''),
             NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), $14)`,
		item.ID, item.Title, item.OperationType, item.Stage, item.Priority,
		item.EnteredAt, item.UpdatedAt, item.DriverName, item.DriverPhone,
		item.VehiclePlate, item.VehicleType, item.Dock, item.Notes, item.CompanyID)
	if err != nil {
		return err
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Move re-reads the current stage under a row lock so concurrent moves of
// the same item serialize and each history row records the stage it really
// left. Missing and archived items are both NotFound.
func (r *QueueRepository) Move(ctx context.Context, companyID, id, toStage string, ev *models.TransitionEvent) (*models.QueueItem, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var fromStage string
	err = tx.QueryRow(ctx,
		`SELECT estagio FROM fila_x
         WHERE id=$1 AND empresa_id=$2 AND arquivado=FALSE
         FOR UPDATE`, id, companyID).Scan(&fromStage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ev.FromStage = fromStage

	row := tx.QueryRow(ctx,
		`UPDATE fila_x SET estagio=$1, data_atualizacao=$2
         WHERE id=$3 AND empresa_id=$4
         RETURNING `+itemColumns,
		toStage, ev.OccurredAt, id, companyID)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *QueueRepository) UpdateMeta(ctx context.Context, item *models.QueueItem, ev *models.TransitionEvent) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE fila_x SET
             titulo_cartao=$1, estagio=$2, data_atualizacao=$3,
             motorista_nome=NULLIF($4, ''), motorista_telefone=NULLIF($5, ''),
             veiculo_placa=NULLIF($6, ''), veiculo_tipo=NULLIF($7, ''),
             doca_designada=NULLIF($8, '')
         WHERE id=$9 AND empresa_id=$10 AND arquivado=FALSE`,
		item.Title, item.Stage, item.UpdatedAt,
		item.DriverName, item.DriverPhone, item.VehiclePlate, item.VehicleType,
		item.Dock, item.ID, item.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrNotFound
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *QueueRepository) Archive(ctx context.Context, companyID, id string, ev *models.TransitionEvent) (*models.QueueItem, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE fila_x SET arquivado=TRUE, data_arquivamento=$1, data_atualizacao=$1
         WHERE id=$2 AND empresa_id=$3 AND arquivado=FALSE
         RETURNING `+itemColumns,
		ev.OccurredAt, id, companyID)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	ev.FromStage = item.Stage
	ev.ToStage = item.Stage
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

// ArchiveStage archives everything active in one stage with a single UPDATE.
// One statement means one MVCC snapshot: cards moving into the stage while
// this runs stay active, so the archived set is a consistent cut.
func (r *QueueRepository) ArchiveStage(ctx context.Context, companyID, stageKey string, actor *models.Actor, now time.Time) (int, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`UPDATE fila_x SET arquivado=TRUE, data_arquivamento=$1, data_atualizacao=$1
         WHERE empresa_id=$2 AND estagio=$3 AND arquivado=FALSE
         RETURNING id`, now, companyID, stageKey)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		_, err := tx.Exec(ctx,
			`INSERT INTO historico_fila_x(fila_x_id, acao, estagio_anterior, estagio_novo,
                 observacoes, usuario_id, usuario_nome, empresa_id, data_acao, created_at)
             VALUES($1, $2, $3, $3, $4, $5, $6, $7, $8, $8)`,
			id, models.ActionArchived, stageKey,
			"Arquivamento em massa do estágio", actor.ID, actor.Name, companyID, now)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *QueueRepository) LinkOrder(ctx context.Context, link *models.LinkedOrder, ev *models.TransitionEvent) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO ordens_fila_x(id, fila_x_id, ordem_id, tipo_ordem, data_vinculacao, empresa_id)
         VALUES($1, $2, $3, $4, $5, $6)`,
		link.ID, link.ItemID, link.OrderID, link.OrderType, link.LinkedAt, link.CompanyID)
	if err != nil {
		return err
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *QueueRepository) UnlinkOrder(ctx context.Context, companyID, itemID, orderID string, ev *models.TransitionEvent) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM ordens_fila_x
         WHERE fila_x_id=$1 AND ordem_id=$2 AND empresa_id=$3`,
		itemID, orderID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrNotFound
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *QueueRepository) ListLinks(ctx context.Context, companyID, itemID string) ([]*models.LinkedOrder, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, fila_x_id, ordem_id, tipo_ordem, data_vinculacao, empresa_id
         FROM ordens_fila_x
         WHERE fila_x_id=$1 AND empresa_id=$2
         ORDER BY data_vinculacao ASC`, itemID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.LinkedOrder
	for rows.Next() {
		var l models.LinkedOrder
		if err := rows.Scan(&l.ID, &l.ItemID, &l.OrderID, &l.OrderType, &l.LinkedAt, &l.CompanyID); err != nil {
			return nil, err
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}
