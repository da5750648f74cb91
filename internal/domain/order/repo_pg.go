package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/orders/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, order_number, patient_id, concept_code, concept_display,
	order_type, care_setting, orderer_id, encounter_id, instructions,
	date_activated, scheduled_date, date_stopped, auto_expire_date,
	urgency, action, previous_order_id,
	order_reason_code, order_reason_non_coded, comment_to_fulfiller,
	accession_number, voided, void_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.PatientID, &o.ConceptCode, &o.ConceptDisplay,
		&o.OrderType, &o.CareSetting, &o.OrdererID, &o.EncounterID, &o.Instructions,
		&o.DateActivated, &o.ScheduledDate, &o.DateStopped, &o.AutoExpireDate,
		&o.Urgency, &o.Action, &o.PreviousOrderID,
		&o.OrderReasonCode, &o.OrderReasonNonCoded, &o.CommentToFulfiller,
		&o.AccessionNumber, &o.Voided, &o.VoidReason, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

const insertOrderSQL = `
	INSERT INTO orders (id, order_number, patient_id, concept_code, concept_display,
		order_type, care_setting, orderer_id, encounter_id, instructions,
		date_activated, scheduled_date, date_stopped, auto_expire_date,
		urgency, action, previous_order_id,
		order_reason_code, order_reason_non_coded, comment_to_fulfiller,
		accession_number, voided, void_reason)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`

func insertArgs(o *Order) []interface{} {
	return []interface{}{
		o.ID, o.OrderNumber, o.PatientID, o.ConceptCode, o.ConceptDisplay,
		o.OrderType, o.CareSetting, o.OrdererID, o.EncounterID, o.Instructions,
		o.DateActivated, o.ScheduledDate, o.DateStopped, o.AutoExpireDate,
		o.Urgency, o.Action, o.PreviousOrderID,
		o.OrderReasonCode, o.OrderReasonNonCoded, o.CommentToFulfiller,
		o.AccessionNumber, o.Voided, o.VoidReason,
	}
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	if o.OrderNumber == "" {
		o.OrderNumber = newOrderNumber(o.ID)
	}
	_, err := r.conn(ctx).Exec(ctx, insertOrderSQL, insertArgs(o)...)
	return err
}

// newOrderNumber derives a human-quotable order number from the record id.
func newOrderNumber(id uuid.UUID) string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
}

func (r *repoPG) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE order_number = $1`, orderNumber))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectOrders(rows, total)
}

// orderSearchCols maps query parameters to columns. All are exact-match
// token-style filters.
var orderSearchCols = map[string]string{
	"patient":    "patient_id",
	"concept":    "concept_code",
	"order_type": "order_type",
	"urgency":    "urgency",
	"action":     "action",
	"voided":     "voided",
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Order, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	for param, col := range orderSearchCols {
		if v, ok := params[param]; ok {
			args = append(args, v)
			where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			orderCols, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectOrders(rows, total)
}

func collectOrders(rows pgx.Rows, total int) ([]*Order, int, error) {
	var result []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repoPG) Supersede(ctx context.Context, successor *Order, predecessorID uuid.UUID, stopAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	successor.ID = uuid.New()
	if successor.OrderNumber == "" {
		successor.OrderNumber = newOrderNumber(successor.ID)
	}
	if _, err := tx.Exec(ctx, insertOrderSQL, insertArgs(successor)...); err != nil {
		return fmt.Errorf("insert successor order: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET date_stopped = $2, updated_at = NOW() WHERE id = $1`,
		predecessorID, stopAt)
	if err != nil {
		return fmt.Errorf("stop predecessor order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("predecessor order %s not found", predecessorID)
	}

	return tx.Commit(ctx)
}

func (r *repoPG) Void(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE orders SET voided = TRUE, void_reason = $2, updated_at = NOW() WHERE id = $1`, id, reason)
	return err
}
