package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"hookd/internal/platform/models"
)

type DeliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(delivery *models.Delivery) error {
	delivery.ID = "dl_" + uuid.New().String()
	delivery.Status = models.DeliveryStatusPending
	delivery.Attempts = 0
	delivery.CreatedAt = time.Now().Unix()
	delivery.UpdatedAt = delivery.CreatedAt
	if delivery.NextAttemptAt == 0 {
		delivery.NextAttemptAt = delivery.CreatedAt
	}

	query := `
		INSERT INTO webhook_deliveries (id, endpoint_id, event, payload, status, attempts, next_attempt_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		delivery.ID, delivery.EndpointID, delivery.Event, delivery.Payload,
		delivery.Status, delivery.Attempts, delivery.NextAttemptAt,
		delivery.CreatedAt, delivery.UpdatedAt)
	return err
}

func (r *DeliveryRepository) GetByID(id string) (*models.Delivery, error) {
	query := `SELECT id, endpoint_id, event, payload, status, attempts, response_code, response_body, delivered_at, next_attempt_at, created_at, updated_at
		FROM webhook_deliveries WHERE id = ?`
	return scanDelivery(r.db.QueryRow(query, id))
}

func (r *DeliveryRepository) ListByEndpoint(endpointID string) ([]*models.Delivery, error) {
	query := `SELECT id, endpoint_id, event, payload, status, attempts, response_code, response_body, delivered_at, next_attempt_at, created_at, updated_at
		FROM webhook_deliveries WHERE endpoint_id = ? ORDER BY created_at DESC`
	rows, err := r.db.Query(query, endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// ListDue returns deliveries ready for a dispatch attempt: pending or retrying
// rows whose next_attempt_at has passed. Terminal rows are never returned.
func (r *DeliveryRepository) ListDue(now int64, limit int) ([]*models.Delivery, error) {
	query := `SELECT id, endpoint_id, event, payload, status, attempts, response_code, response_body, delivered_at, next_attempt_at, created_at, updated_at
		FROM webhook_deliveries
		WHERE status IN (?, ?) AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC
		LIMIT ?`
	rows, err := r.db.Query(query, models.DeliveryStatusPending, models.DeliveryStatusRetrying, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// MarkDelivered transitions to the delivered terminal state and records the
// response. Attempts increments by one, as on every other transition.
func (r *DeliveryRepository) MarkDelivered(id string, code int, body string) error {
	now := time.Now().Unix()
	query := `
		UPDATE webhook_deliveries
		SET status = ?, attempts = attempts + 1, response_code = ?, response_body = ?, delivered_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.DeliveryStatusDelivered, code,
		models.TruncateResponseBody(body), now, now, id)
	return err
}

// MarkFailed transitions to the failed terminal state. Pass hasResponse=false
// when no attempt reached the network (e.g. the endpoint was deactivated).
func (r *DeliveryRepository) MarkFailed(id string, code int, body string, hasResponse bool) error {
	now := time.Now().Unix()
	if !hasResponse {
		query := `
			UPDATE webhook_deliveries
			SET status = ?, attempts = attempts + 1, updated_at = ?
			WHERE id = ?
		`
		_, err := r.db.Exec(query, models.DeliveryStatusFailed, now, id)
		return err
	}

	query := `
		UPDATE webhook_deliveries
		SET status = ?, attempts = attempts + 1, response_code = ?, response_body = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.DeliveryStatusFailed, code,
		models.TruncateResponseBody(body), now, id)
	return err
}

// MarkRetrying records a failed attempt that will be retried at nextAttemptAt.
// Response fields from the attempt are kept for the delivery history.
func (r *DeliveryRepository) MarkRetrying(id string, code int, body string, hasResponse bool, nextAttemptAt int64) error {
	now := time.Now().Unix()
	if !hasResponse {
		query := `
			UPDATE webhook_deliveries
			SET status = ?, attempts = attempts + 1, next_attempt_at = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := r.db.Exec(query, models.DeliveryStatusRetrying, nextAttemptAt, now, id)
		return err
	}

	query := `
		UPDATE webhook_deliveries
		SET status = ?, attempts = attempts + 1, response_code = ?, response_body = ?, next_attempt_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.DeliveryStatusRetrying, code,
		models.TruncateResponseBody(body), nextAttemptAt, now, id)
	return err
}

func scanDelivery(row rowScanner) (*models.Delivery, error) {
	var d models.Delivery
	var responseCode sql.NullInt64
	var responseBody sql.NullString
	var deliveredAt sql.NullInt64

	err := row.Scan(&d.ID, &d.EndpointID, &d.Event, &d.Payload, &d.Status, &d.Attempts,
		&responseCode, &responseBody, &deliveredAt, &d.NextAttemptAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if responseCode.Valid {
		code := int(responseCode.Int64)
		d.ResponseCode = &code
	}
	d.ResponseBody = responseBody.String
	if deliveredAt.Valid {
		ts := deliveredAt.Int64
		d.DeliveredAt = &ts
	}
	return &d, nil
}
