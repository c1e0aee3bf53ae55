package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"hookd/internal/platform/models"
)

type EndpointRepository struct {
	db *sql.DB
}

func NewEndpointRepository(db *sql.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

func (r *EndpointRepository) Create(endpoint *models.Endpoint) error {
	endpoint.ID = "ep_" + uuid.New().String()
	endpoint.CreatedAt = time.Now().Unix()
	endpoint.UpdatedAt = endpoint.CreatedAt

	eventsJSON, err := json.Marshal(endpoint.Events)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO webhook_endpoints (id, url, name, description, events, active, secret, created_by, application_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		endpoint.ID, endpoint.URL, endpoint.Name, endpoint.Description,
		string(eventsJSON), endpoint.Active, endpoint.Secret, endpoint.CreatedBy,
		nullString(endpoint.ApplicationID), endpoint.CreatedAt, endpoint.UpdatedAt)
	return err
}

func (r *EndpointRepository) GetByID(id string) (*models.Endpoint, error) {
	query := `SELECT id, url, name, description, events, active, secret, created_by, application_id, created_at, updated_at
		FROM webhook_endpoints WHERE id = ?`
	return scanEndpoint(r.db.QueryRow(query, id))
}

func (r *EndpointRepository) List() ([]*models.Endpoint, error) {
	query := `SELECT id, url, name, description, events, active, secret, created_by, application_id, created_at, updated_at
		FROM webhook_endpoints ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []*models.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

// ListActiveForEvent returns active endpoints whose filter matches the event.
// The filter check runs in application code since events is a JSON column.
func (r *EndpointRepository) ListActiveForEvent(event string) ([]*models.Endpoint, error) {
	query := `SELECT id, url, name, description, events, active, secret, created_by, application_id, created_at, updated_at
		FROM webhook_endpoints WHERE active = 1`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*models.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		if e.Subscribed(event) {
			matched = append(matched, e)
		}
	}
	return matched, rows.Err()
}

func (r *EndpointRepository) Update(endpoint *models.Endpoint) error {
	eventsJSON, err := json.Marshal(endpoint.Events)
	if err != nil {
		return err
	}
	endpoint.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE webhook_endpoints
		SET url = ?, name = ?, description = ?, events = ?, active = ?, application_id = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query,
		endpoint.URL, endpoint.Name, endpoint.Description, string(eventsJSON),
		endpoint.Active, nullString(endpoint.ApplicationID), endpoint.UpdatedAt, endpoint.ID)
	return err
}

// Delete removes the endpoint; delivery history goes with it via ON DELETE CASCADE.
func (r *EndpointRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM webhook_endpoints WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEndpoint(row rowScanner) (*models.Endpoint, error) {
	var e models.Endpoint
	var description, applicationID sql.NullString
	var eventsStr string

	err := row.Scan(&e.ID, &e.URL, &e.Name, &description, &eventsStr, &e.Active,
		&e.Secret, &e.CreatedBy, &applicationID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.Description = description.String
	e.ApplicationID = applicationID.String
	if err := json.Unmarshal([]byte(eventsStr), &e.Events); err != nil {
		return nil, err
	}
	return &e, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
