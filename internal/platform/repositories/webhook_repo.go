package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"relayr/internal/platform/models"
)

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

const webhookColumns = `id, user_id, url, events, secret, active, failure_count, max_retries, timeout_seconds, headers, last_triggered_at, created_at, updated_at`

func (r *WebhookRepository) Create(webhook *models.WebhookConfig) error {
	if webhook.ID == "" {
		webhook.ID = "wh_" + uuid.New().String()
	}
	webhook.CreatedAt = time.Now().Unix()
	webhook.UpdatedAt = webhook.CreatedAt
	webhook.Active = true

	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}
	headersJSON, err := json.Marshal(webhook.Headers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO webhooks (id, user_id, url, events, secret, active, failure_count, max_retries, timeout_seconds, headers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, webhook.ID, webhook.UserID, webhook.URL, string(eventsJSON), webhook.Secret,
		webhook.Active, webhook.MaxRetries, webhook.TimeoutSeconds, string(headersJSON), webhook.CreatedAt, webhook.UpdatedAt)
	return err
}

func (r *WebhookRepository) GetByID(id string) (*models.WebhookConfig, error) {
	row := r.db.QueryRow(`SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id)
	return scanWebhook(row)
}

func (r *WebhookRepository) GetByUser(userID string) ([]*models.WebhookConfig, error) {
	rows, err := r.db.Query(`SELECT `+webhookColumns+` FROM webhooks WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []*models.WebhookConfig
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (r *WebhookRepository) Update(webhook *models.WebhookConfig) error {
	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}
	headersJSON, err := json.Marshal(webhook.Headers)
	if err != nil {
		return err
	}
	webhook.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE webhooks
		SET url = ?, events = ?, secret = ?, active = ?, failure_count = ?, max_retries = ?, timeout_seconds = ?, headers = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, webhook.URL, string(eventsJSON), webhook.Secret, webhook.Active,
		webhook.FailureCount, webhook.MaxRetries, webhook.TimeoutSeconds, string(headersJSON), webhook.UpdatedAt, webhook.ID)
	return err
}

func (r *WebhookRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM webhooks WHERE id = ?`, id)
	return err
}

func (r *WebhookRepository) IncrementFailureCount(id string) error {
	_, err := r.db.Exec(`UPDATE webhooks SET failure_count = failure_count + 1, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func (r *WebhookRepository) ResetFailureCount(id string, lastTriggeredAt int64) error {
	_, err := r.db.Exec(`UPDATE webhooks SET failure_count = 0, last_triggered_at = ?, updated_at = ? WHERE id = ?`, lastTriggeredAt, time.Now().Unix(), id)
	return err
}

func (r *WebhookRepository) Disable(id string) error {
	_, err := r.db.Exec(`UPDATE webhooks SET active = 0, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWebhook(row rowScanner) (*models.WebhookConfig, error) {
	var w models.WebhookConfig
	var eventsStr, headersStr string
	var lastTriggeredAt sql.NullInt64

	err := row.Scan(&w.ID, &w.UserID, &w.URL, &eventsStr, &w.Secret, &w.Active, &w.FailureCount,
		&w.MaxRetries, &w.TimeoutSeconds, &headersStr, &lastTriggeredAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastTriggeredAt.Valid {
		w.LastTriggeredAt = &lastTriggeredAt.Int64
	}
	json.Unmarshal([]byte(eventsStr), &w.Events)
	json.Unmarshal([]byte(headersStr), &w.Headers)

	return &w, nil
}
