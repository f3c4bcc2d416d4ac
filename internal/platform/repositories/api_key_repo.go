package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"relayr/internal/platform/models"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

const apiKeyColumns = `id, user_id, name, key, permissions, active, requests_per_minute, requests_per_hour, requests_per_day, last_used_at, usage_count, expires_at, created_at`

func (r *APIKeyRepository) Create(key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	key.CreatedAt = time.Now().Unix()
	key.Active = true

	permissionsJSON, err := json.Marshal(key.Permissions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO api_keys (id, user_id, name, key, permissions, active, requests_per_minute, requests_per_hour, requests_per_day, usage_count, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`
	_, err = r.db.Exec(query, key.ID, key.UserID, key.Name, key.Key, string(permissionsJSON), key.Active,
		key.RequestsPerMinute, key.RequestsPerHour, key.RequestsPerDay, key.ExpiresAt, key.CreatedAt)
	return err
}

func (r *APIKeyRepository) GetByID(id string) (*models.APIKey, error) {
	row := r.db.QueryRow(`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
	return scanAPIKey(row)
}

func (r *APIKeyRepository) GetByKey(key string) (*models.APIKey, error) {
	row := r.db.QueryRow(`SELECT `+apiKeyColumns+` FROM api_keys WHERE key = ?`, key)
	return scanAPIKey(row)
}

func (r *APIKeyRepository) GetByUser(userID string) ([]*models.APIKey, error) {
	rows, err := r.db.Query(`SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepository) Update(key *models.APIKey) error {
	permissionsJSON, err := json.Marshal(key.Permissions)
	if err != nil {
		return err
	}

	query := `
		UPDATE api_keys
		SET name = ?, permissions = ?, active = ?, requests_per_minute = ?, requests_per_hour = ?, requests_per_day = ?, expires_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, key.Name, string(permissionsJSON), key.Active,
		key.RequestsPerMinute, key.RequestsPerHour, key.RequestsPerDay, key.ExpiresAt, key.ID)
	return err
}

func (r *APIKeyRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM api_keys WHERE id = ?`, id)
	return err
}

func (r *APIKeyRepository) RecordUsage(id string, usedAt int64) error {
	_, err := r.db.Exec(`UPDATE api_keys SET last_used_at = ?, usage_count = usage_count + 1 WHERE id = ?`, usedAt, id)
	return err
}

func scanAPIKey(row rowScanner) (*models.APIKey, error) {
	var k models.APIKey
	var permissionsStr string
	var lastUsedAt, expiresAt sql.NullInt64

	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.Key, &permissionsStr, &k.Active,
		&k.RequestsPerMinute, &k.RequestsPerHour, &k.RequestsPerDay, &lastUsedAt, &k.UsageCount, &expiresAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lastUsedAt.Valid {
		k.LastUsedAt = &lastUsedAt.Int64
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Int64
	}
	json.Unmarshal([]byte(permissionsStr), &k.Permissions)

	return &k, nil
}
