package repositories

import (
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"relayr/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT NOT NULL,
		events TEXT NOT NULL,
		secret TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		failure_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL,
		timeout_seconds INTEGER NOT NULL,
		headers TEXT,
		last_triggered_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		key TEXT UNIQUE NOT NULL,
		permissions TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		requests_per_minute INTEGER NOT NULL,
		requests_per_hour INTEGER NOT NULL,
		requests_per_day INTEGER NOT NULL,
		last_used_at INTEGER,
		usage_count INTEGER NOT NULL DEFAULT 0,
		expires_at INTEGER,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func testWebhook(userID string) *models.WebhookConfig {
	return &models.WebhookConfig{
		UserID:         userID,
		URL:            "https://example.com/hook",
		Events:         []string{"message_forwarded", "pair_created"},
		Secret:         "whsec_test",
		MaxRetries:     5,
		TimeoutSeconds: 10,
		Headers:        map[string]string{"X-Operator": "custom"},
	}
}

func TestWebhookRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)
	webhook := testWebhook("user1")

	if err := repo.Create(webhook); err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}
	if !strings.HasPrefix(webhook.ID, "wh_") {
		t.Errorf("Expected wh_ id, got %s", webhook.ID)
	}
	if !webhook.Active {
		t.Error("New webhooks should be active")
	}

	fetched, err := repo.GetByID(webhook.ID)
	if err != nil {
		t.Fatalf("Failed to get webhook: %v", err)
	}
	if fetched.URL != "https://example.com/hook" {
		t.Errorf("URL mismatch: %s", fetched.URL)
	}
	if len(fetched.Events) != 2 || fetched.Events[0] != "message_forwarded" {
		t.Errorf("Events mismatch: %v", fetched.Events)
	}
	if fetched.Headers["X-Operator"] != "custom" {
		t.Errorf("Headers mismatch: %v", fetched.Headers)
	}
	if fetched.LastTriggeredAt != nil {
		t.Error("Expected nil last_triggered_at on a fresh webhook")
	}
}

func TestWebhookRepository_GetByUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)
	repo.Create(testWebhook("user1"))
	repo.Create(testWebhook("user1"))
	repo.Create(testWebhook("user2"))

	webhooks, err := repo.GetByUser("user1")
	if err != nil {
		t.Fatalf("Failed to list webhooks: %v", err)
	}
	if len(webhooks) != 2 {
		t.Errorf("Expected 2 webhooks for user1, got %d", len(webhooks))
	}
}

func TestWebhookRepository_FailureBookkeeping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)
	webhook := testWebhook("user1")
	repo.Create(webhook)

	for i := 0; i < 3; i++ {
		if err := repo.IncrementFailureCount(webhook.ID); err != nil {
			t.Fatalf("Failed to increment: %v", err)
		}
	}

	fetched, _ := repo.GetByID(webhook.ID)
	if fetched.FailureCount != 3 {
		t.Errorf("Expected failure count 3, got %d", fetched.FailureCount)
	}

	if err := repo.ResetFailureCount(webhook.ID, 1700000000); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}

	fetched, _ = repo.GetByID(webhook.ID)
	if fetched.FailureCount != 0 {
		t.Errorf("Expected failure count 0 after reset, got %d", fetched.FailureCount)
	}
	if fetched.LastTriggeredAt == nil || *fetched.LastTriggeredAt != 1700000000 {
		t.Errorf("Expected last_triggered_at stamp, got %v", fetched.LastTriggeredAt)
	}
}

func TestWebhookRepository_Disable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)
	webhook := testWebhook("user1")
	repo.Create(webhook)

	if err := repo.Disable(webhook.ID); err != nil {
		t.Fatalf("Failed to disable: %v", err)
	}

	fetched, _ := repo.GetByID(webhook.ID)
	if fetched.Active {
		t.Error("Expected webhook to be inactive after Disable")
	}
}

func TestWebhookRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRepository(db)
	webhook := testWebhook("user1")
	repo.Create(webhook)

	webhook.URL = "https://example.com/v2"
	webhook.Events = []string{"error_occurred"}
	if err := repo.Update(webhook); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	fetched, _ := repo.GetByID(webhook.ID)
	if fetched.URL != "https://example.com/v2" {
		t.Errorf("Update not persisted: %s", fetched.URL)
	}

	if err := repo.Delete(webhook.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := repo.GetByID(webhook.ID); err == nil {
		t.Error("Expected error fetching deleted webhook")
	}
}
