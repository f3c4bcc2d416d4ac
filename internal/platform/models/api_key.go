package models

// APIKey grants programmatic access scoped by a permission set and a
// three-window rate-limit configuration. The raw key value is only ever
// handed out at creation time; JSON serialization always omits it.
type APIKey struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	Name              string   `json:"name"`
	Key               string   `json:"-"`
	Permissions       []string `json:"permissions"` // JSON array in DB
	Active            bool     `json:"active"`
	RequestsPerMinute int      `json:"requests_per_minute"`
	RequestsPerHour   int      `json:"requests_per_hour"`
	RequestsPerDay    int      `json:"requests_per_day"`
	LastUsedAt        *int64   `json:"last_used_at,omitempty"`
	UsageCount        int64    `json:"usage_count"`
	ExpiresAt         *int64   `json:"expires_at,omitempty"`
	CreatedAt         int64    `json:"created_at"`
}

// HasPermission reports whether the key carries the named permission or
// the wildcard.
func (k *APIKey) HasPermission(perm string) bool {
	for _, p := range k.Permissions {
		if p == perm || p == "*" {
			return true
		}
	}
	return false
}
