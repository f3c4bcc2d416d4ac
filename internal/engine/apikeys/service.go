package apikeys

import (
	"database/sql"
	"errors"
	"time"

	"relayr/internal/engine/credentials"
	"relayr/internal/engine/ratelimit"
	"relayr/internal/platform/models"
)

// Typed validation outcomes. The request layer maps these to user-visible
// responses; they are never surfaced as unexpected faults.
var (
	ErrInvalidKey  = errors.New("apikeys: key not found")
	ErrKeyDisabled = errors.New("apikeys: key disabled")
	ErrKeyExpired  = errors.New("apikeys: key expired")
	ErrRateLimited = errors.New("apikeys: rate limit exceeded")

	ErrNotFound     = errors.New("apikeys: key record not found")
	ErrNotOwner     = errors.New("apikeys: key owned by another user")
	ErrInvalidLimit = errors.New("apikeys: rate limit windows must be positive")
)

// Store is the persistence collaborator for API keys.
// *repositories.APIKeyRepository is the production implementation.
type Store interface {
	Create(key *models.APIKey) error
	GetByID(id string) (*models.APIKey, error)
	GetByKey(key string) (*models.APIKey, error)
	GetByUser(userID string) ([]*models.APIKey, error)
	Update(key *models.APIKey) error
	Delete(id string) error
	RecordUsage(id string, usedAt int64) error
}

// Defaults applied to new keys when the caller leaves limits unset.
type Defaults struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// KeyUpdate is a partial edit; nil fields are left untouched.
type KeyUpdate struct {
	Name              *string
	Permissions       []string
	Active            *bool
	RequestsPerMinute *int
	RequestsPerHour   *int
	RequestsPerDay    *int
	ExpiresAt         *int64
}

// Service owns API-key administration and the synchronous validation path
// consulted by inbound programmatic requests.
type Service struct {
	store    Store
	limiter  *ratelimit.Limiter
	defaults Defaults
	now      func() time.Time
}

func NewService(store Store, limiter *ratelimit.Limiter, defaults Defaults) *Service {
	return &Service{
		store:    store,
		limiter:  limiter,
		defaults: defaults,
		now:      time.Now,
	}
}

// Create mints the key and persists the record. This is the only read
// path that returns the raw key value with the record.
func (s *Service) Create(userID, name string, permissions []string, expiresAt *int64) (*models.APIKey, string, error) {
	rawKey := credentials.NewAPIKey()

	key := &models.APIKey{
		UserID:            userID,
		Name:              name,
		Key:               rawKey,
		Permissions:       permissions,
		RequestsPerMinute: s.defaults.RequestsPerMinute,
		RequestsPerHour:   s.defaults.RequestsPerHour,
		RequestsPerDay:    s.defaults.RequestsPerDay,
		ExpiresAt:         expiresAt,
	}
	if err := s.store.Create(key); err != nil {
		return nil, "", err
	}
	return key, rawKey, nil
}

func (s *Service) List(userID string) ([]*models.APIKey, error) {
	keys, err := s.store.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		k.Key = ""
	}
	return keys, nil
}

func (s *Service) Update(userID, id string, update KeyUpdate) (*models.APIKey, error) {
	// A zero or negative window would reject every request.
	for _, limit := range []*int{update.RequestsPerMinute, update.RequestsPerHour, update.RequestsPerDay} {
		if limit != nil && *limit <= 0 {
			return nil, ErrInvalidLimit
		}
	}

	key, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		key.Name = *update.Name
	}
	if update.Permissions != nil {
		key.Permissions = update.Permissions
	}
	if update.Active != nil {
		key.Active = *update.Active
	}
	if update.RequestsPerMinute != nil {
		key.RequestsPerMinute = *update.RequestsPerMinute
	}
	if update.RequestsPerHour != nil {
		key.RequestsPerHour = *update.RequestsPerHour
	}
	if update.RequestsPerDay != nil {
		key.RequestsPerDay = *update.RequestsPerDay
	}
	if update.ExpiresAt != nil {
		key.ExpiresAt = update.ExpiresAt
	}

	if err := s.store.Update(key); err != nil {
		return nil, err
	}
	key.Key = ""
	return key, nil
}

func (s *Service) Delete(userID, id string) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	return s.store.Delete(id)
}

// Validate is the synchronous read path for inbound API requests: resolve
// the key, reject disabled/expired keys, consume one request from each
// rate-limit window, then stamp usage. The caller already holds the raw
// key, so the returned record is safe to hand downstream.
func (s *Service) Validate(rawKey string) (*models.APIKey, error) {
	key, err := s.store.GetByKey(rawKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		// A store fault is not a bad credential; let the caller surface it.
		return nil, err
	}
	if !key.Active {
		return nil, ErrKeyDisabled
	}
	if key.ExpiresAt != nil && *key.ExpiresAt < s.now().Unix() {
		return nil, ErrKeyExpired
	}

	allowed := s.limiter.Allow(rawKey, ratelimit.Limits{
		PerMinute: key.RequestsPerMinute,
		PerHour:   key.RequestsPerHour,
		PerDay:    key.RequestsPerDay,
	})
	if !allowed {
		return nil, ErrRateLimited
	}

	usedAt := s.now().Unix()
	if err := s.store.RecordUsage(key.ID, usedAt); err != nil {
		return nil, err
	}
	key.LastUsedAt = &usedAt
	key.UsageCount++

	return key, nil
}

func (s *Service) owned(userID, id string) (*models.APIKey, error) {
	key, err := s.store.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if key.UserID != userID {
		return nil, ErrNotOwner
	}
	return key, nil
}
