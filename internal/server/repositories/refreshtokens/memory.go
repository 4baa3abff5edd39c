package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps records in a map. It is meant for tests and local
// runs without a database.
type MemoryRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]*models.RefreshToken
}

func NewMemoryRepository(opts ...Option) *MemoryRepository {
	o := buildOptions(opts)
	return &MemoryRepository{now: o.now, records: make(map[string]*models.RefreshToken)}
}

func (r *MemoryRepository) Create(_ context.Context, userID, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[tokenID]; ok {
		return common.ErrDuplicateTokenID
	}
	r.records[tokenID] = &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
		CreatedAt: r.now(),
	}
	return nil
}

func (r *MemoryRepository) FindActive(_ context.Context, tokenID string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[tokenID]
	if !ok || !t.Active(r.now()) {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, tokenID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.records[tokenID]; ok && t.UserID == userID {
		t.Revoked = true
	}
	return nil
}

// Get returns a copy of the record regardless of its state.
func (r *MemoryRepository) Get(tokenID string) (models.RefreshToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[tokenID]
	if !ok {
		return models.RefreshToken{}, false
	}
	return *t, true
}
