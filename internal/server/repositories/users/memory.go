package users

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a map-backed Repository for tests and database-less runs.
// Emails are matched case-sensitively, like the unique index in PostgreSQL.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(user.Email) == "" {
		return nil, fmt.Errorf("db error: empty email")
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, fmt.Errorf("db error: email %q already registered", user.Email)
	}

	cp := *user
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.DateJoined.IsZero() {
		cp.DateJoined = time.Now().UTC()
	}
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = cp.ID

	user.ID = cp.ID
	user.DateJoined = cp.DateJoined
	return user, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

// SetActive flips the active flag; user management owns this in production.
func (r *MemoryRepository) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	return nil
}
