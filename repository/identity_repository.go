package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/yashrajoria/streetkit/models"
	"gorm.io/gorm"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrDuplicatePhone   = errors.New("phone number already registered")
)

// IdentityRepository is the directory of known users.
type IdentityRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	Create(ctx context.Context, identity *models.Identity) error
	UpdateAvatar(ctx context.Context, id, avatarRef string) error
}

// MemoryIdentityRepository keeps identities in process memory.
type MemoryIdentityRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Identity
	byPhone map[string]string
}

func NewMemoryIdentityRepository(seed ...models.Identity) *MemoryIdentityRepository {
	r := &MemoryIdentityRepository{
		byID:    make(map[string]*models.Identity),
		byPhone: make(map[string]string),
	}
	for i := range seed {
		identity := seed[i]
		_ = r.Create(context.Background(), &identity)
	}
	return r
}

func (r *MemoryIdentityRepository) FindByPhone(_ context.Context, phone string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryIdentityRepository) FindByID(_ context.Context, id string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.byID[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	cp := *identity
	return &cp, nil
}

func (r *MemoryIdentityRepository) Create(_ context.Context, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPhone[identity.PhoneNumber]; exists {
		return ErrDuplicatePhone
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	cp := *identity
	r.byID[cp.ID] = &cp
	r.byPhone[cp.PhoneNumber] = cp.ID
	return nil
}

func (r *MemoryIdentityRepository) UpdateAvatar(_ context.Context, id, avatarRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	identity.AvatarRef = avatarRef
	return nil
}

// GormIdentityRepository stores identities in Postgres.
type GormIdentityRepository struct {
	db *gorm.DB
}

func NewGormIdentityRepository(db *gorm.DB) *GormIdentityRepository {
	return &GormIdentityRepository{db: db}
}

func (r *GormIdentityRepository) FindByPhone(ctx context.Context, phone string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&identity).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &identity, nil
}

func (r *GormIdentityRepository) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &identity, nil
}

func (r *GormIdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(identity).Error
	if err != nil && isDuplicate(err) {
		return ErrDuplicatePhone
	}
	return err
}

func (r *GormIdentityRepository) UpdateAvatar(ctx context.Context, id, avatarRef string) error {
	res := r.db.WithContext(ctx).Model(&models.Identity{}).Where("id = ?", id).Update("avatar_ref", avatarRef)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrIdentityNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
