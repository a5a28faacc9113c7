package repository

import (
	"context"
	"time"

	"github.com/kinship-app/kinshipbackend/models"
)

// PersonStoreInterface defines the storage contract the graph engines are
// built against. The engines never touch the database directly.
type PersonStoreInterface interface {
	Get(ctx context.Context, id string) (*models.Person, error)
	GetMany(ctx context.Context, ids []string) ([]models.Person, error)
	ListRoots(ctx context.Context) ([]models.Person, error)
	SearchByName(ctx context.Context, query string) ([]models.Person, error)
	Stats(ctx context.Context) (TreeStats, error)
	RunTransaction(ctx context.Context, fn func(tx *Tx) error) error
}

// AccountRepository defines the methods for account data operations
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id string) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	Update(account *models.Account) error
	Delete(id string) error
}

// ClaimInviteRepository defines the methods for claim invite data operations
type ClaimInviteRepository interface {
	Create(invite *models.ClaimInvite) error
	GetByCode(code string) (*models.ClaimInvite, error)
	ListByPersonID(personID string) ([]models.ClaimInvite, error)
	MarkClaimed(id uint, accountID string) error
	DeactivateExpired(now time.Time) (int64, error)
	Delete(id uint) error
}
