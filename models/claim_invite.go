package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimInvite lets a relative claim an existing person in the tree as their own
// account. The creator of a person hands the code (plus a free-text message) to
// the real person behind the record; redeeming it transfers ownership.
type ClaimInvite struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Code               string     `json:"code" gorm:"uniqueIndex;not null"`
	PersonID           string     `json:"person_id" gorm:"index;not null"`
	Message            string     `json:"message"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty" gorm:"index"` // Nullable for no expiration
	IsActive           bool       `json:"is_active" gorm:"default:true"`
	CreatedByAccountID string     `json:"created_by_account_id"`
	ClaimedByAccountID *string    `json:"claimed_by_account_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BeforeCreate generates a unique code if not provided.
func (ci *ClaimInvite) BeforeCreate(tx *gorm.DB) (err error) {
	if ci.Code == "" {
		ci.Code = uuid.New().String()
	}
	return
}

// IsValid checks if the invite can still be redeemed.
func (ci *ClaimInvite) IsValid() bool {
	if !ci.IsActive {
		return false
	}
	if ci.ClaimedByAccountID != nil {
		return false
	}
	if ci.ExpiresAt != nil && time.Now().After(*ci.ExpiresAt) {
		return false
	}
	return true
}
