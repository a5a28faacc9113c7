package repository

import (
	"time"

	"github.com/kinship-app/kinshipbackend/models"
	"gorm.io/gorm"
)

type GormClaimInviteRepository struct {
	db *gorm.DB
}

func NewGormClaimInviteRepository(db *gorm.DB) ClaimInviteRepository {
	return &GormClaimInviteRepository{db: db}
}

func (r *GormClaimInviteRepository) Create(invite *models.ClaimInvite) error {
	return r.db.Create(invite).Error
}

func (r *GormClaimInviteRepository) GetByCode(code string) (*models.ClaimInvite, error) {
	var invite models.ClaimInvite
	err := r.db.Where("code = ?", code).First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *GormClaimInviteRepository) ListByPersonID(personID string) ([]models.ClaimInvite, error) {
	var invites []models.ClaimInvite
	err := r.db.Where("person_id = ?", personID).Order("created_at DESC").Find(&invites).Error
	return invites, err
}

// MarkClaimed records which account redeemed the invite and deactivates it.
func (r *GormClaimInviteRepository) MarkClaimed(id uint, accountID string) error {
	return r.db.Model(&models.ClaimInvite{}).Where("id = ?", id).Updates(map[string]interface{}{
		"claimed_by_account_id": accountID,
		"is_active":             false,
	}).Error
}

// DeactivateExpired flips is_active off for every invite whose expiry has
// passed. Returns the number of invites swept.
func (r *GormClaimInviteRepository) DeactivateExpired(now time.Time) (int64, error) {
	result := r.db.Model(&models.ClaimInvite{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		UpdateColumn("is_active", false)
	return result.RowsAffected, result.Error
}

func (r *GormClaimInviteRepository) Delete(id uint) error {
	return r.db.Delete(&models.ClaimInvite{}, id).Error
}
