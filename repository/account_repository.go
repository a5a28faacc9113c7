package repository

import (
	"github.com/kinship-app/kinshipbackend/models"
	"gorm.io/gorm"
)

type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) AccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

func (r *GormAccountRepository) GetByID(id string) (*models.Account, error) {
	var account models.Account
	err := r.db.First(&account, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *GormAccountRepository) GetByEmail(email string) (*models.Account, error) {
	var account models.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *GormAccountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}

func (r *GormAccountRepository) Delete(id string) error {
	return r.db.Delete(&models.Account{}, "id = ?", id).Error
}
