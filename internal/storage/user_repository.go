package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/internal/models"
	"github.com/KasierBach/DatamartDashboard-with-React-Vite-Prisma-sub001/pkg/apperr"
)

// UserRepository is a read-only view over the auth subsystem's users table.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, errors.Wrap(err, "userRepo.GetByID")
	}
	return &u, nil
}

// ListAvailable returns every user except the requester, for starting
// new conversations.
func (r *UserRepository) ListAvailable(excludeUserID uint) ([]models.User, error) {
	var users []models.User
	result := r.db.Where("id <> ?", excludeUserID).Order("name asc").Find(&users)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "userRepo.ListAvailable")
	}
	return users, nil
}
