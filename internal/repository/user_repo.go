package repository

import (
	"ishrakaat/internal/domain"
	"ishrakaat/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Wallet").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) UpdatePassword(userID uint, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash).Error
}

func (r *UserRepository) SetProfilePicture(userID uint, url string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("profile_picture_url", url).Error
}

func (r *UserRepository) SetVirtualAccount(userID uint, customerCode, accountNumber, bankName string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"paystack_customer_code": customerCode,
		"virtual_account_number": accountNumber,
		"virtual_bank_name":      bankName,
	}).Error
}

func (r *UserRepository) Approve(userID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("approved_by_admin", true).Error
}

func (r *UserRepository) SetAdminLevel(userID uint, level string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("admin_level", level).Error
}

// scoped narrows a query to the geographic slice an admin may see. National
// admins see everything; lower levels only their own area.
func scoped(q *gorm.DB, admin *models.User) *gorm.DB {
	switch admin.AdminLevel {
	case domain.AdminLevelNational:
		return q
	case domain.AdminLevelState:
		return q.Where("state = ?", admin.State)
	case domain.AdminLevelLocalGovt:
		return q.Where("state = ? AND local_govt = ?", admin.State, admin.LocalGovt)
	case domain.AdminLevelWard:
		return q.Where("state = ? AND local_govt = ? AND ward = ?", admin.State, admin.LocalGovt, admin.Ward)
	default:
		// Not an admin: empty scope.
		return q.Where("1 = 0")
	}
}

// ListScoped pages through the users visible to the given admin. Pass
// pendingOnly to restrict to accounts awaiting approval.
func (r *UserRepository) ListScoped(admin *models.User, pendingOnly bool, limit, offset int) ([]models.User, int64, error) {
	q := scoped(r.db.Model(&models.User{}), admin)
	if pendingOnly {
		q = q.Where("approved_by_admin = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) CountScoped(admin *models.User) (int64, error) {
	var total int64
	err := scoped(r.db.Model(&models.User{}), admin).Count(&total).Error
	return total, err
}
