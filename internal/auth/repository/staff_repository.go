package repository

import (
	"errors"
	"time"

	"github.com/nepa-rudraksha/event-system/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type StaffRepository interface {
	Create(staff *domain.Staff) error
	FindByEmail(email string) (*domain.Staff, error)
	FindByID(id string) (*domain.Staff, error)
	Count() (int64, error)
	SaveRefreshToken(token *domain.RefreshToken) error
	FindRefreshToken(token string) (*domain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}

// staffRepository implements StaffRepository interface
type staffRepository struct {
	db *gorm.DB
}

// NewStaffRepository creates a new instance of staffRepository
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(staff *domain.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.New().String()
	}
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = time.Now()
	return r.db.Create(staff).Error
}

func (r *staffRepository) FindByEmail(email string) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.db.Where("email = ?", email).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) FindByID(id string) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.db.Where("id = ?", id).First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&domain.Staff{}).Count(&n).Error
	return n, err
}

func (r *staffRepository) SaveRefreshToken(token *domain.RefreshToken) error {
	// Clean up this staff member's expired tokens while we are here;
	// valid tokens on other devices stay usable.
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("staff_id = ? AND expires_at < ?", token.StaffID, time.Now()).
			Delete(&domain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *staffRepository) FindRefreshToken(token string) (*domain.RefreshToken, error) {
	var refreshToken domain.RefreshToken
	err := r.db.Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *staffRepository) DeleteRefreshToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&domain.RefreshToken{}).Error
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
