package usecase

import (
	"errors"
	"log"
	"time"

	"github.com/nepa-rudraksha/event-system/internal/auth/domain"
	"github.com/nepa-rudraksha/event-system/internal/auth/dto"
	"github.com/nepa-rudraksha/event-system/internal/auth/repository"
	"github.com/nepa-rudraksha/event-system/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email already registered")
)

type AuthUsecase interface {
	Login(req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(refreshToken string) (*dto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*domain.Staff, error)
	CreateStaff(req *dto.CreateStaffRequest) (*domain.Staff, error)
	EnsureAdmin(email, password string) error
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	staffRepo repository.StaffRepository
	config    *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(staffRepo repository.StaffRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		staffRepo: staffRepo,
		config:    cfg,
	}
}

func (u *authUsecase) Login(req *dto.LoginRequest) (*dto.TokenResponse, error) {
	staff, err := u.staffRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrInvalidCredentials
	}
	if !repository.CheckPasswordHash(req.Password, staff.Password) {
		return nil, ErrInvalidCredentials
	}
	return u.generateTokens(staff)
}

func (u *authUsecase) Refresh(refreshToken string) (*dto.TokenResponse, error) {
	stored, err := u.staffRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	staff, err := u.staffRepo.FindByID(stored.StaffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrInvalidToken
	}

	// Rotate: the old refresh token is spent.
	if err := u.staffRepo.DeleteRefreshToken(refreshToken); err != nil {
		return nil, err
	}
	return u.generateTokens(staff)
}

func (u *authUsecase) Logout(refreshToken string) error {
	return u.staffRepo.DeleteRefreshToken(refreshToken)
}

func (u *authUsecase) ValidateToken(tokenString string) (*domain.Staff, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	staffID, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	staff, err := u.staffRepo.FindByID(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrInvalidToken
	}
	return staff, nil
}

func (u *authUsecase) CreateStaff(req *dto.CreateStaffRequest) (*domain.Staff, error) {
	role := domain.Role(req.Role)
	if !role.Valid() {
		return nil, errors.New("role must be expert or admin")
	}

	existing, err := u.staffRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	staff := &domain.Staff{
		Email:    req.Email,
		Password: hashed,
		Name:     req.Name,
		Role:     role,
	}
	if err := u.staffRepo.Create(staff); err != nil {
		return nil, err
	}
	return staff, nil
}

// EnsureAdmin creates the bootstrap admin account when the staff table
// is empty. A no-op once any account exists or when no password is
// configured.
func (u *authUsecase) EnsureAdmin(email, password string) error {
	if password == "" {
		return nil
	}
	n, err := u.staffRepo.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hashed, err := repository.HashPassword(password)
	if err != nil {
		return err
	}
	log.Printf("[Auth] Creating bootstrap admin account %s", email)
	return u.staffRepo.Create(&domain.Staff{
		Email:    email,
		Password: hashed,
		Name:     "Administrator",
		Role:     domain.RoleAdmin,
	})
}

func (u *authUsecase) generateTokens(staff *domain.Staff) (*dto.TokenResponse, error) {
	accessToken, err := u.generateAccessToken(staff)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()
	if err := u.staffRepo.SaveRefreshToken(&domain.RefreshToken{
		Token:     refreshToken,
		StaffID:   staff.ID,
		ExpiresAt: time.Now().Add(u.config.JWTRefreshExpiry),
	}); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Staff:        staff,
	}, nil
}

func (u *authUsecase) generateAccessToken(staff *domain.Staff) (string, error) {
	claims := jwt.MapClaims{
		"sub":   staff.ID,
		"email": staff.Email,
		"role":  string(staff.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(u.config.JWTAccessExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}
