package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ishrakaat/config"
	"ishrakaat/internal/auth"
	"ishrakaat/internal/domain"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
	ErrInvalidCreds   = errors.New("invalid email or password")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	State     string
	LocalGovt string
	Ward      string
}

func (s *AuthService) Register(in RegisterInput) (*models.User, string, string, error) {
	_, err := s.userRepo.GetByEmail(in.Email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	_, err = s.userRepo.GetByUsername(in.Username)
	if err == nil {
		return nil, "", "", ErrUsernameExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		State:        in.State,
		LocalGovt:    in.LocalGovt,
		Ward:         in.Ward,
		AdminLevel:   domain.AdminLevelNone,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.AdminLevel)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.AdminLevel)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, nil
}

// LoginWithGoogle creates or finds the user by Google ID and returns user,
// tokens and an isNew flag. An existing email account gets the Google ID
// linked rather than duplicated.
func (s *AuthService) LoginWithGoogle(googleID, email, name, pictureURL string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.AdminLevel)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
		return u, access, refresh, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}

	existing, _ := s.userRepo.GetByEmail(email)
	if existing != nil {
		gid := googleID
		existing.GoogleID = &gid
		if pictureURL != "" && existing.ProfilePictureURL == "" {
			existing.ProfilePictureURL = pictureURL
		}
		if err := s.userRepo.Update(existing); err != nil {
			return nil, "", "", false, err
		}
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, existing.ID, existing.Email, existing.AdminLevel)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, existing.ID)
		return existing, access, refresh, false, nil
	}

	gid := googleID
	first, last := splitName(name)
	username := strings.Split(email, "@")[0]
	if name != "" {
		username = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	}
	if username == "" {
		username = "user" + fmt.Sprintf("%d", time.Now().UnixNano()%100000)
	}
	u = &models.User{
		Email:             email,
		Username:          username,
		GoogleID:          &gid,
		FirstName:         first,
		LastName:          last,
		ProfilePictureURL: pictureURL,
		AdminLevel:        domain.AdminLevelNone,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", false, err
	}
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.AdminLevel)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, true, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ChangePassword updates the user's password after verifying the current one.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil || u == nil {
		return ErrInvalidCreds
	}
	if u.PasswordHash == "" {
		return errors.New("account uses Google sign-in; set a password first")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(userID, string(hash))
}

func (s *AuthService) RefreshToken(refreshToken string) (access, refresh string, err error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", "", err
	}
	access, _ = auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.AdminLevel)
	refresh, _ = auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return access, refresh, nil
}
