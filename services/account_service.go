package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"bazario/models"
	"bazario/repository"
	"bazario/utils"
)

// AccountService handles registration, login, email verification, profile
// self-service and the admin role operations.
type AccountService struct {
	users     repository.UserRepository
	outbox    repository.OutboxRepository
	tx        repository.TxManager
	jwtSecret string
	log       *logrus.Entry
}

func NewAccountService(users repository.UserRepository, outbox repository.OutboxRepository, tx repository.TxManager, jwtSecret string) *AccountService {
	return &AccountService{
		users:     users,
		outbox:    outbox,
		tx:        tx,
		jwtSecret: jwtSecret,
		log:       logrus.WithField("component", "accounts"),
	}
}

// Register creates an unverified account and queues the verification email.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := models.User{
		Name:              name,
		Email:             email,
		Password:          string(hash),
		Role:              models.RoleCustomer,
		VerificationToken: uuid.NewString(),
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, &u); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, models.EventVerification, models.EmailEvent{
			Kind:  models.EventVerification,
			To:    u.Email,
			Name:  u.Name,
			Token: u.VerificationToken,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", u.ID).Info("account registered")
	return &u, nil
}

// CreateAdmin seeds a pre-verified administrator account. Meant for the CLI,
// not the HTTP surface.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := models.User{
		Name:       name,
		Email:      email,
		Password:   string(hash),
		Role:       models.RoleAdmin,
		IsVerified: true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("admin account created")
	return &u, nil
}

// Verify marks the account behind the token as verified and burns the token.
func (s *AccountService) Verify(ctx context.Context, token string) (*models.User, error) {
	u, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	u.IsVerified = true
	u.VerificationToken = ""
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and returns a fresh bearer token. Unverified
// accounts are rejected even with correct credentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, "", ErrNotVerified
	}

	token, err := utils.GenerateToken(u.ID, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ProfileUpdate is the self-service change set; empty fields are kept.
type ProfileUpdate struct {
	Name     string
	Email    string
	Password string
}

// UpdateProfile applies the change set and returns the user with a fresh
// token.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Email != "" {
		u.Email = upd.Email
	}
	if upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", errors.Wrap(err, "hash password")
		}
		u.Password = string(hash)
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(u.ID, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AccountService) Get(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AccountService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Promote turns an account into a vendor.
func (s *AccountService) Promote(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = models.RoleVendor
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("user promoted to vendor")
	return u, nil
}

// Demote turns a vendor back into a customer; anything else is rejected.
func (s *AccountService) Demote(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleVendor {
		return nil, ErrNotVendor
	}
	u.Role = models.RoleCustomer
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("vendor demoted to customer")
	return u, nil
}

func (s *AccountService) Delete(ctx context.Context, userID int64) error {
	return s.users.Delete(ctx, userID)
}
