package auth

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/app/board"
	"taskboard/internal/app/user"
	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type service struct {
	db       *gorm.DB
	users    user.Repository
	boards   board.Service
	tokens   *TokenManager
	logger   *zap.SugaredLogger
	hashCost int
}

func NewService(db *gorm.DB, users user.Repository, boards board.Service, tokens *TokenManager, logger *zap.Logger) Service {
	return &service{
		db:       db,
		users:    users,
		boards:   boards,
		tokens:   tokens,
		logger:   logger.Sugar(),
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates the account together with its default board.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := models.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "All fields are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	u := &models.User{Name: name, Email: email, PasswordHash: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		_, err := s.boards.CreateDefault(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("User registered", "user_id", u.ID)
	return &AuthResponse{Token: token, User: u.Summary()}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apierrors.New(apierrors.ErrInvalidInput, "Email and password are required")
	}
	invalid := apierrors.New(apierrors.ErrInvalidInput, "Invalid credentials")

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, apierrors.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Login failed", "user_id", u.ID)
		return nil, invalid
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u.Summary()}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	invalid := apierrors.New(apierrors.ErrUnauthenticated, "Invalid token")
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, invalid
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, apierrors.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
