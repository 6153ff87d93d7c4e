package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/autoremind/autoremind/internal/auth/domain"
	"github.com/autoremind/autoremind/internal/auth/password"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionTTL = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, domain.ErrInvalidPassword
	}

	existing, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertUser(ctx, s.db, user); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, s.db, hashToken(rawToken))
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, domain.ErrSessionExpired
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if session == nil || session.ExpiresAt.Before(time.Now().UTC()) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindUserByID(ctx, s.db, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrSessionExpired
	}
	return user, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID snowflake.ID) error {
	user, err := s.repo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	// The schema cascades to client records, settings and subscription.
	return s.repo.DeleteUser(ctx, s.db, userID)
}

func (s *Service) ListTenantIDs(ctx context.Context) ([]snowflake.ID, error) {
	return s.repo.ListUserIDs(ctx, s.db)
}

func (s *Service) openSession(ctx context.Context, user *domain.User) (*domain.LoginResult, error) {
	rawToken := uuid.NewString()
	now := time.Now().UTC()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
	}
	if err := s.repo.InsertSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	// Opportunistic cleanup of stale sessions.
	if err := s.repo.DeleteExpiredSessions(ctx, s.db, now); err != nil {
		s.log.Warn("expired session cleanup failed", zap.Error(err))
	}

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
