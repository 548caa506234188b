// Package services contains server-side business logic. This file implements
// UserService: registration, login, refresh-token rotation and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/dbx"
	"github.com/dmitrijs2005/eventphotos/internal/server/auth"
	"github.com/dmitrijs2005/eventphotos/internal/server/models"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Session is what a successful login yields.
type Session struct {
	Tokens *TokenPair
	User   *models.User
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	signer      *auth.Signer
	hasher      *auth.PasswordHasher
	now         func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, signer *auth.Signer, hasher *auth.PasswordHasher) *UserService {
	return &UserService{repomanager: m, signer: signer, hasher: hasher, now: time.Now}
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. A taken email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if len(in.Password) < common.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, common.MinPasswordLength)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         in.Name,
	}

	u, err := s.repomanager.Users(s.repomanager.Conn()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues a token pair. Unknown email and wrong
// password both yield common.ErrInvalidCredentials after comparable work.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	db := s.repomanager.Conn()

	user, err := s.repomanager.Users(db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	ok, err := s.hasher.Compare(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error comparing password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, db, user)
	if err != nil {
		return nil, err
	}
	return &Session{Tokens: pair, User: user}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed in the same transaction that records its successor, so a token
// can be exchanged at most once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	res := s.signer.Verify(auth.KindRefresh, refreshToken)
	if !res.OK {
		return nil, common.ErrInvalidToken
	}

	var pair *TokenPair
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		deleted, err := s.repomanager.RefreshTokens(tx).Delete(ctx, res.Claims.ID)
		if err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if !deleted {
			return common.ErrRefreshTokenRevoked
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, res.Claims.Subject)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		pair, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the presented refresh token if it is still valid. It never
// fails on a bad or missing token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	res := s.signer.Verify(auth.KindRefresh, refreshToken)
	if !res.OK {
		return nil
	}
	if _, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).Delete(ctx, res.Claims.ID); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Authenticate verifies a bearer access token.
func (s *UserService) Authenticate(accessToken string) auth.Result {
	return s.signer.Verify(auth.KindAccess, accessToken)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, id)
}

// PurgeExpiredTokens drops refresh token records past their expiry.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.repomanager.Conn()).DeleteExpired(ctx, s.now())
}

func (s *UserService) issue(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	id := auth.Identity{SubjectID: user.ID, Email: user.Email}

	access, accessClaims, err := s.signer.Sign(auth.KindAccess, id)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refresh, refreshClaims, err := s.signer.Sign(auth.KindRefresh, id)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}

	record := &models.RefreshToken{
		ID:        refreshClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, record); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}
