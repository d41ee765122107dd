// Package services contains server-side business logic: the authentication
// gate evaluated on every request and UserService, which registers users,
// issues tokens at login and revokes them at logout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// Session is a user together with a freshly issued token.
type Session struct {
	User  *models.User
	Token string
}

// UserService provides authentication-related operations:
// - Register: create users and sign them in
// - Login: verify credentials and issue a token
// - Logout: revoke the presented token
// - UpdateProfile, DeleteAccount: manage the signed-in user
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hashCost    int
}

// NewUserService constructs a UserService using repositories and the token codec.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hashCost:    bcrypt.DefaultCost,
	}
}

// Register creates a user and returns it with a token. An email already in
// use yields common.ErrUserExists.
func (s *UserService) Register(ctx context.Context, email, name string, age int, password string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: email, Name: name, Age: age, PasswordHash: hash}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.newSession(u)
}

// Login verifies the password. Unknown emails yield common.ErrUserNotFound,
// wrong passwords common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).FindBySubject(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return s.newSession(user)
}

// Logout revokes the token carried in header. It succeeds for any
// well-signed token, including ones already revoked or expired. A missing
// header yields common.ErrorMissingToken; an unparsable token the codec error.
func (s *UserService) Logout(ctx context.Context, header string) error {
	if header == "" {
		return common.ErrorMissingToken
	}
	claims, err := s.codec.Parse(auth.ResolveHeader(header))
	if err != nil {
		return err
	}
	return s.repomanager.Revocations(s.db).Add(ctx, claims.TokenID, claims.Subject)
}

// ProfileUpdate lists the profile fields to change; nil fields are kept.
// The email is the token subject and cannot be changed.
type ProfileUpdate struct {
	Name     *string
	Age      *int
	Password *string
}

// UpdateProfile applies upd to the principal's user and returns the result.
func (s *UserService) UpdateProfile(ctx context.Context, p *models.Principal, upd ProfileUpdate) (*models.User, error) {
	if p == nil || p.User == nil {
		return nil, common.ErrorUnauthorized
	}

	u := *p.User
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	return s.repomanager.Users(s.db).Update(ctx, &u)
}

// DeleteAccount removes the principal's user together with its tasks.
// Tokens already issued to the user are left alone; the gate answers
// them with common.ErrUserNotFound from now on.
func (s *UserService) DeleteAccount(ctx context.Context, p *models.Principal) error {
	if p == nil || p.User == nil {
		return common.ErrorUnauthorized
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Tasks(tx).DeleteByOwner(ctx, p.User.ID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, p.Subject)
	})
}

func (s *UserService) newSession(u *models.User) (*Session, error) {
	token, err := s.codec.Issue(u.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &Session{User: u, Token: token}, nil
}
