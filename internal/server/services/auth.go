// Package services holds the server's business logic: the authentication
// gate and the marker lifecycle. Both are driven by the dialog state machine.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/cryptox"
	"github.com/dmitrijs2005/ermil/internal/dbx"
	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/dmitrijs2005/ermil/internal/server/auth"
	"github.com/dmitrijs2005/ermil/internal/server/config"
	"github.com/dmitrijs2005/ermil/internal/server/models"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/repomanager"
)

// AuthService registers accounts, checks credentials and issues the
// identity token a session carries after a successful login.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	identityTTL time.Duration
	log         logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		identityTTL: cfg.IdentityTTL,
		log:         log.With("module", "auth"),
	}
}

// Register creates an account. A taken username is common.ErrConflict,
// whether it is caught by the lookup or by the unique index.
func (s *AuthService) Register(ctx context.Context, userName, password string) (*models.Account, error) {
	if userName == "" || password == "" {
		return nil, common.ErrValidation
	}

	hash, err := cryptox.HashPassword(password)
	if errors.Is(err, cryptox.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var account *models.Account
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		_, err := repo.GetByUserName(ctx, userName)
		switch {
		case err == nil:
			return common.ErrConflict
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		account, err = repo.Create(ctx, &models.Account{UserName: userName, PasswordHash: hash})
		return err
	})

	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		s.log.Error(ctx, "register failed", "user", userName, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return account, nil
}

// Login returns the account when the password matches. Unknown users are
// common.ErrNotFound, a bad password is common.ErrWrongPassword.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	if !cryptox.CheckPassword(account.PasswordHash, password) {
		return nil, common.ErrWrongPassword
	}

	return account, nil
}

func (s *AuthService) IssueIdentity(account *models.Account) (string, error) {
	return auth.GenerateToken(auth.Identity{AccountID: account.ID, UserName: account.UserName}, s.jwtSecret, s.identityTTL)
}

// Identify checks a token issued by IssueIdentity. An expired or forged
// token is common.ErrInvalidToken.
func (s *AuthService) Identify(token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, common.ErrInvalidToken
	}
	return auth.ParseToken(token, s.jwtSecret)
}
