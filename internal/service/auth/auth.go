package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/ridehail/internal/models"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

var ErrNoAccessToken = errors.New("access token not found in request")

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var DefaultHasher PasswordHasher = BcryptHasher{}

type tokenManager interface {
	Generate(p models.Principal) (models.IssuedToken, error)
	Parse(access string) (models.Principal, error)
}

type accountService interface {
	// Has to return apperrors.ErrAccountAlreadyExists if username is taken
	CreateAccount(ctx context.Context, username string, password string, role models.Role) (models.Account, error)

	// Has to return apperrors.ErrInvalidCredentials on any mismatch
	Login(ctx context.Context, username string, password string) (models.Account, error)
}

type Config struct {
	// Header to read access token from and to write it to
	AccessHeaderName string

	// Auth scheme of the header value
	AccessAuthScheme string
}

// Auth service
type AuthService struct {
	accessHeaderName string
	accessAuthScheme string

	token    tokenManager
	accounts accountService
}

func NewService(cfg Config, token tokenManager, accounts accountService) (*AuthService, error) {
	if cfg.AccessHeaderName == "" {
		cfg.AccessHeaderName = defaultAccessHeaderName
	}
	if cfg.AccessAuthScheme == "" {
		cfg.AccessAuthScheme = defaultAccessAuthScheme
	}

	return &AuthService{
		accessHeaderName: cfg.AccessHeaderName,
		accessAuthScheme: cfg.AccessAuthScheme,
		token:            token,
		accounts:         accounts,
	}, nil
}

// Register account and issue access token for it
func (s *AuthService) Register(ctx context.Context, username string, password string, role models.Role) (models.IssuedToken, error) {
	account, err := s.accounts.CreateAccount(ctx, username, password, role)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return s.issue(account)
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.IssuedToken, error) {
	account, err := s.accounts.Login(ctx, username, password)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return s.issue(account)
}

// Auth returns the principal the request is made by
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.Principal, error) {
	header := r.Header.Get(s.accessHeaderName)
	scheme, access, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) || access == "" {
		return models.Principal{}, ErrNoAccessToken
	}

	return s.token.Parse(strings.TrimSpace(access))
}

// Write access token to response header
func (s *AuthService) SetToken(w http.ResponseWriter, token models.IssuedToken) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+token.Value)
}

func (s *AuthService) issue(account models.Account) (models.IssuedToken, error) {
	token, err := s.token.Generate(account.Principal())
	if err != nil {
		return token, fmt.Errorf("token could not generated, sorry. %w", err)
	}
	return token, nil
}
