package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

// AccountConfig carries the token and hashing settings.
type AccountConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// RegisterInput is a sign-up request.  Role "Admin" files an approval
// request instead of granting the role; anything else registers a Customer.
type RegisterInput struct {
	Email    string
	Password string
	Username string
	Role     string
	Name     string
	Phone    string
}

// AuthResult is a freshly issued token pair with the user it belongs to.
type AuthResult struct {
	User    model.User
	Role    string
	Pending bool
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AccountService handles registration, login and refresh tokens.
type AccountService struct {
	store repository.Store
	cfg   AccountConfig
	log   zerolog.Logger
	now   func() time.Time
}

func NewAccountService(store repository.Store, cfg AccountConfig, log zerolog.Logger) *AccountService {
	return &AccountService{store: store, cfg: cfg, log: log.With().Str("component", "account").Logger(), now: time.Now}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func defaultUsername(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// Register creates the account.  A Customer gets the role and a customer
// profile in the same transaction; an Admin applicant gets a Pending
// approval request and no role.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: email/password required", ErrValidation)
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = defaultUsername(email)
	}
	wantsAdmin := strings.EqualFold(strings.TrimSpace(in.Role), model.RoleAdmin)

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Email: email, Username: username, PasswordHash: hash, IsActive: true}
	var roles []string

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, &u); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return fmt.Errorf("%w: email already exists", ErrConflict)
			}
			return err
		}
		if wantsAdmin {
			return tx.Approvals().Create(ctx, &model.AdminApprovalRequest{
				UserID:      u.ID,
				Email:       email,
				RequestedAt: s.now().UTC(),
				Status:      model.ApprovalPending,
			})
		}
		if err := tx.Users().AddRole(ctx, u.ID, model.RoleCustomer); err != nil {
			return err
		}
		roles = []string{model.RoleCustomer}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = username
		}
		return tx.Customers().Create(ctx, &model.Customer{UserID: u.ID, Name: name, Email: email, Phone: strings.TrimSpace(in.Phone)})
	})
	if err != nil {
		return AuthResult{}, err
	}
	s.log.Info().Uint64("user_id", u.ID).Bool("admin_requested", wantsAdmin).Msg("user registered")

	res, err := s.issue(ctx, u, roles)
	res.Pending = wantsAdmin
	return res, err
}

// Login verifies the credentials and issues a new token pair.
func (s *AccountService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, ErrUnauthorized
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, ErrUnauthorized
	}
	roles, err := s.store.Users().Roles(ctx, u.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(ctx, u, roles)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (s *AccountService) Refresh(ctx context.Context, raw string) (AuthResult, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	u, roles, err := s.validateRefresh(ctx, hash)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.store.Tokens().RevokeByHash(ctx, hash); err != nil {
		return AuthResult{}, err
	}
	return s.issue(ctx, u, roles)
}

// RefreshAccess issues a new access token and leaves the refresh token as
// it is.
func (s *AccountService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	u, roles, err := s.validateRefresh(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.cfg.JWTSecret, identity(u, roles), s.cfg.AccessTTLMin)
}

// Logout revokes the refresh token.  Unknown tokens are not an error.
func (s *AccountService) Logout(ctx context.Context, raw string) error {
	return s.store.Tokens().RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
}

// Me returns the account and roles of userID.
func (s *AccountService) Me(ctx context.Context, userID uint64) (model.User, []string, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return u, nil, ErrNotFound
	}
	if err != nil {
		return u, nil, err
	}
	roles, err := s.store.Users().Roles(ctx, userID)
	return u, roles, err
}

// EnsureAdmin makes sure the account behind email exists and holds the
// Admin role.  It is run once at startup; an empty email is a no-op.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			if password == "" {
				return fmt.Errorf("%w: admin password required to create %s", ErrValidation, email)
			}
			hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
			if err != nil {
				return err
			}
			u = model.User{Email: email, Username: defaultUsername(email), PasswordHash: hash, IsActive: true}
			if err := tx.Users().Create(ctx, &u); err != nil {
				return err
			}
			s.log.Info().Uint64("user_id", u.ID).Msg("admin account created")
		} else if err != nil {
			return err
		}
		return tx.Users().AddRole(ctx, u.ID, model.RoleAdmin)
	})
}

func (s *AccountService) validateRefresh(ctx context.Context, hash string) (model.User, []string, error) {
	userID, err := s.store.Tokens().ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, nil, ErrUnauthorized
	}
	if err != nil {
		return model.User{}, nil, err
	}
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return u, nil, ErrUnauthorized
	}
	if err != nil {
		return u, nil, err
	}
	if !u.IsActive {
		return u, nil, ErrUnauthorized
	}
	roles, err := s.store.Users().Roles(ctx, u.ID)
	return u, roles, err
}

func identity(u model.User, roles []string) utils.Identity {
	return utils.Identity{UserID: u.ID, Email: u.Email, Username: u.Username, Role: model.PrimaryRole(roles)}
}

func (s *AccountService) issue(ctx context.Context, u model.User, roles []string) (AuthResult, error) {
	id := identity(u, roles)
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, id, s.cfg.AccessTTLMin)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.store.Tokens().StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return AuthResult{}, fmt.Errorf("save refresh: %w", err)
	}
	return AuthResult{User: u, Role: id.Role, Access: access, Refresh: refresh}, nil
}
