package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/service"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

// Accounts is the part of service.AccountService used by AuthHandler.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Refresh(ctx context.Context, raw string) (service.AuthResult, error)
	RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error)
	Logout(ctx context.Context, raw string) error
	Me(ctx context.Context, userID uint64) (model.User, []string, error)
}

// AuthHandler serves the /v1/auth endpoints and /v1/me.
type AuthHandler struct {
	accounts Accounts
	log      zerolog.Logger
}

func NewAuthHandler(accounts Accounts, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username"`
	Role     string `json:"role" validate:"omitempty,oneof=Admin Customer admin customer"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type authResp struct {
	User            userPart  `json:"user"`
	Access          tokenPart `json:"access"`
	Refresh         tokenPart `json:"refresh"`
	ApprovalPending bool      `json:"approval_pending,omitempty"`
}

func toAuthResp(r service.AuthResult) authResp {
	return authResp{
		User:            userPart{ID: r.User.ID, Email: r.User.Email, Username: r.User.Username, Role: r.Role},
		Access:          tokenPart{Token: r.Access.Token, Expires: r.Access.Exp},
		Refresh:         tokenPart{Token: r.Refresh.Raw, Expires: r.Refresh.Exp},
		ApprovalPending: r.Pending,
	}
}

// Register creates the account and returns a token pair.  Admin applicants
// get tokens without a role until an administrator approves them.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.accounts.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Role:     req.Role,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(res))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// Refresh rotates the refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.accounts.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// RefreshAccess returns a new access token only.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	access, err := h.accounts.RefreshAccess(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account and roles.
func (h *AuthHandler) Me(c echo.Context) error {
	u, roles, err := h.accounts.Me(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if roles == nil {
		roles = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
		"role":     model.PrimaryRole(roles),
		"roles":    roles,
	})
}
