package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// Approvals is the admin approval workflow.
type Approvals interface {
	ListUsers(ctx context.Context) ([]model.UserSummary, error)
	Approve(ctx context.Context, email string, approverID uint64) error
	Reject(ctx context.Context, email string, approverID uint64) error
}

// AdminHandler serves /v1/admin/users.
type AdminHandler struct {
	approvals Approvals
	log       zerolog.Logger
}

func NewAdminHandler(approvals Approvals, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{approvals: approvals, log: log}
}

type userSummaryResp struct {
	ID      uint64   `json:"id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Pending bool     `json:"pending_admin_approval"`
}

// ListUsers returns every user with roles and a pending-approval flag.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.approvals.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]userSummaryResp, 0, len(users))
	for _, u := range users {
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		out = append(out, userSummaryResp{ID: u.ID, Email: u.Email, Roles: roles, Pending: u.Pending})
	}
	return c.JSON(http.StatusOK, out)
}

type approvalReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AdminHandler) Approve(c echo.Context) error {
	return h.resolve(c, h.approvals.Approve, "approved")
}

func (h *AdminHandler) Reject(c echo.Context) error {
	return h.resolve(c, h.approvals.Reject, "rejected")
}

func (h *AdminHandler) resolve(c echo.Context, fn func(context.Context, string, uint64) error, status string) error {
	var req approvalReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := fn(c.Request().Context(), req.Email, userID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"email": req.Email, "status": status})
}
