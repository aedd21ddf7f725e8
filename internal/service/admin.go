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
)

// AdminService resolves admin-role requests.  The Pending request row is
// the only record of an outstanding request; granting the role and closing
// the request commit together.
type AdminService struct {
	store repository.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewAdminService(store repository.Store, log zerolog.Logger) *AdminService {
	return &AdminService{store: store, log: log.With().Str("component", "admin").Logger(), now: time.Now}
}

// ListUsers returns every user with their roles and pending flag.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	return s.store.Users().List(ctx)
}

// Approve grants the Admin role to the user behind email and marks the
// pending request Approved.  ErrNotFound is returned, with nothing written,
// when the user does not exist or has no pending request.
func (s *AdminService) Approve(ctx context.Context, email string, approverID uint64) error {
	return s.resolve(ctx, email, approverID, model.ApprovalApproved)
}

// Reject closes the pending request as Rejected without granting a role.
func (s *AdminService) Reject(ctx context.Context, email string, approverID uint64) error {
	return s.resolve(ctx, email, approverID, model.ApprovalRejected)
}

func (s *AdminService) resolve(ctx context.Context, email string, approverID uint64, status model.ApprovalStatus) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email required", ErrValidation)
	}
	var userID uint64
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		req, err := tx.Approvals().GetPendingByUser(ctx, u.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status == model.ApprovalApproved {
			if err := tx.Users().AddRole(ctx, u.ID, model.RoleAdmin); err != nil {
				return fmt.Errorf("grant admin role: %w", err)
			}
		}
		if err := tx.Approvals().Resolve(ctx, req.ID, status, approverID, s.now().UTC()); err != nil {
			return fmt.Errorf("resolve request %d: %w", req.ID, err)
		}
		userID = u.ID
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Uint64("user_id", userID).Uint64("approver_id", approverID).Str("status", string(status)).Msg("admin request resolved")
	return nil
}
