package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// ApprovalRepo provides data access to the admin_approval_requests table.
type ApprovalRepo struct{ db dbtx }

// Create inserts a pending request and sets req.ID.
func (r *ApprovalRepo) Create(ctx context.Context, req *model.AdminApprovalRequest) error {
	if req.Status == "" {
		req.Status = model.ApprovalPending
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_approval_requests (user_id, email, requested_at, status) VALUES (?, ?, ?, ?)`,
		req.UserID, req.Email, req.RequestedAt, string(req.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

func (r *ApprovalRepo) GetPendingByUser(ctx context.Context, userID uint64) (model.AdminApprovalRequest, error) {
	var (
		req        model.AdminApprovalRequest
		approvedBy sql.NullInt64
		approvedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, email, requested_at, status, approved_by, approved_at
		FROM admin_approval_requests
		WHERE user_id = ? AND status = ?
		ORDER BY requested_at DESC, id DESC
		LIMIT 1
		FOR UPDATE`, userID, string(model.ApprovalPending),
	).Scan(&req.ID, &req.UserID, &req.Email, &req.RequestedAt, &req.Status, &approvedBy, &approvedAt)
	if err != nil {
		return req, notFound(err)
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		req.ApprovedBy = &v
	}
	if approvedAt.Valid {
		req.ApprovedAt = &approvedAt.Time
	}
	return req, nil
}

// Resolve closes a pending request with the given status, recording who
// resolved it and when.
func (r *ApprovalRepo) Resolve(ctx context.Context, id uint64, status model.ApprovalStatus, approverID uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admin_approval_requests
		SET status = ?, approved_by = ?, approved_at = ?
		WHERE id = ? AND status = ?`,
		string(status), approverID, at, id, string(model.ApprovalPending))
	if err != nil {
		return err
	}
	return expectAffected(res)
}
