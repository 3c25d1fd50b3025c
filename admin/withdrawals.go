package admin

import (
	"context"
	"net/http"

	"github.com/jrsteele09/vpn-admin/resource"
)

// Withdrawal request statuses. The backend enforces the transitions
// pending -> approved | rejected and approved -> completed; anything else
// is answered with 422 and surfaces as api.KindValidation.
const (
	WithdrawalPending   = "pending"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
	WithdrawalCompleted = "completed"
)

type WithdrawalFilter struct {
	Status      string
	AffiliateID string
}

// Completion records the payout that settled an approved request.
type Completion struct {
	TransactionID string `json:"transaction_id"`
	Notes         string `json:"notes,omitempty"`
}

type WithdrawalsService struct {
	b *backend
}

func (s *WithdrawalsService) List(ctx context.Context, page resource.PageRequest, f WithdrawalFilter) (resource.PageResult, error) {
	page = page.With("status", f.Status).With("affiliate_id", f.AffiliateID)
	return s.b.list(ctx, "withdrawals.list", RouteWithdrawals, page)
}

func (s *WithdrawalsService) Get(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.get(ctx, "withdrawals.get", RouteWithdrawal, id)
}

func (s *WithdrawalsService) Approve(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.mutateID(ctx, "withdrawals.approve", http.MethodPost, RouteApproveWithdrawal, nil, id)
}

func (s *WithdrawalsService) Reject(ctx context.Context, id, reason string) (resource.Resource, error) {
	return s.b.mutateID(ctx, "withdrawals.reject", http.MethodPost, RouteRejectWithdrawal, map[string]any{"reason": reason}, id)
}

func (s *WithdrawalsService) Complete(ctx context.Context, id string, c Completion) (resource.Resource, error) {
	return s.b.mutateID(ctx, "withdrawals.complete", http.MethodPost, RouteCompleteWithdrawal, c, id)
}
