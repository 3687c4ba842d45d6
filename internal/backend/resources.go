package backend

import (
	"context"
	"fmt"
	"net/http"

	"gitlab.com/yelinaung/finance-bot/internal/models"
)

const (
	bucketsPath  = "/api/life-xp/buckets"
	plansPath    = "/api/plans"
	accountsPath = "/api/accounts"
)

// ListBuckets returns all savings buckets.
func (c *Client) ListBuckets(ctx context.Context) ([]models.Bucket, error) {
	var out []models.Bucket
	if err := c.do(ctx, http.MethodGet, bucketsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBucket returns one bucket.
func (c *Client) GetBucket(ctx context.Context, id int64) (*models.Bucket, error) {
	var out models.Bucket
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", bucketsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBucket creates a bucket.
func (c *Client) CreateBucket(ctx context.Context, in models.BucketInput) (*models.Bucket, error) {
	var out models.Bucket
	if err := c.do(ctx, http.MethodPost, bucketsPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBucket replaces the editable fields of a bucket.
func (c *Client) UpdateBucket(ctx context.Context, id int64, in models.BucketInput) (*models.Bucket, error) {
	var out models.Bucket
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", bucketsPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBucket deletes a bucket.
func (c *Client) DeleteBucket(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", bucketsPath, id), nil, nil)
}

// AddContribution records money added to a bucket.
func (c *Client) AddContribution(ctx context.Context, id int64, in models.ContributionInput) (*models.Bucket, error) {
	var out models.Bucket
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/contributions", bucketsPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBucketHistory edits one contribution row.
func (c *Client) UpdateBucketHistory(ctx context.Context, id, entryID int64, in models.HistoryInput) (*models.Bucket, error) {
	var out models.Bucket
	path := fmt.Sprintf("%s/%d/history/%d", bucketsPath, id, entryID)
	if err := c.do(ctx, http.MethodPut, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBucketHistory removes one contribution row.
func (c *Client) DeleteBucketHistory(ctx context.Context, id, entryID int64) (*models.Bucket, error) {
	var out models.Bucket
	path := fmt.Sprintf("%s/%d/history/%d", bucketsPath, id, entryID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPlans returns all insurance plans.
func (c *Client) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var out []models.Plan
	if err := c.do(ctx, http.MethodGet, plansPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPlan returns one plan.
func (c *Client) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", plansPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePlan creates a plan.
func (c *Client) CreatePlan(ctx context.Context, in models.PlanInput) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodPost, plansPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlan replaces the editable fields of a plan.
func (c *Client) UpdatePlan(ctx context.Context, id int64, in models.PlanInput) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", plansPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlan deletes a plan.
func (c *Client) DeletePlan(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", plansPath, id), nil, nil)
}

// PayPremium records a premium payment.
func (c *Client) PayPremium(ctx context.Context, id int64, in models.PaymentInput) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/payments", plansPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddPlanHistory appends a payment history row without moving the due date.
func (c *Client) AddPlanHistory(ctx context.Context, id int64, in models.HistoryInput) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/history", plansPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlanHistory edits one payment row.
func (c *Client) UpdatePlanHistory(ctx context.Context, id, entryID int64, in models.HistoryInput) (*models.Plan, error) {
	var out models.Plan
	path := fmt.Sprintf("%s/%d/history/%d", plansPath, id, entryID)
	if err := c.do(ctx, http.MethodPut, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlanHistory removes one payment row.
func (c *Client) DeletePlanHistory(ctx context.Context, id, entryID int64) (*models.Plan, error) {
	var out models.Plan
	path := fmt.Sprintf("%s/%d/history/%d", plansPath, id, entryID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAccounts returns all accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := c.do(ctx, http.MethodGet, accountsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddBalanceHistory appends balance rows to an account.
func (c *Client) AddBalanceHistory(ctx context.Context, id int64, records []models.BalanceRecord) (*models.Account, error) {
	var out models.Account
	body := struct {
		Records []models.BalanceRecord `json:"records"`
	}{Records: records}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%d/history", accountsPath, id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
