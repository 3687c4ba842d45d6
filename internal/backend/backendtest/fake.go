// Package backendtest provides an in-memory finance backend for tests,
// usable directly or behind an httptest server.
package backendtest

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"gitlab.com/yelinaung/finance-bot/internal/backend"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

// Fake implements the backend contract in memory. Set Err to make every
// call fail.
type Fake struct {
	mu       sync.Mutex
	nextID   int64
	buckets  map[int64]*models.Bucket
	plans    map[int64]*models.Plan
	accounts map[int64]*models.Account

	Err   error
	Calls []string
}

// New returns an empty fake backend.
func New() *Fake {
	return &Fake{
		buckets:  make(map[int64]*models.Bucket),
		plans:    make(map[int64]*models.Plan),
		accounts: make(map[int64]*models.Account),
	}
}

func notFound() error {
	return &backend.APIError{StatusCode: 404, Message: "not found"}
}

func (f *Fake) begin(call string) error {
	f.Calls = append(f.Calls, call)
	return f.Err
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

func sortedValues[T any](m map[int64]*T, id func(*T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(&a), id(&b)) })
	return out
}

func cloneBucket(b *models.Bucket) *models.Bucket {
	c := *b
	c.History = slices.Clone(b.History)
	return &c
}

func clonePlan(p *models.Plan) *models.Plan {
	c := *p
	c.History = slices.Clone(p.History)
	return &c
}

// PutBucket stores b as is, keeping its ID.
func (f *Fake) PutBucket(b models.Bucket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = max(f.nextID, b.ID)
	f.buckets[b.ID] = cloneBucket(&b)
}

// PutPlan stores p as is, keeping its ID.
func (f *Fake) PutPlan(p models.Plan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = max(f.nextID, p.ID)
	f.plans[p.ID] = clonePlan(&p)
}

// PutAccount stores a as is, keeping its ID.
func (f *Fake) PutAccount(a models.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = max(f.nextID, a.ID)
	c := a
	c.History = slices.Clone(a.History)
	f.accounts[a.ID] = &c
}

// ListBuckets implements the backend contract.
func (f *Fake) ListBuckets(context.Context) ([]models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListBuckets"); err != nil {
		return nil, err
	}
	return sortedValues(f.buckets, func(b *models.Bucket) int64 { return b.ID }), nil
}

// GetBucket implements the backend contract.
func (f *Fake) GetBucket(_ context.Context, id int64) (*models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetBucket"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[id]
	if !ok {
		return nil, notFound()
	}
	return cloneBucket(b), nil
}

// CreateBucket implements the backend contract.
func (f *Fake) CreateBucket(_ context.Context, in models.BucketInput) (*models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateBucket"); err != nil {
		return nil, err
	}
	b := &models.Bucket{ID: f.id(), Status: models.BucketActive}
	applyBucketInput(b, in)
	f.buckets[b.ID] = b
	return cloneBucket(b), nil
}

func applyBucketInput(b *models.Bucket, in models.BucketInput) {
	b.Name = in.Name
	b.TargetAmount = in.TargetAmount
	if in.Status != "" {
		b.Status = in.Status
	}
	b.RecurringEnabled = in.RecurringEnabled
	b.RecurringAmount = in.RecurringAmount
	b.Frequency = in.Frequency
	b.CustomDays = in.CustomDays
	b.NextContributionDate = in.NextContributionDate
}

// UpdateBucket implements the backend contract.
func (f *Fake) UpdateBucket(_ context.Context, id int64, in models.BucketInput) (*models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateBucket"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[id]
	if !ok {
		return nil, notFound()
	}
	applyBucketInput(b, in)
	return cloneBucket(b), nil
}

// DeleteBucket implements the backend contract.
func (f *Fake) DeleteBucket(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteBucket"); err != nil {
		return err
	}
	if _, ok := f.buckets[id]; !ok {
		return notFound()
	}
	delete(f.buckets, id)
	return nil
}

// AddContribution implements the backend contract.
func (f *Fake) AddContribution(_ context.Context, id int64, in models.ContributionInput) (*models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AddContribution"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[id]
	if !ok {
		return nil, notFound()
	}
	b.SavedAmount = b.SavedAmount.Add(in.Amount)
	b.History = append(b.History, models.HistoryEntry{ID: f.id(), Date: in.Date, Amount: in.Amount, Note: in.Note})
	if in.NextContributionDate != nil {
		b.NextContributionDate = in.NextContributionDate
	}
	return cloneBucket(b), nil
}

// UpdateBucketHistory implements the backend contract.
func (f *Fake) UpdateBucketHistory(_ context.Context, id, entryID int64, in models.HistoryInput) (*models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateBucketHistory"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[id]
	if !ok {
		return nil, notFound()
	}
	i := slices.IndexFunc(b.History, func(h models.HistoryEntry) bool { return h.ID == entryID })
	if i < 0 {
		return nil, notFound()
	}
	b.SavedAmount = b.SavedAmount.Sub(b.History[i].Amount).Add(in.Amount)
	b.History[i] = models.HistoryEntry{ID: entryID, Date: in.Date, Amount: in.Amount, Note: in.Note}
	return cloneBucket(b), nil
}

// DeleteBucketHistory implements the backend contract.
func (f *Fake) DeleteBucketHistory(_ context.Context, id, entryID int64) (*models.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteBucketHistory"); err != nil {
		return nil, err
	}
	b, ok := f.buckets[id]
	if !ok {
		return nil, notFound()
	}
	i := slices.IndexFunc(b.History, func(h models.HistoryEntry) bool { return h.ID == entryID })
	if i < 0 {
		return nil, notFound()
	}
	b.SavedAmount = b.SavedAmount.Sub(b.History[i].Amount)
	b.History = slices.Delete(b.History, i, i+1)
	return cloneBucket(b), nil
}

// ListPlans implements the backend contract.
func (f *Fake) ListPlans(context.Context) ([]models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListPlans"); err != nil {
		return nil, err
	}
	return sortedValues(f.plans, func(p *models.Plan) int64 { return p.ID }), nil
}

// GetPlan implements the backend contract.
func (f *Fake) GetPlan(_ context.Context, id int64) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetPlan"); err != nil {
		return nil, err
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, notFound()
	}
	return clonePlan(p), nil
}

func applyPlanInput(p *models.Plan, in models.PlanInput) {
	p.Name = in.Name
	p.Provider = in.Provider
	p.PolicyNumber = in.PolicyNumber
	p.PremiumAmount = in.PremiumAmount
	p.CoverAmount = in.CoverAmount
	p.Frequency = in.Frequency
	p.CustomDays = in.CustomDays
	p.NextDueDate = in.NextDueDate
	p.ExpiryDate = in.ExpiryDate
}

// CreatePlan implements the backend contract.
func (f *Fake) CreatePlan(_ context.Context, in models.PlanInput) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreatePlan"); err != nil {
		return nil, err
	}
	p := &models.Plan{ID: f.id()}
	applyPlanInput(p, in)
	f.plans[p.ID] = p
	return clonePlan(p), nil
}

// UpdatePlan implements the backend contract.
func (f *Fake) UpdatePlan(_ context.Context, id int64, in models.PlanInput) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdatePlan"); err != nil {
		return nil, err
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, notFound()
	}
	applyPlanInput(p, in)
	return clonePlan(p), nil
}

// DeletePlan implements the backend contract.
func (f *Fake) DeletePlan(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeletePlan"); err != nil {
		return err
	}
	if _, ok := f.plans[id]; !ok {
		return notFound()
	}
	delete(f.plans, id)
	return nil
}

// PayPremium implements the backend contract.
func (f *Fake) PayPremium(_ context.Context, id int64, in models.PaymentInput) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PayPremium"); err != nil {
		return nil, err
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, notFound()
	}
	p.History = append(p.History, models.HistoryEntry{ID: f.id(), Date: in.Date, Amount: in.Amount})
	if in.NextDueDate != nil {
		p.NextDueDate = in.NextDueDate
	}
	return clonePlan(p), nil
}

// AddPlanHistory implements the backend contract.
func (f *Fake) AddPlanHistory(_ context.Context, id int64, in models.HistoryInput) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AddPlanHistory"); err != nil {
		return nil, err
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, notFound()
	}
	p.History = append(p.History, models.HistoryEntry{ID: f.id(), Date: in.Date, Amount: in.Amount, Note: in.Note})
	return clonePlan(p), nil
}

// UpdatePlanHistory implements the backend contract.
func (f *Fake) UpdatePlanHistory(_ context.Context, id, entryID int64, in models.HistoryInput) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdatePlanHistory"); err != nil {
		return nil, err
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, notFound()
	}
	i := slices.IndexFunc(p.History, func(h models.HistoryEntry) bool { return h.ID == entryID })
	if i < 0 {
		return nil, notFound()
	}
	p.History[i] = models.HistoryEntry{ID: entryID, Date: in.Date, Amount: in.Amount, Note: in.Note}
	return clonePlan(p), nil
}

// DeletePlanHistory implements the backend contract.
func (f *Fake) DeletePlanHistory(_ context.Context, id, entryID int64) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeletePlanHistory"); err != nil {
		return nil, err
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, notFound()
	}
	i := slices.IndexFunc(p.History, func(h models.HistoryEntry) bool { return h.ID == entryID })
	if i < 0 {
		return nil, notFound()
	}
	p.History = slices.Delete(p.History, i, i+1)
	return clonePlan(p), nil
}

// ListAccounts implements the backend contract.
func (f *Fake) ListAccounts(context.Context) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListAccounts"); err != nil {
		return nil, err
	}
	return sortedValues(f.accounts, func(a *models.Account) int64 { return a.ID }), nil
}

// AddBalanceHistory implements the backend contract. The account balance
// follows the latest dated record.
func (f *Fake) AddBalanceHistory(_ context.Context, id int64, records []models.BalanceRecord) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AddBalanceHistory"); err != nil {
		return nil, err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, notFound()
	}
	a.History = append(a.History, records...)
	if len(a.History) > 0 {
		latest := a.History[0]
		for _, r := range a.History[1:] {
			if !r.Date.Before(latest.Date.Time) {
				latest = r
			}
		}
		a.Balance = latest.Balance
	}
	c := *a
	c.History = slices.Clone(a.History)
	return &c, nil
}
