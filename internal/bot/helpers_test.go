package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/backend/backendtest"
	"gitlab.com/yelinaung/finance-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/finance-bot/internal/config"
	"gitlab.com/yelinaung/finance-bot/internal/lifexp"
	"gitlab.com/yelinaung/finance-bot/internal/localstate"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
	"gitlab.com/yelinaung/finance-bot/internal/storage"
)

const (
	testChatID int64 = 12345
	testUserID int64 = 67890
)

var testNow = time.Date(2025, 7, 10, 10, 0, 0, 0, time.UTC)

// fakeUsers records upserts and serves a fixed recipient list.
type fakeUsers struct {
	mu             sync.Mutex
	upserted       []models.User
	recipients     []models.User
	recipientCalls int
	err            error
}

func (f *fakeUsers) UpsertUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, *user)
	return nil
}

func (f *fakeUsers) GetReminderRecipients(context.Context, []int64, []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipientCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.recipients, nil
}

type testEnv struct {
	bot     *Bot
	tg      *mocks.MockBot
	backend *backendtest.Fake
	users   *fakeUsers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		WhitelistedUserIDs:   []int64{testUserID},
		WhitelistedUsernames: []string{"friend"},
		DailyReminderEnabled: true,
		ReminderHour:         config.DefaultReminderHour,
		Timezone:             "UTC",
	}

	clock := func() time.Time { return testNow }
	fake := backendtest.New()
	store := storage.NewMemory()
	users := &fakeUsers{}

	lifeLog := activitylog.New(activitylog.LifeXP, store,
		activitylog.WithClock(clock), activitylog.WithLocation(time.UTC))
	plansLog := activitylog.New(activitylog.Plans, store,
		activitylog.WithClock(clock), activitylog.WithLocation(time.UTC))

	b := newBot(cfg, Deps{
		Users:    users,
		LifeXP:   lifexp.NewService(fake, lifeLog, lifexp.WithClock(clock), lifexp.WithLocation(time.UTC)),
		Plans:    plans.NewService(fake, plansLog, localstate.NewExpiredAcks(store), plans.WithClock(clock), plans.WithLocation(time.UTC)),
		Accounts: fake,
		Notes:    localstate.NewNotes(store),
	})
	b.now = clock

	tg := mocks.NewMockBot()
	b.messageSender = tg

	return &testEnv{bot: b, tg: tg, backend: fake, users: users}
}

func command(text string) *tgmodels.Update {
	return mocks.CommandUpdate(testChatID, testUserID, text)
}

func (e *testEnv) lastText(t *testing.T) string {
	t.Helper()
	msg := e.tg.LastSentMessage()
	require.NotNil(t, msg)
	return msg.Text
}

func (e *testEnv) entries(t *testing.T, log *activitylog.Log) []activitylog.Entry {
	t.Helper()
	entries, err := log.Entries(context.Background())
	require.NoError(t, err)
	return entries
}

func dateIn(days int) *models.Date {
	return models.DatePtr(testNow.AddDate(0, 0, days))
}

func testBucket(id int64, next *models.Date) models.Bucket {
	return models.Bucket{
		ID:                   id,
		Name:                 "Emergency Fund",
		TargetAmount:         decimal.NewFromInt(10000),
		SavedAmount:          decimal.NewFromInt(2000),
		Status:               models.BucketActive,
		RecurringEnabled:     true,
		RecurringAmount:      decimal.NewFromInt(500),
		Frequency:            "monthly",
		NextContributionDate: next,
	}
}

func testPlan(id int64, name string, next, expiry *models.Date) models.Plan {
	return models.Plan{
		ID:            id,
		Name:          name,
		Provider:      "Acme Life",
		PremiumAmount: decimal.NewFromInt(1200),
		Frequency:     "yearly",
		NextDueDate:   next,
		ExpiryDate:    expiry,
	}
}
