package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
)

func TestSendDueReminders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sends one summary per user per day", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.backend.PutBucket(testBucket(1, dateIn(5)))
		env.backend.PutPlan(testPlan(2, "Health", dateIn(-2), nil))
		env.users.recipients = []models.User{
			{ID: testUserID, FirstName: "Ana"},
			{ID: 222, Username: "friend"},
		}

		reminded := make(map[int64]string)
		env.bot.sendDueReminders(ctx, reminded, testNow)

		require.Equal(t, 2, env.tg.SentMessageCount())
		first := env.tg.SentMessages[0]
		require.Equal(t, testUserID, first.ChatID)
		require.Contains(t, first.Text, "⏰ Hey Ana! Here's what needs your attention:")
		require.Contains(t, first.Text, "• #1 Emergency Fund: 500.00 🟡 due in 5 days")
		require.Contains(t, first.Text, "• #2 Health: 1200.00 🔴 overdue by 2 days")
		require.Contains(t, env.tg.SentMessages[1].Text, "Hey friend!")

		env.bot.sendDueReminders(ctx, reminded, testNow.Add(3))
		require.Equal(t, 2, env.tg.SentMessageCount())

		env.bot.sendDueReminders(ctx, reminded, testNow.AddDate(0, 0, 1))
		require.Equal(t, 4, env.tg.SentMessageCount())
		require.Len(t, reminded, 2)
	})

	t.Run("skips when nothing is due", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.backend.PutBucket(testBucket(1, dateIn(30)))
		env.backend.PutPlan(testPlan(2, "Old Car", dateIn(-40), dateIn(-5)))
		env.users.recipients = []models.User{{ID: testUserID}}

		env.bot.sendDueReminders(ctx, make(map[int64]string), testNow)
		require.Zero(t, env.tg.SentMessageCount())
		require.Zero(t, env.users.recipientCalls)
	})

	t.Run("failed send is retried on the next run", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.backend.PutBucket(testBucket(1, dateIn(0)))
		env.users.recipients = []models.User{{ID: testUserID}}
		env.tg.SendMessageError = errors.New("blocked")

		reminded := make(map[int64]string)
		env.bot.sendDueReminders(ctx, reminded, testNow)
		require.Empty(t, reminded)

		env.tg.SendMessageError = nil
		env.bot.sendDueReminders(ctx, reminded, testNow)
		require.Equal(t, 1, env.tg.SentMessageCount())
		require.Contains(t, env.lastText(t), "🟡 due today")
	})

	t.Run("backend failure sends nothing", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.backend.PutBucket(testBucket(1, dateIn(0)))
		env.backend.Err = errors.New("unavailable")
		env.users.recipients = []models.User{{ID: testUserID}}

		env.bot.sendDueReminders(ctx, make(map[int64]string), testNow)
		require.Zero(t, env.tg.SentMessageCount())
	})
}

func TestStartDailyReminder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.bot.cfg.DailyReminderEnabled = false
	c, err := env.bot.startDailyReminder(context.Background())
	require.NoError(t, err)
	require.Nil(t, c)

	env = newTestEnv(t)
	c, err = env.bot.startDailyReminder(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	env = newTestEnv(t)
	env.bot.cfg.ReminderHour = 25
	_, err = env.bot.startDailyReminder(context.Background())
	require.Error(t, err)
}

func TestFormatDueSummary_PlansOnly(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	views := []models.Plan{testPlan(4, "Car", dateIn(1), nil)}
	summary := formatDueSummary(nil, []plans.PlanView{env.bot.plans.View(views[0], testNow, false)})
	require.NotContains(t, summary, "Contributions")
	require.Contains(t, summary, "🛡 <b>Premiums</b>\n• #4 Car: 1200.00 🟡 due tomorrow")
}
