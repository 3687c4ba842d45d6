package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
)

func TestActivityLogNames(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, name := range []string{"lifexp", "LIFE_XP", "buckets"} {
		log, ok := env.bot.activityLog(name)
		require.True(t, ok, name)
		require.Equal(t, activitylog.LifeXP.Name, log.Domain().Name)
	}
	for _, name := range []string{"plans", "plan", " Insurance "} {
		log, ok := env.bot.activityLog(name)
		require.True(t, ok, name)
		require.Equal(t, activitylog.Plans.Name, log.Domain().Name)
	}
	_, ok := env.bot.activityLog("accounts")
	require.False(t, ok)
}

func TestHandleLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.backend.PutBucket(testBucket(1, dateIn(5)))
	house := testBucket(2, nil)
	house.Name = "House & Garden"
	env.backend.PutBucket(house)

	env.bot.handleLogCore(ctx, env.tg, command("/log lifexp"))
	require.Equal(t, "No activity yet.", env.lastText(t))

	env.bot.handleContributeCore(ctx, env.tg, command("/contribute 1 100"))
	env.bot.handleContributeCore(ctx, env.tg, command("/contribute 2 40 <gift>"))

	env.bot.handleLogCore(ctx, env.tg, command("/log lifexp"))
	text := env.lastText(t)
	require.Contains(t, text, "📜 <b>Recent activity</b> (2 of 2)")
	require.Contains(t, text, "2025-07-10 · <b>Contribution Added</b> · House &amp; Garden · 40.00")
	require.Contains(t, text, "&lt;gift&gt;")
	require.Less(t, strings.Index(text, "House"), strings.Index(text, "Emergency Fund"), "newest first")

	env.bot.handleLogCore(ctx, env.tg, command("/log lifexp 1"))
	text = env.lastText(t)
	require.Contains(t, text, "(1 of 1)")
	require.NotContains(t, text, "House")

	env.bot.handleLogCore(ctx, env.tg, command("/log savings"))
	require.Contains(t, env.lastText(t), "Unknown log")

	env.bot.handleLogCore(ctx, env.tg, command("/log"))
	require.Contains(t, env.lastText(t), "Usage:")
}

func TestHandleLog_ShowsRecentOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.backend.PutBucket(testBucket(1, nil))

	for range recentEntries + 3 {
		env.bot.handleContributeCore(ctx, env.tg, command("/contribute 1 5"))
	}

	env.bot.handleLogCore(ctx, env.tg, command("/log lifexp"))
	require.Contains(t, env.lastText(t), "(10 of 13)")
}

func TestHandleExport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.bot.handleExportCore(ctx, env.tg, command("/export plans"))
	require.Equal(t, "No activity to export yet.", env.lastText(t))
	require.Zero(t, env.tg.SentDocumentCount())

	env.bot.handleNewPlanCore(ctx, env.tg, command(`/newplan Home "Shield" | 2400 | yearly | 2025-08-09`))
	env.bot.handleExportCore(ctx, env.tg, command("/export plans"))

	doc := env.tg.LastSentDocument()
	require.NotNil(t, doc)
	require.Equal(t, "plans_activity_log_2025-07-10.csv", doc.Filename)
	require.Equal(t, "📊 <b>Activity log</b>\n\nEntries: 1", doc.Caption)

	lines := strings.Split(strings.TrimSuffix(string(doc.Data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `"Date","Time","Subject","Action","Amount","Details"`, lines[0])
	require.True(t, strings.HasPrefix(lines[1], `"2025-07-10","10:00:00 AM","Home ""Shield""","Plan Created","2400",`), lines[1])

	env.tg.SendDocumentError = errors.New("too big")
	env.bot.handleExportCore(ctx, env.tg, command("/export plans"))
	require.Contains(t, env.lastText(t), "Failed to send the export")

	env.bot.handleExportCore(ctx, env.tg, command("/export"))
	require.Contains(t, env.lastText(t), "Usage:")
}

func TestHandleForget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.backend.PutBucket(testBucket(1, nil))

	env.bot.handleContributeCore(ctx, env.tg, command("/contribute 1 100"))
	env.bot.handleContributeCore(ctx, env.tg, command("/contribute 1 200"))
	entries := env.entries(t, env.bot.lifexp.Log())
	require.Len(t, entries, 2)

	env.bot.handleForgetCore(ctx, env.tg, command("/forget lifexp "+entries[1].ID))
	require.Equal(t, "🗑 Entry removed from the log.", env.lastText(t))

	remaining := env.entries(t, env.bot.lifexp.Log())
	require.Len(t, remaining, 1)
	require.Equal(t, entries[0].ID, remaining[0].ID)

	env.bot.handleForgetCore(ctx, env.tg, command("/forget lifexp "+entries[1].ID))
	require.Equal(t, "ℹ️ No entry with that ID.", env.lastText(t))

	env.bot.handleForgetCore(ctx, env.tg, command("/forget plans "+entries[0].ID))
	require.Equal(t, "ℹ️ No entry with that ID.", env.lastText(t))
	require.Len(t, env.entries(t, env.bot.lifexp.Log()), 1)

	env.bot.handleForgetCore(ctx, env.tg, command("/forget lifexp"))
	require.Contains(t, env.lastText(t), "Usage:")
}

func TestHandleNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.bot.handleNoteCore(ctx, env.tg, command("/notes plan 1"))
	require.Equal(t, "No notes for plan #1.", env.lastText(t))

	env.bot.handleNoteCore(ctx, env.tg, command("/note plan 1 Renewal call <March>"))
	require.Equal(t, "📝 Saved the 2025 note for plan #1.", env.lastText(t))

	env.bot.handleNoteCore(ctx, env.tg, command("/notes plan 1"))
	require.Contains(t, env.lastText(t), "<b>2025</b>: Renewal call &lt;March&gt;")

	env.bot.handleNoteCore(ctx, env.tg, command("/notes bucket 1"))
	require.Equal(t, "No notes for bucket #1.", env.lastText(t))

	env.bot.handleNoteCore(ctx, env.tg, command("/note plan 1"))
	require.Equal(t, "🗑 Cleared the 2025 note for plan #1.", env.lastText(t))

	env.bot.handleNoteCore(ctx, env.tg, command("/notes plan 1"))
	require.Equal(t, "No notes for plan #1.", env.lastText(t))

	env.bot.handleNoteCore(ctx, env.tg, command("/note widget 1 hi"))
	require.Contains(t, env.lastText(t), "unknown note kind")

	env.bot.handleNoteCore(ctx, env.tg, command("/note plan"))
	require.Contains(t, env.lastText(t), "Usage:")
}
