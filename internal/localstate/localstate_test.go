package localstate

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/storage"
)

func TestNotes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	notes := NewNotes(storage.NewMemory())

	got, err := notes.Get(ctx, NoteBucket, 1)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, notes.Set(ctx, NoteBucket, 1, 2024, "Started late"))
	require.NoError(t, notes.Set(ctx, NoteBucket, 1, 2025, "On track"))
	require.NoError(t, notes.Set(ctx, NotePlan, 1, 2025, "Renewal pending"))

	got, err = notes.Get(ctx, NoteBucket, 1)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"2024": "Started late", "2025": "On track"}, got)

	require.NoError(t, notes.Set(ctx, NoteBucket, 1, 2024, ""))
	got, err = notes.Get(ctx, NoteBucket, 1)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"2025": "On track"}, got)

	got, err = notes.Get(ctx, NotePlan, 1)
	require.NoError(t, err)
	require.Equal(t, "Renewal pending", got["2025"])
}

func TestNotes_MalformedReadsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, "notes:account:7", []byte(`["not","a","map"]`)))

	notes := NewNotes(store)
	got, err := notes.Get(ctx, NoteAccount, 7)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, notes.Set(ctx, NoteAccount, 7, 2025, "fixed"))
	got, err = notes.Get(ctx, NoteAccount, 7)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"2025": "fixed"}, got)
}

func TestExpiredAcks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	acks := NewExpiredAcks(storage.NewMemory())

	ids, err := acks.List(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	added, err := acks.Acknowledge(ctx, 4)
	require.NoError(t, err)
	require.True(t, added)

	added, err = acks.Acknowledge(ctx, 4)
	require.NoError(t, err)
	require.False(t, added)

	_, err = acks.Acknowledge(ctx, 9)
	require.NoError(t, err)

	ids, err = acks.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 9}, ids)
}

func TestExpiredAcks_MalformedReadsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, ExpiredAcksKey, []byte(`{"oops":true}`)))

	ids, err := NewExpiredAcks(store).List(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestParseNoteKind(t *testing.T) {
	t.Parallel()

	k, err := ParseNoteKind("plan")
	require.NoError(t, err)
	require.Equal(t, NotePlan, k)

	_, err = ParseNoteKind("expense")
	require.Error(t, err)
}

func TestNotes_ConcurrentSetsKeepEveryYear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	notes := NewNotes(storage.NewMemory())

	errs := make([]error, 40)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			year := 2000 + i
			errs[i] = notes.Set(ctx, NotePlan, 3, year, fmt.Sprintf("note %d", year))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := notes.Get(ctx, NotePlan, 3)
	require.NoError(t, err)
	require.Len(t, got, 40)
	require.Equal(t, "note 2031", got["2031"])
}

func TestExpiredAcks_ConcurrentAcknowledgeKeepsEveryPlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	acks := NewExpiredAcks(storage.NewMemory())

	added := make([]bool, 40)
	errs := make([]error, 40)
	var wg sync.WaitGroup
	for i := range added {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added[i], errs[i] = acks.Acknowledge(ctx, int64(i+1))
		}()
	}
	wg.Wait()
	for i := range added {
		require.NoError(t, errs[i])
		require.True(t, added[i])
	}

	ids, err := acks.List(ctx)
	require.NoError(t, err)
	slices.Sort(ids)
	require.Len(t, ids, 40)
	require.Equal(t, int64(1), ids[0])
	require.Equal(t, int64(40), ids[39])
}
