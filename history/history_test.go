package history

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func testCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	c := catalog.NewMemoryCatalog()
	require.NoError(t, c.Add(
		&core.Book{ID: "b1", Author: "Christie", Genre: "Mystery", Categories: []string{"Crime"}},
		&core.Book{ID: "b2", Author: "Christie", Genre: "Mystery"},
		&core.Book{ID: "b3", Author: "Austen", Genre: "Romance"},
	))
	return c
}

func TestNormalizer_Event(t *testing.T) {
	records := []core.BorrowRecord{
		{ID: "r1", UserID: "u1", BookID: "b1", BorrowedAt: at(1, 9)},
		{UserID: "u2", BookID: "b3", Genres: []string{"Drama", "Drama"}, BorrowedAt: at(1, 10)},
		{ID: "r3", UserID: "u1", BookID: "missing", BorrowedAt: at(2, 9)},
	}
	n := NewNormalizer(WithCatalog(testCatalog(t)))

	txns, stats, err := n.Normalize(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, Stats{Records: 3, Transactions: 3}, stats)

	assert.Equal(t, "r1", txns[0].ID)
	assert.Equal(t, []string{"Mystery", "Crime"}, txns[0].Genres)
	assert.Equal(t, at(1, 9), txns[0].Timestamp)

	_, err = uuid.Parse(txns[1].ID)
	assert.NoError(t, err, "missing ID gets a uuid")
	assert.Equal(t, []string{"Drama"}, txns[1].Genres, "record genres win over catalog")

	assert.Empty(t, txns[2].Genres, "unknown book yields an empty transaction")
}

func TestNormalizer_Session(t *testing.T) {
	seq := 0
	n := NewNormalizer(
		WithMode(ModeSession),
		WithSessionWindow(6*time.Hour),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("s%d", seq) }),
	)
	records := []core.BorrowRecord{
		{UserID: "u2", Genres: []string{"Romance"}, BorrowedAt: at(1, 8)},
		{UserID: "u1", Genres: []string{"Thriller"}, BorrowedAt: at(1, 12)},
		{UserID: "u1", Genres: []string{"Mystery"}, BorrowedAt: at(1, 9)},
		{UserID: "u1", Genres: []string{"Crime", "Mystery"}, BorrowedAt: at(2, 9)},
		{UserID: "u2", Genres: []string{"Drama"}, BorrowedAt: at(1, 13)},
	}

	txns, stats, err := n.Normalize(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Transactions)
	require.Len(t, txns, 3)

	assert.Equal(t, core.Transaction{ID: "s1", UserID: "u2", Genres: []string{"Romance", "Drama"}, Timestamp: at(1, 13)}, txns[0])
	assert.Equal(t, core.Transaction{ID: "s2", UserID: "u1", Genres: []string{"Mystery", "Thriller"}, Timestamp: at(1, 12)}, txns[1])
	assert.Equal(t, core.Transaction{ID: "s3", UserID: "u1", Genres: []string{"Crime", "Mystery"}, Timestamp: at(2, 9)}, txns[2])
}

func TestNormalizer_InvalidRecords(t *testing.T) {
	records := []core.BorrowRecord{
		{ID: "ok", UserID: "u1", Genres: []string{"Mystery"}, BorrowedAt: at(1, 1)},
		{ID: "no-user", Genres: []string{"Mystery"}, BorrowedAt: at(1, 1)},
		{ID: "no-time", UserID: "u1", Genres: []string{"Mystery"}},
	}

	var buf bytes.Buffer
	txns, stats, err := NewNormalizer(WithLogger(zerolog.New(&buf))).Normalize(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.Equal(t, 2, stats.Skipped)
	assert.Contains(t, buf.String(), `"record_id":"no-user"`)

	_, _, err = NewNormalizer(WithStrict(true)).Normalize(context.Background(), records)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidTransaction)
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "no-user")
}

func TestStoreProvider(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	p := NewStoreProvider(s, "")

	recs, err := p.UserRecords(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, recs)
	all, err := p.AllRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, p.Append(ctx,
		core.BorrowRecord{ID: "r1", UserID: "u2", BookID: "b3", BorrowedAt: at(1, 1)},
		core.BorrowRecord{ID: "r2", UserID: "u1", BookID: "b1", BorrowedAt: at(1, 2)},
	))
	require.NoError(t, p.Append(ctx, core.BorrowRecord{ID: "r3", UserID: "u2", BookID: "b2", BorrowedAt: at(2, 1)}))

	recs, err = p.UserRecords(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r1", recs[0].ID)
	assert.True(t, recs[1].BorrowedAt.Equal(at(2, 1)))

	all, err = p.AllRecords(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"r1", "r3", "r2"}, ids)
}

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(
		core.BorrowRecord{ID: "r1", UserID: "u1"},
		core.BorrowRecord{ID: "r2", UserID: "u2"},
		core.BorrowRecord{ID: "r3", UserID: "u1"},
	)
	all, err := p.AllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r3", all[1].ID)

	recs, err := p.UserRecords(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestBuildProfile(t *testing.T) {
	records := []core.BorrowRecord{
		{UserID: "u1", BookID: "b3"},
		{UserID: "u1", BookID: "b1"},
		{UserID: "u1", BookID: "b2"},
		{UserID: "u1", BookID: "b2"},
		{UserID: "u1", BookID: "x", Genres: []string{"Poetry"}},
	}
	p, err := BuildProfile(context.Background(), "u1", records, testCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Romance": 1, "Mystery": 3, "Crime": 1, "Poetry": 1}, p.Genres)
	assert.Equal(t, []string{"Mystery", "Romance", "Crime"}, p.TopGenres(DefaultProfileSize))
	assert.Equal(t, []string{"Mystery", "Romance", "Crime", "Poetry"}, p.TopGenres(0))
	assert.Equal(t, []string{"Christie", "Austen"}, p.TopAuthors(0))
	assert.Equal(t, []string{"b3", "b1", "b2", "x"}, p.Borrowed)
	assert.False(t, p.Empty())

	empty, err := BuildProfile(context.Background(), "u9", nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.TopGenres(3))
}
