package channels

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubeseed/common"
	"tubeseed/normalizer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := common.Open(filepath.Join(t.TempDir(), "channels.db"))
	require.NoError(t, err)
	t.Cleanup(func() { common.Close(conn) })

	store, err := NewStore(conn)
	require.NoError(t, err)
	return store
}

func rankingRecord(id, title, country string, subs, views int64) normalizer.Record {
	return normalizer.NewRecord(
		normalizer.Value{Name: "id", Value: id},
		normalizer.Value{Name: "title", Value: title},
		normalizer.Value{Name: "country", Value: country},
		normalizer.Value{Name: "category", Value: DefaultCategory},
		normalizer.Value{Name: "thumbnail", Value: ""},
		normalizer.Value{Name: "subs", Value: subs},
		normalizer.Value{Name: "views", Value: views},
	)
}

func liveRecord(id, title string, lastLive any) normalizer.Record {
	return normalizer.NewRecord(
		normalizer.Value{Name: "id", Value: id},
		normalizer.Value{Name: "title", Value: title},
		normalizer.Value{Name: "last_live_date", Value: lastLive},
	)
}

func TestStore_RankingGrowth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.SaveRanking(ctx, []normalizer.Record{
		rankingRecord("UC1", "One", "KR", 1000, 10000),
		rankingRecord("UC2", "Two", "KR", 5000, 20000),
	}, "2026-01-14")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.SaveRanking(ctx, []normalizer.Record{
		rankingRecord("UC1", "One", "KR", 1500, 12000),
		rankingRecord("UC2", "Two", "KR", 5100, 29000),
		rankingRecord("UC3", "Three", "US", 9000, 1),
	}, "2026-01-15")
	require.NoError(t, err)

	rows, err := store.Ranking(ctx, RankingQuery{Region: "KR"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "UC1", rows[0].ID, "largest subscriber growth first")
	require.NotNil(t, rows[0].Growth)
	assert.Equal(t, int64(500), *rows[0].Growth)
	assert.Equal(t, int64(1500), rows[0].CurrentSubs)
	assert.Equal(t, "2026-01-15", rows[0].RankDate)

	byViews, err := store.Ranking(ctx, RankingQuery{Region: "KR", Sort: SortViews})
	require.NoError(t, err)
	assert.Equal(t, "UC2", byViews[0].ID)
	require.NotNil(t, byViews[0].ViewsGrowth)
	assert.Equal(t, int64(9000), *byViews[0].ViewsGrowth)

	all, err := store.Ranking(ctx, RankingQuery{Region: "ALL"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "UC3", all[2].ID, "channels without a previous day sort last by growth")
	assert.Nil(t, all[2].Growth)
}

func TestStore_RankingFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveRanking(ctx, []normalizer.Record{
		rankingRecord("UC1", "Cooking Daily", "KR", 10, 10),
		rankingRecord("UC2", "Gaming Live", "KR", 20, 20),
		rankingRecord("UC3", "Cooking World", "US", 30, 30),
	}, "2026-01-15")
	require.NoError(t, err)

	rows, err := store.Ranking(ctx, RankingQuery{Region: "ALL", Search: "Cooking", Sort: SortSubs})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "UC3", rows[0].ID)

	rows, err = store.Ranking(ctx, RankingQuery{Region: "ALL", Category: "10"})
	require.NoError(t, err)
	assert.Len(t, rows, 0)

	rows, err = store.Ranking(ctx, RankingQuery{Region: "ALL", Category: DefaultCategory, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStore_SaveRankingIsIdempotentPerDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []normalizer.Record{rankingRecord("UC1", "One", "KR", 10, 10)}
	_, err := store.SaveRanking(ctx, records, "2026-01-15")
	require.NoError(t, err)

	records = []normalizer.Record{rankingRecord("UC1", "One Renamed", "JP", 20, 30)}
	_, err = store.SaveRanking(ctx, records, "2026-01-15")
	require.NoError(t, err)

	history, err := store.History(ctx, "UC1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StatPoint{RankDate: "2026-01-15", Subs: 20, Views: 30}, history[0])

	rows, err := store.Ranking(ctx, RankingQuery{Region: "JP"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "One Renamed", rows[0].Title)
}

func TestStore_HistoryKeepsLatestDays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		date := day.AddDate(0, 0, i).Format("2006-01-02")
		_, err := store.SaveRanking(ctx, []normalizer.Record{rankingRecord("UC1", "One", "KR", int64(i), 0)}, date)
		require.NoError(t, err)
	}

	history, err := store.History(ctx, "UC1")
	require.NoError(t, err)
	require.Len(t, history, HistoryDays)
	assert.Equal(t, "2026-01-04", history[0].RankDate)
	assert.Equal(t, "2026-01-10", history[HistoryDays-1].RankDate)

	_, err = store.History(ctx, "UC404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplaceLive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReplaceLive(ctx, []normalizer.Record{liveRecord("UC0", "Old", nil)})
	require.NoError(t, err)

	n, err := store.ReplaceLive(ctx, []normalizer.Record{
		liveRecord("UC2", "Two", "2026-01-14"),
		liveRecord("UC1", "One", nil),
		liveRecord("UC2", "Two again", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	live, err := store.Live(ctx)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "UC2", live[0].ID)
	require.NotNil(t, live[0].LastLiveDate)
	assert.Equal(t, "2026-01-14", *live[0].LastLiveDate)
	assert.Nil(t, live[1].LastLiveDate)
}

func TestStore_ModuleRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveRanking(ctx, []normalizer.Record{
		rankingRecord("UC1", "One", "KR", 10, 100),
		rankingRecord("UC2", "Two", "US", 20, 200),
	}, "2026-01-15")
	require.NoError(t, err)
	_, err = store.ReplaceLive(ctx, []normalizer.Record{liveRecord("UC9", "Nine", nil)})
	require.NoError(t, err)

	ranking, live, err := store.ModuleRecords(ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, "UC2", ranking[0].String("id"))
	assert.Equal(t, int64(200), ranking[0].Int("views"))
	assert.Equal(t, RankingSchema.FieldNames(), fieldNames(ranking[0]))

	require.Len(t, live, 1)
	assert.Equal(t, LiveSchema.FieldNames(), fieldNames(live[0]))
	value, ok := live[0].Get("last_live_date")
	assert.True(t, ok)
	assert.Nil(t, value)
}

func fieldNames(record normalizer.Record) []string {
	var names []string
	for _, field := range record.Fields() {
		names = append(names, field.Name)
	}
	return names
}

func TestRankDateFromPath(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	now := time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC) // 05:00 next day in Seoul

	tests := []struct {
		path string
		want string
	}{
		{`/downloads/TubeTrend_Ranking_2026-01-15.csv`, "2026-01-15"},
		{`TubeTrend_LiveCandidates_2025-12-31.xlsx`, "2025-12-31"},
		{`2024-01-01/TubeTrend_Ranking.csv`, "2026-01-16"},
		{`TubeTrend_Ranking_2026-13-45.csv`, "2026-01-16"},
		{`TubeTrend.csv`, "2026-01-16"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RankDateFromPath(tt.path, now, seoul), tt.path)
	}
	assert.Equal(t, "2026-01-15", RankDateFromPath("TubeTrend.csv", now, nil))
}

func TestDefaultsSchemaDoesNotShareFields(t *testing.T) {
	assert.Equal(t, RankingSchema.Fields, DefaultsSchema.Fields)

	saved := DefaultsSchema.Fields[1]
	DefaultsSchema.Fields[1].Column = "Title"
	t.Cleanup(func() { DefaultsSchema.Fields[1] = saved })

	assert.Equal(t, ColumnChannelName, RankingSchema.Fields[1].Column)
}
