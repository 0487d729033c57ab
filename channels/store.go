package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tubeseed/normalizer"
)

const (
	// BatchSize is the number of rows written per INSERT statement
	BatchSize = 500

	// DefaultRankingLimit caps ranking responses when no limit is given
	DefaultRankingLimit = 100

	// HistoryDays is the number of stat points returned per channel
	HistoryDays = 7
)

// Ranking sort orders
const (
	SortGrowth = "growth"
	SortViews  = "views"
	SortSubs   = "subs"
)

// ErrNotFound is returned when a channel has no stored data
var ErrNotFound = errors.New("channel not found")

// RankingQuery filters and orders the ranking.
// Region "ALL" or "" and Category "all" or "" disable those filters.
// Limit 0 means DefaultRankingLimit, a negative Limit means no limit.
type RankingQuery struct {
	Region   string
	Category string
	Search   string
	Sort     string
	Limit    int
}

// RankingRow is one channel with its latest counters and day-over-day growth
type RankingRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Country      string `json:"country"`
	Thumbnail    string `json:"thumbnail"`
	RankDate     string `json:"rank_date"`
	CurrentSubs  int64  `json:"current_subs"`
	CurrentViews int64  `json:"current_views"`
	Growth       *int64 `json:"growth"`
	ViewsGrowth  *int64 `json:"views_growth"`
}

// StatPoint is one day of a channel's history
type StatPoint struct {
	RankDate string `json:"rank_date"`
	Subs     int64  `json:"subs"`
	Views    int64  `json:"views"`
}

// Store reads and writes channel data
type Store struct {
	db *gorm.DB
}

// NewStore migrates the channel tables and returns a store over db
func NewStore(db *gorm.DB) (*Store, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate channel tables: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRanking upserts the channels in records and replaces their counters for
// rankDate. It returns the number of distinct channels written.
func (s *Store) SaveRanking(ctx context.Context, records []normalizer.Record, rankDate string) (int, error) {
	index := map[string]int{}
	var channels []ChannelModel
	var stats []ChannelStatModel

	for _, record := range records {
		id := record.String("id")
		channel := ChannelModel{
			ID:        id,
			Title:     record.String("title"),
			Country:   record.String("country"),
			Category:  record.String("category"),
			Thumbnail: record.String("thumbnail"),
		}
		stat := ChannelStatModel{
			ChannelID: id,
			RankDate:  rankDate,
			Subs:      record.Int("subs"),
			Views:     record.Int("views"),
		}

		// Later rows for the same channel win
		if i, seen := index[id]; seen {
			channels[i] = channel
			stats[i] = stat
			continue
		}
		index[id] = len(channels)
		channels = append(channels, channel)
		stats = append(stats, stat)
	}

	if len(channels) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "country", "updated_at"}),
		}).CreateInBatches(channels, BatchSize).Error; err != nil {
			return fmt.Errorf("upsert channels: %w", err)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}, {Name: "rank_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"subs", "views"}),
		}).CreateInBatches(stats, BatchSize).Error; err != nil {
			return fmt.Errorf("upsert channel stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(channels), nil
}

// ReplaceLive swaps the stored live candidates for records, keeping record order.
// A channel listed twice keeps its first position.
func (s *Store) ReplaceLive(ctx context.Context, records []normalizer.Record) (int, error) {
	seen := map[string]bool{}
	candidates := make([]LiveCandidateModel, 0, len(records))
	for _, record := range records {
		id := record.String("id")
		if seen[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, LiveCandidateModel{
			ID:           id,
			Position:     len(candidates),
			Title:        record.String("title"),
			LastLiveDate: record.Nullable("last_live_date"),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&LiveCandidateModel{}).Error; err != nil {
			return fmt.Errorf("clear live candidates: %w", err)
		}
		if len(candidates) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(candidates, BatchSize).Error; err != nil {
			return fmt.Errorf("insert live candidates: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

// Ranking returns channels with their latest counters, filtered and sorted by q
func (s *Store) Ranking(ctx context.Context, q RankingQuery) ([]RankingRow, error) {
	var conditions []string
	var bindings []interface{}

	if q.Region != "" && !strings.EqualFold(q.Region, "ALL") {
		conditions = append(conditions, "c.country = ?")
		bindings = append(bindings, q.Region)
	}
	if q.Category != "" && q.Category != "all" {
		conditions = append(conditions, "c.category = ?")
		bindings = append(bindings, q.Category)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		conditions = append(conditions, "c.title LIKE ?")
		bindings = append(bindings, "%"+search+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var orderBy string
	switch q.Sort {
	case SortViews:
		orderBy = "current_views DESC, c.id ASC"
	case SortSubs:
		orderBy = "current_subs DESC, c.id ASC"
	default:
		orderBy = "growth DESC, current_subs DESC, c.id ASC"
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultRankingLimit
	}

	query := `
		SELECT
			c.id, c.title, c.category, c.country, c.thumbnail,
			t.rank_date AS rank_date,
			t.subs AS current_subs,
			t.views AS current_views,
			CASE WHEN y.subs IS NULL THEN NULL ELSE t.subs - y.subs END AS growth,
			CASE WHEN y.views IS NULL THEN NULL ELSE t.views - y.views END AS views_growth
		FROM channels c
		JOIN channel_stats t ON t.channel_id = c.id
			AND t.rank_date = (SELECT MAX(rank_date) FROM channel_stats WHERE channel_id = c.id)
		LEFT JOIN channel_stats y ON y.channel_id = c.id
			AND y.rank_date = DATE(t.rank_date, '-1 day')
		` + whereClause + `
		ORDER BY ` + orderBy

	if limit > 0 {
		query += " LIMIT ?"
		bindings = append(bindings, limit)
	}

	rows := []RankingRow{}
	if err := s.db.WithContext(ctx).Raw(query, bindings...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query ranking: %w", err)
	}
	return rows, nil
}

// History returns the latest HistoryDays stat points of a channel, oldest first
func (s *Store) History(ctx context.Context, channelID string) ([]StatPoint, error) {
	points := []StatPoint{}
	err := s.db.WithContext(ctx).Raw(`
		SELECT rank_date, subs, views FROM (
			SELECT rank_date, subs, views FROM channel_stats
			WHERE channel_id = ?
			ORDER BY rank_date DESC
			LIMIT ?
		) ORDER BY rank_date ASC`, channelID, HistoryDays).Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNotFound
	}
	return points, nil
}

// Live returns the stored live candidates in export order
func (s *Store) Live(ctx context.Context) ([]LiveCandidateModel, error) {
	candidates := []LiveCandidateModel{}
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("query live candidates: %w", err)
	}
	return candidates, nil
}

// ModuleRecords rebuilds the ranking and live record sets from the store, in
// the same shapes the converters emit. Ranking records are ordered by subscribers.
func (s *Store) ModuleRecords(ctx context.Context) (ranking, live []normalizer.Record, err error) {
	rows, err := s.Ranking(ctx, RankingQuery{Sort: SortSubs, Limit: -1})
	if err != nil {
		return nil, nil, err
	}
	candidates, err := s.Live(ctx)
	if err != nil {
		return nil, nil, err
	}

	ranking = make([]normalizer.Record, 0, len(rows))
	for _, row := range rows {
		ranking = append(ranking, normalizer.NewRecord(
			normalizer.Value{Name: "id", Value: row.ID},
			normalizer.Value{Name: "title", Value: row.Title},
			normalizer.Value{Name: "country", Value: row.Country},
			normalizer.Value{Name: "category", Value: row.Category},
			normalizer.Value{Name: "thumbnail", Value: row.Thumbnail},
			normalizer.Value{Name: "subs", Value: row.CurrentSubs},
			normalizer.Value{Name: "views", Value: row.CurrentViews},
		))
	}

	live = make([]normalizer.Record, 0, len(candidates))
	for _, candidate := range candidates {
		var lastLive any
		if candidate.LastLiveDate != nil {
			lastLive = *candidate.LastLiveDate
		}
		live = append(live, normalizer.NewRecord(
			normalizer.Value{Name: "id", Value: candidate.ID},
			normalizer.Value{Name: "title", Value: candidate.Title},
			normalizer.Value{Name: "last_live_date", Value: lastLive},
		))
	}
	return ranking, live, nil
}
