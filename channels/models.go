package channels

import (
	"time"

	"gorm.io/gorm"
)

// ChannelModel is a channel known to the ranking
type ChannelModel struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Country   string    `gorm:"index" json:"country"`
	Category  string    `gorm:"not null;default:'0';index" json:"category"`
	Thumbnail string    `gorm:"not null;default:''" json:"thumbnail"`
	UpdatedAt time.Time `json:"-"`
}

// ChannelStatModel is one day of counters for a channel
type ChannelStatModel struct {
	ChannelID string `gorm:"primaryKey;type:text" json:"channel_id"`
	RankDate  string `gorm:"primaryKey;type:text" json:"rank_date"` // YYYY-MM-DD
	Subs      int64  `gorm:"not null;default:0" json:"subs"`
	Views     int64  `gorm:"not null;default:0" json:"views"`
}

// LiveCandidateModel is a channel that recently streamed live
type LiveCandidateModel struct {
	Position     int     `gorm:"not null" json:"-"`
	ID           string  `gorm:"primaryKey;type:text" json:"id"`
	Title        string  `gorm:"not null" json:"title"`
	LastLiveDate *string `json:"last_live_date"`
}

func (ChannelModel) TableName() string       { return "channels" }
func (ChannelStatModel) TableName() string   { return "channel_stats" }
func (LiveCandidateModel) TableName() string { return "live_candidates" }

// AutoMigrate creates the channel tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ChannelModel{}, &ChannelStatModel{}, &LiveCandidateModel{}); err != nil {
		return err
	}

	// Latest-date lookups per channel
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_channel_stats_channel_date ON channel_stats(channel_id, rank_date)`).Error
}
