// Package channels holds the channel record shapes and the SQLite channel store.
package channels

import (
	"slices"

	"tubeseed/normalizer"
)

// Source column names in the TubeTrend exports
const (
	ColumnChannelID    = "Channel ID"
	ColumnChannelName  = "Channel Name"
	ColumnCountry      = "Country"
	ColumnSubscribers  = "Subscribers"
	ColumnTotalViews   = "Total Views"
	ColumnLastLiveDate = "Last Live Date"
)

// Exported binding names in the generated module
const (
	RankingBinding  = "RANKING_DATA"
	LiveBinding     = "LIVE_DATA"
	DefaultsBinding = "DEFAULT_CHANNELS"
)

// DefaultCategory is emitted for every ranking record; the exports carry no category
const DefaultCategory = "0"

// RankingSchema maps a ranking export row to a channel record
var RankingSchema = normalizer.Schema{
	Name:     "ranking",
	IDColumn: ColumnChannelID,
	Fields: []normalizer.Field{
		normalizer.CopyField("id", ColumnChannelID),
		normalizer.CopyField("title", ColumnChannelName),
		normalizer.CopyField("country", ColumnCountry),
		normalizer.ConstantField("category", DefaultCategory),
		normalizer.ConstantField("thumbnail", ""),
		normalizer.IntField("subs", ColumnSubscribers),
		normalizer.IntField("views", ColumnTotalViews),
	},
}

// LiveSchema maps a live-candidate export row to a live record
var LiveSchema = normalizer.Schema{
	Name:     "live",
	IDColumn: ColumnChannelID,
	Fields: []normalizer.Field{
		normalizer.CopyField("id", ColumnChannelID),
		normalizer.CopyField("title", ColumnChannelName),
		normalizer.NullableField("last_live_date", ColumnLastLiveDate),
	},
}

// DefaultsSchema is the DEFAULT_CHANNELS shape, identical to the ranking shape
var DefaultsSchema = normalizer.Schema{
	Name:     "defaults",
	IDColumn: RankingSchema.IDColumn,
	Fields:   slices.Clone(RankingSchema.Fields),
}
