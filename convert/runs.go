package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tubeseed/channels"
	"tubeseed/common"
	"tubeseed/jsmodule"
)

// ErrNoStore is returned by the store phases of Load when no channel store is configured
var ErrNoStore = errors.New("no channel store configured")

// Seed converts the ranking and live exports into one module with RANKING_DATA
// and LIVE_DATA. Each source is its own phase: a missing or failing source
// contributes an empty list and the module is still written.
func (c *Converter) Seed(ctx context.Context, rankingPath, livePath, outputPath string) Report {
	started := c.now()
	report := Report{Kind: common.RunKindSeed, OutputPath: outputPath}

	ranking := c.collect(RankingSource(rankingPath))
	live := c.collect(LiveSource(livePath))
	report.Phases = append(report.Phases, ranking, live)

	module := jsmodule.Module{
		Bindings: []jsmodule.Binding{
			{Name: channels.RankingBinding, Records: ranking.Records},
			{Name: channels.LiveBinding, Records: live.Records},
		},
		TrailingNewline: true,
	}

	write := PhaseResult{Phase: "write", Path: outputPath, Found: true}
	content, err := module.Render()
	if err == nil {
		report.Digest, err = c.write(outputPath, content)
	}
	if err != nil {
		write.Err = err
		report.Digest = ""
		c.printf("Error writing JS file: %v\n", err)
	} else {
		report.Written = true
		c.printf("Successfully updated %s\n", outputName(outputPath))
	}
	report.Phases = append(report.Phases, write)

	return c.finish(ctx, report, started)
}

// Defaults converts a single ranking export into a DEFAULT_CHANNELS module.
// The whole run is one phase: any failure, including a missing source, leaves
// the destination untouched.
func (c *Converter) Defaults(ctx context.Context, inputPath, outputPath string) Report {
	started := c.now()
	report := Report{Kind: common.RunKindDefaults, OutputPath: outputPath}
	phase := PhaseResult{Phase: "defaults", Path: inputPath, Found: true}

	records, err := c.read(inputPath, channels.DefaultsSchema)
	if err == nil {
		module := jsmodule.Module{Bindings: []jsmodule.Binding{{Name: channels.DefaultsBinding, Records: records}}}
		var content []byte
		if content, err = module.Render(); err == nil {
			report.Digest, err = c.write(outputPath, content)
		}
	}

	if err != nil {
		phase.Err = err
		phase.Records = nil
		report.Digest = ""
		c.printf("Error: %v\n", err)
	} else {
		phase.Records = records
		report.Written = true
		c.printf("Successfully converted %d channels.\n", len(records))
	}
	report.Phases = append(report.Phases, phase)

	return c.finish(ctx, report, started)
}

// Load reads the ranking and live exports like Seed and stores every source
// that was found and normalized. Ranking counters are dated from the export
// file name, or today in the converter's zone.
func (c *Converter) Load(ctx context.Context, rankingPath, livePath string) Report {
	started := c.now()
	report := Report{Kind: common.RunKindLoad}

	ranking := c.collect(RankingSource(rankingPath))
	live := c.collect(LiveSource(livePath))
	report.Phases = append(report.Phases, ranking, live)

	if ranking.Found && ranking.Err == nil {
		rankDate := channels.RankDateFromPath(rankingPath, c.now(), c.loc)
		phase := PhaseResult{Phase: "store_ranking", Path: rankingPath, Found: true}
		n, err := c.storeRanking(ctx, ranking, rankDate)
		if err != nil {
			phase.Err = err
			c.printf("Error storing ranking channels: %v\n", err)
		} else {
			report.Written = true
			c.printf("Stored %d ranking channels for %s.\n", n, rankDate)
		}
		report.Phases = append(report.Phases, phase)
	}

	if live.Found && live.Err == nil {
		phase := PhaseResult{Phase: "store_live", Path: livePath, Found: true}
		n, err := c.storeLive(ctx, live)
		if err != nil {
			phase.Err = err
			c.printf("Error storing live candidates: %v\n", err)
		} else {
			report.Written = true
			c.printf("Stored %d live candidates.\n", n)
		}
		report.Phases = append(report.Phases, phase)
	}

	return c.finish(ctx, report, started)
}

func (c *Converter) storeRanking(ctx context.Context, ranking PhaseResult, rankDate string) (int, error) {
	if c.store == nil {
		return 0, ErrNoStore
	}
	start := time.Now()
	n, err := c.store.SaveRanking(ctx, ranking.Records, rankDate)
	c.log.Debug().Err(err).Int("channels", n).Str("rank_date", rankDate).Dur("duration", time.Since(start)).Msg("ranking stored")
	return n, err
}

func (c *Converter) storeLive(ctx context.Context, live PhaseResult) (int, error) {
	if c.store == nil {
		return 0, ErrNoStore
	}
	start := time.Now()
	n, err := c.store.ReplaceLive(ctx, live.Records)
	c.log.Debug().Err(err).Int("candidates", n).Dur("duration", time.Since(start)).Msg("live candidates stored")
	return n, err
}

// ErrUnknownKind is returned by Run for a kind other than seed, defaults or load
var ErrUnknownKind = errors.New("unknown run kind")

// Paths are the files a run reads and writes
type Paths struct {
	Ranking  string
	Live     string
	Defaults string
	Output   string
}

// Run dispatches kind to Seed, Defaults or Load
func (c *Converter) Run(ctx context.Context, kind string, paths Paths) (Report, error) {
	switch kind {
	case common.RunKindSeed:
		return c.Seed(ctx, paths.Ranking, paths.Live, paths.Output), nil
	case common.RunKindDefaults:
		return c.Defaults(ctx, paths.Defaults, paths.Output), nil
	case common.RunKindLoad:
		return c.Load(ctx, paths.Ranking, paths.Live), nil
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
