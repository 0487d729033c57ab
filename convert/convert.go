// Package convert runs the export conversions: seed (ranking + live module),
// defaults (single DEFAULT_CHANNELS module) and load (ranking + live into the
// channel store).
//
// Every step is a phase with its own result. Status lines for the operator are
// written to the converter's output; phase failures never abort the process.
package convert

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"tubeseed/channels"
	"tubeseed/common"
	"tubeseed/normalizer"
	"tubeseed/parsers"
)

// Recorder stores the summary of a finished run
type Recorder interface {
	Record(ctx context.Context, summary common.RunSummary) (*common.RunModel, error)
}

// Source is one export file and the schema its rows are mapped with
type Source struct {
	Phase  string
	Label  string
	Noun   string
	Path   string
	Schema normalizer.Schema
}

// RankingSource describes the ranking export at path
func RankingSource(path string) Source {
	return Source{Phase: "ranking", Label: "Ranking CSV", Noun: "ranking channels", Path: path, Schema: channels.RankingSchema}
}

// LiveSource describes the live-candidate export at path
func LiveSource(path string) Source {
	return Source{Phase: "live", Label: "Live CSV", Noun: "live candidates", Path: path, Schema: channels.LiveSchema}
}

// PhaseResult is the outcome of one phase. Records is empty when Err is set.
type PhaseResult struct {
	Phase   string
	Path    string
	Found   bool
	Records []normalizer.Record
	Err     error
}

// Report is the outcome of a whole run
type Report struct {
	Kind       string
	OutputPath string
	Digest     string
	Written    bool
	Phases     []PhaseResult
	Run        *common.RunModel
}

// Errors lists the failed phases
func (r Report) Errors() []common.RunError {
	var errs []common.RunError
	for _, phase := range r.Phases {
		if phase.Err != nil {
			errs = append(errs, common.RunError{Phase: phase.Phase, Message: phase.Err.Error()})
		}
	}
	return errs
}

// Phase returns the result of the named phase
func (r Report) Phase(name string) (PhaseResult, bool) {
	for _, phase := range r.Phases {
		if phase.Phase == name {
			return phase, true
		}
	}
	return PhaseResult{}, false
}

// Converter runs conversions against a filesystem
type Converter struct {
	fs       afero.Fs
	out      io.Writer
	log      zerolog.Logger
	recorder Recorder
	store    *channels.Store
	now      func() time.Time
	loc      *time.Location
}

// Option configures a Converter
type Option func(*Converter)

// WithRecorder records every run in the ledger
func WithRecorder(recorder Recorder) Option {
	return func(c *Converter) { c.recorder = recorder }
}

// WithStore sets the channel store used by Load
func WithStore(store *channels.Store) Option {
	return func(c *Converter) { c.store = store }
}

// WithClock sets the clock and zone used to date ranking snapshots
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(c *Converter) {
		c.now = now
		c.loc = loc
	}
}

// New returns a converter reading and writing through fsys and printing status lines to out
func New(fsys afero.Fs, out io.Writer, log zerolog.Logger, opts ...Option) *Converter {
	c := &Converter{
		fs:  fsys,
		out: out,
		log: log,
		now: time.Now,
		loc: time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// collect runs one collection phase. A missing file yields zero records.
func (c *Converter) collect(src Source) PhaseResult {
	result := PhaseResult{Phase: src.Phase, Path: src.Path, Records: []normalizer.Record{}}

	if _, err := c.fs.Stat(src.Path); errors.Is(err, fs.ErrNotExist) {
		c.printf("%s not found.\n", src.Label)
		c.log.Debug().Str("phase", src.Phase).Str("path", src.Path).Msg("source not found")
		return result
	}
	result.Found = true

	records, err := c.read(src.Path, src.Schema)
	if err != nil {
		result.Err = err
		c.printf("Error processing %s: %v\n", src.Label, err)
		return result
	}

	result.Records = records
	c.printf("Loaded %d %s.\n", len(records), src.Noun)
	return result
}

// read opens path, normalizes every row and closes the file before returning
func (c *Converter) read(path string, schema normalizer.Schema) ([]normalizer.Record, error) {
	start := time.Now()

	file, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	format := parsers.DetectFormat(path)
	records, err := normalizer.Normalize(parsers.Read(file, format), schema)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("schema", schema.Name).
		Str("path", path).
		Str("format", string(format)).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("source normalized")
	return records, nil
}

// write stores content at path and returns its hex blake2b-256 digest
func (c *Converter) write(path string, content []byte) (string, error) {
	if err := afero.WriteFile(c.fs, path, content, 0o644); err != nil {
		return "", err
	}
	sum := blake2b.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	c.log.Debug().Str("path", path).Int("bytes", len(content)).Str("digest", digest).Msg("module written")
	return digest, nil
}

func (c *Converter) finish(ctx context.Context, report Report, started time.Time) Report {
	if c.recorder == nil {
		return report
	}

	summary := common.RunSummary{
		Kind:         report.Kind,
		OutputPath:   report.OutputPath,
		OutputDigest: report.Digest,
		Written:      report.Written,
		Errors:       report.Errors(),
		StartedAt:    started,
	}
	for _, phase := range report.Phases {
		switch phase.Phase {
		case "ranking", "defaults":
			summary.RankingCount = len(phase.Records)
		case "live":
			summary.LiveCount = len(phase.Records)
		}
	}

	run, err := c.recorder.Record(ctx, summary)
	if err != nil {
		c.log.Warn().Err(err).Str("kind", report.Kind).Msg("record run")
		return report
	}
	report.Run = run
	c.log.Debug().Str("run_id", run.ID).Str("status", run.Status).Bool("unchanged", run.Unchanged).Msg("run recorded")
	return report
}

func (c *Converter) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func outputName(path string) string {
	return filepath.Base(path)
}
