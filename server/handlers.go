package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tubeseed/channels"
	"tubeseed/common"
	"tubeseed/jsmodule"
)

// DefaultRegion is the country used when a ranking request names none
const DefaultRegion = "KR"

// Handler serves the API routes
type Handler struct {
	store *channels.Store
	runs  *common.RunStore
	run   RunFunc
	log   zerolog.Logger

	// one conversion at a time
	mu sync.Mutex
}

// NewHandler returns a handler over the given stores
func NewHandler(store *channels.Store, runs *common.RunStore, run RunFunc, log zerolog.Logger) *Handler {
	return &Handler{store: store, runs: runs, run: run, log: log}
}

// RankingRequest represents the query of a ranking request
type RankingRequest struct {
	Region   string `form:"region"`
	Category string `form:"category"`
	Search   string `form:"search"`
	Sort     string `form:"sort" binding:"omitempty,oneof=growth views subs"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// HistoryRequest represents the query of a channel history request
type HistoryRequest struct {
	ID string `form:"id" binding:"required"`
}

// CreateRunRequest represents the request body for run triggers
type CreateRunRequest struct {
	Kind string `json:"kind" binding:"required,oneof=seed defaults load"`
}

// RunResponse represents a recorded run
type RunResponse struct {
	RunID        string            `json:"run_id"`
	Kind         string            `json:"kind"`
	Status       string            `json:"status"`
	OutputPath   string            `json:"output_path,omitempty"`
	OutputDigest string            `json:"output_digest,omitempty"`
	Unchanged    bool              `json:"unchanged"`
	RankingCount int               `json:"ranking_count"`
	LiveCount    int               `json:"live_count"`
	Errors       []common.RunError `json:"errors,omitempty"`
	Output       []string          `json:"output,omitempty"`
	CreatedAt    string            `json:"created_at"`
	CompletedAt  *string           `json:"completed_at,omitempty"`
}

// ListRunsResponse represents a page of recorded runs
type ListRunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

// Ranking godoc
// @Summary List ranked channels
// @Description Returns channels with their latest counters and day-over-day growth
// @Tags channels
// @Produce json
// @Param region query string false "Country code, ALL for every country" default(KR)
// @Param category query string false "Category, all for every category"
// @Param search query string false "Title substring"
// @Param sort query string false "growth, views or subs" default(growth)
// @Param limit query int false "Maximum rows" default(100)
// @Success 200 {array} channels.RankingRow
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/ranking [get]
func (h *Handler) Ranking(c *gin.Context) {
	var req RankingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	region := req.Region
	if region == "" {
		region = DefaultRegion
	}

	rows, err := h.store.Ranking(c.Request.Context(), channels.RankingQuery{
		Region:   strings.ToUpper(region),
		Category: req.Category,
		Search:   req.Search,
		Sort:     req.Sort,
		Limit:    req.Limit,
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ranking"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ChannelHistory godoc
// @Summary Channel history
// @Description Returns the latest daily counters of one channel, oldest first
// @Tags channels
// @Produce json
// @Param id query string true "Channel ID"
// @Success 200 {array} channels.StatPoint
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Channel not found"
// @Router /api/channel-history [get]
func (h *Handler) ChannelHistory(c *gin.Context) {
	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	points, err := h.store.History(c.Request.Context(), req.ID)
	if errors.Is(err, channels.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, points)
}

// LiveCandidates godoc
// @Summary List live candidates
// @Tags channels
// @Produce json
// @Success 200 {array} channels.LiveCandidateModel
// @Router /api/live-candidates [get]
func (h *Handler) LiveCandidates(c *gin.Context) {
	candidates, err := h.store.Live(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load live candidates"})
		return
	}

	c.JSON(http.StatusOK, candidates)
}

// DefaultChannels godoc
// @Summary Generated channel module
// @Description Renders RANKING_DATA and LIVE_DATA from the stored channels
// @Tags channels
// @Produce application/javascript
// @Success 200 {string} string "JS module"
// @Router /default_channels.js [get]
func (h *Handler) DefaultChannels(c *gin.Context) {
	ranking, live, err := h.store.ModuleRecords(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load channels"})
		return
	}

	module := jsmodule.Module{
		Bindings: []jsmodule.Binding{
			{Name: channels.RankingBinding, Records: ranking},
			{Name: channels.LiveBinding, Records: live},
		},
		TrailingNewline: true,
	}
	content, err := module.Render()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render module"})
		return
	}

	c.Data(http.StatusOK, "application/javascript; charset=utf-8", content)
}

// ListRuns godoc
// @Summary List conversion runs
// @Tags runs
// @Produce json
// @Success 200 {object} ListRunsResponse
// @Router /api/runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.runs.List(c.Request.Context(), 0)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}

	resp := ListRunsResponse{Runs: make([]RunResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, toRunResponse(run))
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun godoc
// @Summary Get conversion run
// @Tags runs
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} RunResponse
// @Failure 404 {object} map[string]string "Run not found"
// @Router /api/runs/{run_id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("run_id"))
	if errors.Is(err, common.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}

	c.JSON(http.StatusOK, toRunResponse(*run))
}

// CreateRun godoc
// @Summary Trigger a conversion run
// @Description Runs seed, defaults or load synchronously and returns the recorded run
// @Tags runs
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer admin token"
// @Param request body CreateRunRequest true "Run kind"
// @Success 201 {object} RunResponse "Run recorded"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Invalid token"
// @Failure 403 {object} map[string]string "Run triggers disabled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/runs [post]
func (h *Handler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var out bytes.Buffer
	report, err := h.run(c.Request.Context(), req.Kind, &out)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Info().
		Str("kind", report.Kind).
		Bool("written", report.Written).
		Int("errors", len(report.Errors())).
		Msg("run finished")

	if report.Run == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to record run",
			"output": outputLines(out.String()),
		})
		return
	}

	resp := toRunResponse(*report.Run)
	resp.Output = outputLines(out.String())
	c.JSON(http.StatusCreated, resp)
}

func toRunResponse(run common.RunModel) RunResponse {
	resp := RunResponse{
		RunID:        run.ID,
		Kind:         run.Kind,
		Status:       run.Status,
		OutputPath:   run.OutputPath,
		OutputDigest: run.OutputDigest,
		Unchanged:    run.Unchanged,
		RankingCount: run.RankingCount,
		LiveCount:    run.LiveCount,
		Errors:       run.ErrorList(),
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		completedAt := run.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}
	return resp
}

func outputLines(output string) []string {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return nil
	}
	return strings.Split(output, "\n")
}
