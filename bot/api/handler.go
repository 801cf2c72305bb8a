package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/metrics"
	"github.com/flexbet/FlexCodeBot-Go/bot/monitor"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
)

// Extractor is the extraction surface behind the dry-run endpoint.
type Extractor interface {
	Extract(ctx context.Context, raw string) []bot.ConversionTriple
	Codes(raw string) []string
	Platforms(ctx context.Context, raw string) []bot.PlatformCandidate
}

// Processor runs the full reply pipeline; the API never delivers the reply.
type Processor interface {
	Process(ctx context.Context, in monitor.Inbound) (*monitor.Result, error)
}

// Controller starts and stops transport monitoring.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Running() bool
	Status() bot.Status
}

// HistorySource serves persisted conversion attempts.
type HistorySource interface {
	RecentConversions(ctx context.Context, limit int) ([]bot.ConversionRecord, error)
}

// HandlerConfig wires the ops API. Controller and History may be nil when
// the bot runs without transports or persistence; the affected endpoints
// then answer 503.
type HandlerConfig struct {
	Logger     bot.Logger
	Registry   *platform.Registry
	Extractor  Extractor
	Processor  Processor
	Controller Controller
	History    HistorySource
	Metrics    *metrics.Collector
}

// Handler owns the ops API endpoints.
type Handler struct {
	log        bot.Logger
	reg        *platform.Registry
	extractor  Extractor
	processor  Processor
	controller Controller
	history    HistorySource
	metrics    *metrics.Collector
}

// NewHandler builds the endpoint handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		log:        cfg.Logger,
		reg:        cfg.Registry,
		extractor:  cfg.Extractor,
		processor:  cfg.Processor,
		controller: cfg.Controller,
		history:    cfg.History,
		metrics:    cfg.Metrics,
	}
}

// RegisterRoutes attaches every endpoint to the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/platforms", h.Platforms)
	r.GET("/bot/status", h.BotStatus)
	r.POST("/bot/start", h.StartBot)
	r.POST("/bot/stop", h.StopBot)
	r.POST("/test/extract", h.TestExtract)
	r.POST("/process/mention", h.ProcessMention)
	r.POST("/process/dm", h.ProcessDM)
	r.GET("/conversions", h.Conversions)
	if h.metrics != nil && h.metrics.Registry() != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{})))
	}
}

// Health reports server liveness and the monitor state.
func (h *Handler) Health(c *gin.Context) {
	status := "stopped"
	if h.controller != nil && h.controller.Running() {
		status = "running"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "FlexCodeBot is running. Monitor status: " + status,
		"timestamp": time.Now().UTC(),
	})
}

// Platforms lists the vocabulary the bot recognizes.
func (h *Handler) Platforms(c *gin.Context) {
	metas := h.reg.ListMeta()
	out := make([]platformEntry, 0, len(metas))
	for _, m := range metas {
		out = append(out, platformEntry{
			Key:         m.Key,
			DisplayName: m.DisplayName,
			Aliases:     m.Aliases,
			Convertible: m.Convertible,
		})
	}
	c.JSON(http.StatusOK, gin.H{"platforms": out, "count": len(out)})
}

// BotStatus snapshots the monitor and its sessions.
func (h *Handler) BotStatus(c *gin.Context) {
	if h.controller == nil {
		c.JSON(http.StatusOK, bot.Status{Transports: map[string]bot.SessionStats{}})
		return
	}
	c.JSON(http.StatusOK, h.controller.Status())
}

// StartBot launches transport monitoring.
func (h *Handler) StartBot(c *gin.Context) {
	if h.controller == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no transports configured"})
		return
	}
	if err := h.controller.Start(c.Request.Context()); err != nil {
		if errors.Is(err, monitor.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if h.log != nil {
			h.log.Error("start bot failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bot started successfully"})
}

// StopBot halts transport monitoring.
func (h *Handler) StopBot(c *gin.Context) {
	if h.controller == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no transports configured"})
		return
	}
	if err := h.controller.Stop(c.Request.Context()); err != nil {
		if errors.Is(err, monitor.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if h.log != nil {
			h.log.Error("stop bot failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bot stopped successfully"})
}

// TestExtract runs extraction only: no conversion, no reply, no history.
func (h *Handler) TestExtract(c *gin.Context) {
	if h.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "extraction not available"})
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	resp := extractResponse{
		Codes:     h.extractor.Codes(req.Text),
		Platforms: h.extractor.Platforms(ctx, req.Text),
		Triples:   h.extractor.Extract(ctx, req.Text),
	}
	if resp.Codes == nil {
		resp.Codes = []string{}
	}
	if resp.Platforms == nil {
		resp.Platforms = []bot.PlatformCandidate{}
	}
	if resp.Triples == nil {
		resp.Triples = []bot.ConversionTriple{}
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessMention runs the mention pipeline for a submitted message.
func (h *Handler) ProcessMention(c *gin.Context) {
	h.process(c, monitor.KindMention)
}

// ProcessDM runs the direct-message pipeline for a submitted message.
func (h *Handler) ProcessDM(c *gin.Context) {
	h.process(c, monitor.KindDM)
}

func (h *Handler) process(c *gin.Context, kind string) {
	if h.processor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not available"})
		return
	}

	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.processor.Process(c.Request.Context(), monitor.Inbound{
		Transport: "api",
		Kind:      kind,
		MessageID: req.MessageID,
		AuthorID:  req.AuthorID,
		Text:      req.Text,
	})
	if err != nil {
		if h.log != nil {
			h.log.Error("process failed", "kind", kind, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := processResponse{
		Outcome:        result.Outcome,
		Reply:          result.Reply,
		ConvertedCodes: result.Conversions,
		Timestamp:      time.Now().UTC(),
	}
	if resp.ConvertedCodes == nil {
		resp.ConvertedCodes = []monitor.Conversion{}
	}
	if result.Outcome == monitor.OutcomeConverted {
		resp.Success = true
		resp.Message = "Codes processed successfully"
	} else {
		resp.Message = result.Reply
	}
	c.JSON(http.StatusOK, resp)
}

// Conversions pages through recent conversion history, newest first.
func (h *Handler) Conversions(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history not available"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > 200 {
		limit = 200
	}

	recs, err := h.history.RecentConversions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []bot.ConversionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"conversions": recs, "count": len(recs)})
}

type extractRequest struct {
	Text string `json:"text" binding:"required"`
}

type extractResponse struct {
	Codes     []string                `json:"codes"`
	Platforms []bot.PlatformCandidate `json:"platforms"`
	Triples   []bot.ConversionTriple  `json:"triples"`
}

type processRequest struct {
	MessageID    string `json:"message_id"`
	AuthorID     string `json:"author_id"`
	AuthorHandle string `json:"author_handle"`
	Text         string `json:"text" binding:"required"`
}

type processResponse struct {
	Success        bool                 `json:"success"`
	Outcome        string               `json:"outcome"`
	Message        string               `json:"message"`
	Reply          string               `json:"reply"`
	ConvertedCodes []monitor.Conversion `json:"converted_codes"`
	Timestamp      time.Time            `json:"timestamp"`
}

type platformEntry struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases,omitempty"`
	Convertible bool     `json:"convertible"`
}
