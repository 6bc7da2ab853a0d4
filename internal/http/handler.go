package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nurpe/mplads-works/internal/http/middleware"
	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/service"
)

const (
	healthTimeout = 2 * time.Second

	CacheKeyHeader = "X-Cache-Key"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	works   *service.WorksService
	reports *service.ReportService
	health  Pinger
	log     zerolog.Logger
}

func NewHandler(works *service.WorksService, reports *service.ReportService, health Pinger, log zerolog.Logger) *Handler {
	return &Handler{works: works, reports: reports, health: health, log: log}
}

// Register mounts the public API. Admin routes are mounted only when an
// auth middleware is supplied.
func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", h.healthz)

	api := router.Group("/api")
	api.GET("/works", h.listWorks)
	api.GET("/works/export", h.exportWorks)
	api.GET("/mps/:id/works", h.listMPWorks)
	api.GET("/mps/:id/works/overview", h.mpOverview)
	api.GET("/mps/:id/report", h.mpReport)
	api.GET("/mps", h.listMPs)
	api.GET("/states/summary", h.statesSummary)
	api.GET("/states/report", h.statesReport)

	if authMiddleware == nil {
		return
	}
	admin := api.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireAdmin())
	admin.POST("/cache/flush", h.flushCache)
	admin.DELETE("/cache/:key", h.invalidateCache)
}

type worksQuery struct {
	State        string   `form:"state" binding:"max=100"`
	Constituency string   `form:"constituency" binding:"max=100"`
	House        string   `form:"house" binding:"max=50"`
	MPID         string   `form:"mp_id" binding:"max=64"`
	Search       string   `form:"search" binding:"max=200"`
	Year         string   `form:"year"`
	MinCost      *float64 `form:"min_cost"`
	MaxCost      *float64 `form:"max_cost"`
	HasPayments  *bool    `form:"has_payments"`
	Page         int      `form:"page"`
	Limit        int      `form:"limit"`
	Status       string   `form:"status" binding:"omitempty,work_status"`
	Format       string   `form:"format" binding:"omitempty,oneof=csv xlsx pdf"`
}

func (q worksQuery) filter() model.FilterSet {
	status, _ := model.ParseWorkStatus(q.Status)
	return model.FilterSet{
		State:        q.State,
		Constituency: q.Constituency,
		House:        q.House,
		MPID:         q.MPID,
		Search:       q.Search,
		Year:         q.Year,
		MinCost:      q.MinCost,
		MaxCost:      q.MaxCost,
		HasPayments:  q.HasPayments,
		Page:         q.Page,
		Limit:        q.Limit,
		Status:       status,
	}
}

type mpQuery struct {
	State        string `form:"state" binding:"max=100"`
	Constituency string `form:"constituency" binding:"max=100"`
	House        string `form:"house" binding:"max=50"`
	Search       string `form:"search" binding:"max=200"`
	Sort         string `form:"sort" binding:"omitempty,mp_sort"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

func (q mpQuery) filter() model.MPFilter {
	sort, _ := model.ParseMPSort(q.Sort)
	return model.MPFilter{
		State:        q.State,
		Constituency: q.Constituency,
		House:        q.House,
		Search:       q.Search,
		Sort:         sort,
		Page:         q.Page,
		Limit:        q.Limit,
	}
}

type statesQuery struct {
	House  string `form:"house" binding:"max=50"`
	Format string `form:"format" binding:"omitempty,oneof=xlsx pdf"`
}

func bindQuery[T any](h *Handler, c *gin.Context) (T, bool) {
	var q T
	if err := c.ShouldBindQuery(&q); err != nil {
		h.handleError(c, fmt.Errorf("%w: %s", service.ErrInvalidFilter, bindMessage(err)))
		return q, false
	}
	return q, true
}

func (h *Handler) listWorks(c *gin.Context) {
	q, ok := bindQuery[worksQuery](h, c)
	if !ok {
		return
	}

	result, err := h.works.FetchPage(c.Request.Context(), q.filter())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header(CacheKeyHeader, result.CacheKey)
	success(c, result)
}

func (h *Handler) listMPWorks(c *gin.Context) {
	q, ok := bindQuery[worksQuery](h, c)
	if !ok {
		return
	}

	result, err := h.works.FetchMPWorks(c.Request.Context(), c.Param("id"), q.filter())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header(CacheKeyHeader, result.CacheKey)
	success(c, result)
}

func (h *Handler) listMPs(c *gin.Context) {
	q, ok := bindQuery[mpQuery](h, c)
	if !ok {
		return
	}

	result, err := h.works.FetchMPs(c.Request.Context(), q.filter())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header(CacheKeyHeader, result.CacheKey)
	success(c, result)
}

func (h *Handler) statesSummary(c *gin.Context) {
	q, ok := bindQuery[statesQuery](h, c)
	if !ok {
		return
	}

	result, err := h.works.FetchStates(c.Request.Context(), model.StatesFilter{House: q.House})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header(CacheKeyHeader, result.CacheKey)
	success(c, result)
}

func (h *Handler) statesReport(c *gin.Context) {
	q, ok := bindQuery[statesQuery](h, c)
	if !ok {
		return
	}
	format := model.ReportFormat(q.Format)
	if format == "" {
		format = model.ReportFormatPDF
	}

	result, err := h.reports.StatesReport(c.Request.Context(), model.StatesFilter{House: q.House}, format)
	if err != nil {
		h.handleError(c, err)
		return
	}
	attachment(c, result)
}

func (h *Handler) mpOverview(c *gin.Context) {
	q, ok := bindQuery[worksQuery](h, c)
	if !ok {
		return
	}

	result, err := h.works.FetchMPOverview(c.Request.Context(), c.Param("id"), q.filter())
	if err != nil {
		h.handleError(c, err)
		return
	}
	success(c, result)
}

func (h *Handler) exportWorks(c *gin.Context) {
	q, ok := bindQuery[worksQuery](h, c)
	if !ok {
		return
	}
	format := model.ReportFormat(q.Format)
	if format == "" {
		format = model.ReportFormatCSV
	}

	result, err := h.reports.ExportWorks(c.Request.Context(), q.filter(), format)
	if err != nil {
		h.handleError(c, err)
		return
	}
	attachment(c, result)
}

func (h *Handler) mpReport(c *gin.Context) {
	format := model.ReportFormat(strings.ToLower(c.DefaultQuery("format", string(model.ReportFormatPDF))))

	result, err := h.reports.MPReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		h.handleError(c, err)
		return
	}
	attachment(c, result)
}

func (h *Handler) flushCache(c *gin.Context) {
	if err := h.works.FlushCache(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	principal, _ := middleware.MustPrincipal(c)
	h.log.Info().Str("subject", principal.Subject).Msg("response cache flushed")
	success(c, gin.H{"flushed": true})
}

func (h *Handler) invalidateCache(c *gin.Context) {
	key := c.Param("key")
	if err := h.works.InvalidateCache(c.Request.Context(), key); err != nil {
		h.handleError(c, err)
		return
	}
	success(c, gin.H{"key": key})
}

func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "store unavailable"})
		return
	}
	success(c, gin.H{"status": "ok"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		h.log.Debug().Str("path", c.FullPath()).Msg("request canceled by client")
		c.AbortWithStatus(middleware.StatusClientClosedRequest)
	case errors.Is(err, service.ErrInvalidFilter):
		failure(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		failure(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		failure(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("works store unavailable")
		failure(c, http.StatusServiceUnavailable, service.ErrStoreUnavailable.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		failure(c, http.StatusInternalServerError, "internal error")
	}
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func failure(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func attachment(c *gin.Context, result *service.ReportResult) {
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// bindMessage turns binding errors into a short client-facing message.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "malformed query parameters"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid " + strings.Join(fields, ", ")
}

// RegisterValidators adds the custom tags used by request structs to gin's
// validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	if err := v.RegisterValidation("work_status", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseWorkStatus(fl.Field().String())
		return ok
	}); err != nil {
		return err
	}
	return v.RegisterValidation("mp_sort", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseMPSort(fl.Field().String())
		return ok
	})
}
