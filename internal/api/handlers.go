// Package api exposes the report-generation HTTP surface: report runs,
// tenant listing, health and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/posture-report/internal/database"
	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/logger"
	"github.com/jonesrussell/posture-report/internal/report"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

const defaultListLimit = 50

// ReportBuilder aggregates a statistics snapshot for a tenant and window.
type ReportBuilder interface {
	Build(ctx context.Context, tenant, startDate, endDate string) (*domain.Snapshot, error)
}

// ArtifactWriter persists the rendered report artifacts for a snapshot.
type ArtifactWriter interface {
	Write(snap *domain.Snapshot) (*report.Artifacts, error)
}

// RunRegistry records report runs.
type RunRegistry interface {
	InsertRun(ctx context.Context, run *database.ReportRun) error
	CompleteRun(ctx context.Context, id int, artifactDir string) error
	FailRun(ctx context.Context, id int, errorMsg string) error
	GetRun(ctx context.Context, id int) (*database.ReportRun, error)
	ListRuns(ctx context.Context, tenant string, limit int) ([]*database.ReportRun, error)
}

// TenantLister lists the tenants known to the platform.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]stellar.Tenant, error)
}

// Handler handles HTTP requests for the report API.
type Handler struct {
	builder   ReportBuilder
	artifacts ArtifactWriter
	runs      RunRegistry
	tenants   TenantLister
	metrics   *Metrics
	logger    logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	builder ReportBuilder,
	artifacts ArtifactWriter,
	runs RunRegistry,
	tenants TenantLister,
	metrics *Metrics,
	log logger.Logger,
) *Handler {
	return &Handler{
		builder:   builder,
		artifacts: artifacts,
		runs:      runs,
		tenants:   tenants,
		metrics:   metrics,
		logger:    log,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "posture-report",
	})
}

// createReportRequest is the POST /api/v1/reports payload. An empty tenant
// reports across all tenants.
type createReportRequest struct {
	Tenant    string `json:"tenant"`
	StartDate string `binding:"required" json:"start_date"`
	EndDate   string `binding:"required" json:"end_date"`
}

// runView is the JSON projection of a report run.
type runView struct {
	ID          int    `json:"id"`
	Tenant      string `json:"tenant"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	ArtifactDir string `json:"artifact_dir,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func viewRun(run *database.ReportRun) runView {
	v := runView{
		ID:        run.ID,
		Tenant:    run.Tenant,
		StartDate: run.StartDate,
		EndDate:   run.EndDate,
		Status:    run.Status,
		CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
	}
	if run.ArtifactDir.Valid {
		v.ArtifactDir = run.ArtifactDir.String
	}
	if run.ErrorMessage.Valid {
		v.Error = run.ErrorMessage.String
	}
	if run.CompletedAt.Valid {
		v.CompletedAt = run.CompletedAt.Time.UTC().Format(time.RFC3339)
	}
	return v
}

// CreateReport handles POST /api/v1/reports. The report is built
// synchronously; the response carries the completed run and its artifact
// paths.
func (h *Handler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create report request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	run := &database.ReportRun{
		Tenant:    req.Tenant,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := h.runs.InsertRun(ctx, run); err != nil {
		h.logger.Error("failed to register report run", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("building report",
		logger.Int("run_id", run.ID),
		logger.String("tenant", req.Tenant),
		logger.String("start_date", req.StartDate),
		logger.String("end_date", req.EndDate),
	)

	start := time.Now()
	artifacts, err := h.buildAndPersist(ctx, req)
	h.metrics.ReportBuildDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		h.metrics.ReportBuildsTotal.WithLabelValues("failure").Inc()
		h.logger.Error("report build failed",
			logger.Int("run_id", run.ID),
			logger.Error(err),
		)
		if failErr := h.runs.FailRun(ctx, run.ID, err.Error()); failErr != nil {
			h.logger.Error("failed to record run failure", logger.Error(failErr))
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run_id": run.ID})
		return
	}

	h.metrics.ReportBuildsTotal.WithLabelValues("success").Inc()
	if err := h.runs.CompleteRun(ctx, run.ID, artifacts.Dir); err != nil {
		h.logger.Error("failed to record run completion", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("report build completed",
		logger.Int("run_id", run.ID),
		logger.String("artifact_dir", artifacts.Dir),
	)

	run.Status = database.RunStatusCompleted
	run.ArtifactDir.String = artifacts.Dir
	run.ArtifactDir.Valid = true

	c.JSON(http.StatusCreated, gin.H{
		"run":       viewRun(run),
		"artifacts": artifacts,
	})
}

func (h *Handler) buildAndPersist(ctx context.Context, req createReportRequest) (*report.Artifacts, error) {
	snap, err := h.builder.Build(ctx, req.Tenant, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	return h.artifacts.Write(snap)
}

// ListReports handles GET /api/v1/reports.
func (h *Handler) ListReports(c *gin.Context) {
	tenant := c.Query("tenant")
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), tenant, limit)
	if err != nil {
		h.logger.Error("failed to list report runs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, viewRun(run))
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": views,
		"count":   len(views),
	})
}

// GetReport handles GET /api/v1/reports/:id.
func (h *Handler) GetReport(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), id)
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to get report run",
			logger.Int("run_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, viewRun(run))
}

// ListTenants handles GET /api/v1/tenants.
func (h *Handler) ListTenants(c *gin.Context) {
	tenants, err := h.tenants.ListTenants(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list tenants", logger.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	names := make([]string, 0, len(tenants))
	for _, t := range tenants {
		names = append(names, t.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"tenants": names,
		"count":   len(names),
	})
}
