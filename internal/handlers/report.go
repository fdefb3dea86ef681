package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gracechurch/retreat-api/internal/auth"
	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/gracechurch/retreat-api/internal/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ReportHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewReportHandler(db *gorm.DB, authHandler *auth.AuthHandler) *ReportHandler {
	return &ReportHandler{db: db, authHandler: authHandler}
}

// build loads everything a report needs and aggregates it. Any failed fetch
// yields report.ErrNoData rather than a partial report.
func (h *ReportHandler) build(ctx context.Context, retreat models.Retreat) (*report.Report, error) {
	var (
		registrations []models.Registration
		sessions      []models.AttendanceSession
		records       []models.AttendanceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.db.WithContext(gctx).Where("retreat_id = ?", retreat.ID).Find(&registrations).Error
	})
	g.Go(func() error {
		return h.db.WithContext(gctx).Where("retreat_id = ?", retreat.ID).Find(&sessions).Error
	})
	g.Go(func() error {
		return h.db.WithContext(gctx).Where("session_id IN (?)", sessionIDs(h.db, retreat.ID)).Find(&records).Error
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("failed to load report data", zap.Uint("retreat_id", retreat.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", report.ErrNoData, err)
	}

	return report.Build(retreat, registrations, sessions, records), nil
}

type ReportOutput struct {
	Body *report.Report
}

func (h *ReportHandler) HandleReport(ctx context.Context, input *RetreatIDInput) (*ReportOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	retreat, err := loadRetreat(ctx, h.db, input.ID)
	if err != nil {
		return nil, err
	}

	r, err := h.build(ctx, retreat)
	if err != nil {
		return nil, huma.Error503ServiceUnavailable("Failed to load report data")
	}
	return &ReportOutput{Body: r}, nil
}

// ServePDF streams the report as a PDF download. It runs behind
// auth.AuthMiddleware.
func (h *ReportHandler) ServePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid retreat id", http.StatusBadRequest)
		return
	}

	var retreat models.Retreat
	if err := h.db.WithContext(r.Context()).First(&retreat, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Retreat not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load retreat", http.StatusInternalServerError)
		return
	}

	rep, err := h.build(r.Context(), retreat)
	if err != nil {
		http.Error(w, "Failed to load report data", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := report.WritePDF(&buf, rep); err != nil {
		zap.L().Error("failed to render report pdf", zap.Uint("retreat_id", retreat.ID), zap.Error(err))
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}

	adminID, _ := auth.AdminIDFromContext(r.Context())
	zap.L().Info("report pdf downloaded",
		zap.Uint("retreat_id", retreat.ID),
		zap.Uint("admin_id", adminID))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="retreat-%d-%s-report.pdf"`, retreat.Year, retreat.Type))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
