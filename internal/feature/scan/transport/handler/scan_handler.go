// Package handler はscanフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/signal"
	"nr_scanner/internal/feature/scan/transport/export"
	"nr_scanner/internal/feature/scan/transport/http/dto"
	"nr_scanner/internal/feature/scan/usecase"
)

// ScanRegistry はスキャンジョブの投入と参照を抽象化します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ScanRegistry interface {
	Submit(p usecase.ScanParams) (usecase.Job, error)
	Get(id string) (usecase.Job, error)
	Cancel(id string) error
	List() []usecase.Job
}

// ScanHandler はスキャンのHTTPリクエストを処理します。
type ScanHandler struct {
	registry ScanRegistry
}

// NewScanHandler は新しい ScanHandler を作成します。
func NewScanHandler(registry ScanRegistry) *ScanHandler {
	return &ScanHandler{registry: registry}
}

// Create はスキャンを非同期に開始し、202 とジョブIDを返します。
//
// エンドポイント例:
// POST /scans {"mode":"top","top_n":100,"windows":["NR7"]}
func (h *ScanHandler) Create(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("scan request validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	params, err := toParams(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	job, err := h.registry.Submit(params)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("failed to submit scan", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to submit scan"})
		return
	}
	c.Header("Location", "/scans/"+job.ID)
	c.JSON(http.StatusAccepted, toJobResponse(job, false))
}

// List は既知のジョブを新しい順に返します。レポート本体は含みません。
func (h *ScanHandler) List(c *gin.Context) {
	jobs := h.registry.List()
	out := make([]dto.JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j, false))
	}
	c.JSON(http.StatusOK, out)
}

// Get はジョブの状態と、完了していればレポートを返します。
func (h *ScanHandler) Get(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job, true))
}

// CSV は結果を text/csv で返します。レポートがまだない場合は 409 です。
func (h *ScanHandler) CSV(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	if job.Report == nil {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: fmt.Sprintf("scan is %s", job.Status)})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, job.Report.Results); err != nil {
		slog.Error("failed to write csv", "scan_id", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to write csv"})
		return
	}
	filename := fmt.Sprintf("nr_scan_%s_%s.csv", job.Report.Granularity, job.ID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Cancel は実行中または待機中のスキャンを停止します。
func (h *ScanHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	err := h.registry.Cancel(id)
	switch {
	case errors.Is(err, usecase.ErrScanNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "scan not found"})
	case errors.Is(err, usecase.ErrScanFinished):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	default:
		c.Status(http.StatusAccepted)
	}
}

func (h *ScanHandler) lookup(c *gin.Context) (usecase.Job, bool) {
	job, err := h.registry.Get(c.Param("id"))
	if errors.Is(err, usecase.ErrScanNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "scan not found"})
		return usecase.Job{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return usecase.Job{}, false
	}
	return job, true
}

// toParams はリクエストを ScanParams に変換します。windows 未指定時は全ウィンドウです。
func toParams(req dto.ScanRequest) (usecase.ScanParams, error) {
	windows := signal.AllWindows
	if len(req.Windows) > 0 {
		ws, err := signal.ParseWindows(req.Windows)
		if err != nil {
			return usecase.ScanParams{}, err
		}
		windows = ws
	}
	return usecase.ScanParams{
		Mode:           usecase.UniverseMode(req.Mode),
		TopN:           req.TopN,
		Tickers:        req.Tickers,
		Granularity:    entity.Granularity(req.Granularity),
		Windows:        windows,
		CloseMode:      usecase.CloseMode(req.CloseMode),
		MinVolume:      req.MinVolume,
		DropStables:    req.DropStables,
		IncludeInRange: req.IncludeInRange,
	}, nil
}

func toJobResponse(j usecase.Job, withReport bool) dto.JobResponse {
	windows := make([]string, 0, len(j.Params.Windows))
	for _, w := range j.Params.Windows {
		windows = append(windows, w.String())
	}
	out := dto.JobResponse{
		ID:          j.ID,
		Status:      string(j.Status),
		Mode:        string(j.Params.Mode),
		TopN:        j.Params.TopN,
		Tickers:     j.Params.Tickers,
		Granularity: string(j.Params.Granularity),
		Windows:     windows,
		CloseMode:   string(j.Params.CloseMode),
		Progress: dto.ProgressResponse{
			Done:    j.Progress.Done,
			Total:   j.Progress.Total,
			Symbol:  j.Progress.Symbol,
			Scanned: j.Progress.Scanned,
			Hits:    j.Progress.Hits,
		},
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
		StartedAt:  timePtr(j.StartedAt),
		FinishedAt: timePtr(j.FinishedAt),
	}
	if withReport {
		out.Report = dto.NewReportResponse(j.Report)
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
