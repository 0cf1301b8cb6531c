package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hongminglow/smartsave/internal/analysis"
	"github.com/hongminglow/smartsave/internal/http/respond"
	"github.com/hongminglow/smartsave/internal/logging"
)

const (
	maxAnalysisUpload = 32 << 20
	// SourceHeader tells the client whether the analysis came from the
	// analysis service or the local fallback.
	SourceHeader = "X-Analysis-Source"
)

// Forwarder relays a request body to the analysis service unchanged.
type Forwarder interface {
	Forward(ctx context.Context, path, contentType string, body io.Reader) (analysis.Response, error)
}

// AnalysisHandler fronts the analysis service.
type AnalysisHandler struct {
	analyzer  *analysis.Analyzer
	forwarder Forwarder
	log       logging.Logger
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(analyzer *analysis.Analyzer, forwarder Forwarder, log logging.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, forwarder: forwarder, log: log}
}

// Register attaches the analysis routes to the mux.
func (h *AnalysisHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	mux.HandleFunc("POST /api/analytics", h.passThrough("/forecast_expenses/"))
	mux.HandleFunc("POST /api/chat", h.passThrough("/chat/"))
}

func (h *AnalysisHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalysisUpload)
	if err := r.ParseMultipartForm(maxAnalysisUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respond.Error(w, http.StatusBadRequest, "invalid form data")
		return
	}

	req, err := analysisRequestFromForm(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if file, _, err := r.FormFile("transaction_file"); err == nil {
		defer file.Close()
		req.Statement = file
	}

	res, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidRequest) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error(r.Context(), "analysis failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	w.Header().Set(SourceHeader, string(res.Source))
	respond.JSON(w, http.StatusOK, res.Body)
}

func analysisRequestFromForm(r *http.Request) (analysis.Request, error) {
	var req analysis.Request
	var err error
	if req.Income, err = formFloat(r, "income"); err != nil {
		return req, err
	}
	if req.Expenses, err = formFloat(r, "expenses"); err != nil {
		return req, err
	}
	months := strings.TrimSpace(r.FormValue("duration_months"))
	if req.DurationMonths, err = strconv.Atoi(months); err != nil {
		return req, errors.New("duration_months must be a positive integer")
	}
	if err := json.Unmarshal([]byte(r.FormValue("goals")), &req.Goals); err != nil {
		return req, errors.New("goals must be a JSON array")
	}
	if raw := strings.TrimSpace(r.FormValue("spending_categories")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.SpendingCategories); err != nil {
			return req, errors.New("spending_categories must be a JSON object")
		}
	}
	req.Currency = strings.TrimSpace(r.FormValue("currency"))
	return req, nil
}

func formFloat(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(name)), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a positive number", name)
	}
	return v, nil
}

func (h *AnalysisHandler) passThrough(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxAnalysisUpload)
		resp, err := h.forwarder.Forward(r.Context(), path, r.Header.Get("Content-Type"), body)
		if err != nil {
			h.log.Error(r.Context(), "analysis pass-through failed", "path", path, "error", err)
			respond.Error(w, http.StatusBadGateway, "analysis service unavailable")
			return
		}
		respond.Raw(w, resp.Status, resp.ContentType, resp.Body)
	}
}
