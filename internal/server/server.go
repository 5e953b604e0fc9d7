// Package server exposes the report pipeline over HTTP: an upload page for
// people and a small JSON/xlsx API for scripts. Every request is stateless;
// workbooks are generated in memory and never written to disk.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/ifrs-report/internal/converter"
	"github.com/ginjaninja78/ifrs-report/internal/logging"
	"github.com/ginjaninja78/ifrs-report/internal/preview"
	"github.com/ginjaninja78/ifrs-report/internal/types"
	"github.com/ginjaninja78/ifrs-report/internal/validation"
	"github.com/ginjaninja78/ifrs-report/internal/xlsxwriter"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID on every response.
const RequestIDHeader = "X-Request-ID"

// DefaultMaxUploadSize applies when Options.MaxUploadSize is not positive.
const DefaultMaxUploadSize = 32 << 20

const shutdownTimeout = 10 * time.Second

//go:embed templates/*.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/page.html"))

// Options configures the handler.
type Options struct {
	// MaxUploadSize caps the request body in bytes.
	MaxUploadSize int64

	// Version is reported by /api/version and on the upload page.
	Version string
}

type handler struct {
	logger        *zap.Logger
	converter     *converter.Converter
	maxUploadSize int64
	version       string
}

type contextKey struct{}

// NewHandler constructs the HTTP handler that serves the upload page and the
// report API.
func NewHandler(logger *zap.Logger, conv *converter.Converter, opts Options) http.Handler {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	h := &handler{
		logger:        logging.OrNop(logger),
		converter:     conv,
		maxUploadSize: opts.MaxUploadSize,
		version:       version,
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(h.requestID)

	router.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/report", h.handleReportPage).Methods(http.MethodPost)
	router.HandleFunc("/api/report", h.handleReportJSON).Methods(http.MethodPost)
	router.HandleFunc("/api/report.xlsx", h.handleReportXLSX).Methods(http.MethodPost)
	router.HandleFunc("/api/version", h.handleVersion).Methods(http.MethodGet)

	return router
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// the server down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("op", "server.ListenAndServe"), zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down server", zap.String("op", "server.ListenAndServe"))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// requestID tags every request and response with an X-Request-ID, reusing
// the caller's ID when one is sent.
func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
	})
}

func (h *handler) requestLogger(r *http.Request, op string) *zap.Logger {
	id, _ := r.Context().Value(contextKey{}).(string)
	return h.logger.With(zap.String("op", op), zap.String("request_id", id))
}

// =============================================================================
// UPLOAD HANDLING
// =============================================================================

// upload is the parsed form of a report request.
type upload struct {
	content  []byte
	rate     float64
	rateText string
}

// uploadError is a client error with its HTTP status.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string {
	return e.msg
}

// readUpload reads the "file" and "rate" fields of a multipart form. A missing
// file or rate is not an error; the converter treats it as an inert request.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, &uploadError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize),
			}
		}
		return nil, &uploadError{status: http.StatusBadRequest, msg: fmt.Sprintf("failed to parse upload: %v", err)}
	}

	u := &upload{rateText: strings.TrimSpace(r.FormValue("rate"))}

	rate, err := validation.ParseExchangeRate(u.rateText)
	if err != nil {
		return u, &uploadError{status: http.StatusBadRequest, msg: err.Error()}
	}
	if rate != 0 {
		if err := validation.ValidateExchangeRate(rate); err != nil {
			return u, &uploadError{status: http.StatusBadRequest, msg: err.Error()}
		}
	}
	u.rate = rate

	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return u, nil
	}
	if err != nil {
		return u, &uploadError{status: http.StatusBadRequest, msg: fmt.Sprintf("failed to read upload: %v", err)}
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return u, &uploadError{status: http.StatusInternalServerError, msg: fmt.Sprintf("failed to read upload: %v", err)}
	}
	u.content = buf.Bytes()

	return u, nil
}

// run reads the upload and runs the pipeline.
func (h *handler) run(w http.ResponseWriter, r *http.Request) (*upload, *converter.Result, *uploadError) {
	u, err := h.readUpload(w, r)
	if err != nil {
		var uploadErr *uploadError
		if errors.As(err, &uploadErr) {
			return u, nil, uploadErr
		}
		return u, nil, &uploadError{status: http.StatusInternalServerError, msg: err.Error()}
	}

	result, err := h.converter.Run(u.content, u.rate)
	if err != nil {
		return u, nil, &uploadError{status: http.StatusUnprocessableEntity, msg: err.Error()}
	}
	return u, result, nil
}

// =============================================================================
// HTML
// =============================================================================

type pageData struct {
	Title    string
	Version  string
	MinRate  int
	MaxRate  int
	Rate     string
	Error    string
	Ran      bool
	Message  string
	Table    template.HTML
	Download template.URL
	FileName string
}

func (h *handler) newPage() pageData {
	return pageData{
		Title:    h.converter.Settings().Title,
		Version:  h.version,
		MinRate:  validation.MinExchangeRate,
		MaxRate:  validation.MaxExchangeRate,
		FileName: xlsxwriter.FileName,
	}
}

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, h.newPage())
}

func (h *handler) handleReportPage(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r, "server.handleReportPage")
	page := h.newPage()

	u, result, uploadErr := h.run(w, r)
	if u != nil {
		page.Rate = u.rateText
	}
	if uploadErr != nil {
		log.Warn("report request rejected", zap.Int("status", uploadErr.status), zap.String("error", uploadErr.msg))
		page.Error = uploadErr.msg
		h.renderPage(w, r, uploadErr.status, page)
		return
	}

	if !result.Ran {
		h.renderPage(w, r, http.StatusOK, page)
		return
	}

	table, err := preview.HTML(preview.Markdown(preview.Rows(result.Entities)))
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	workbook, err := xlsxwriter.Export(result.Entities, xlsxwriter.Options{Title: page.Title})
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	page.Ran = true
	page.Message = result.Message
	page.Table = table
	page.Download = template.URL("data:" + xlsxwriter.ContentType + ";base64," +
		base64.StdEncoding.EncodeToString(workbook.Bytes()))

	log.Info("report rendered", zap.String("run_id", result.RunID), zap.Int("entities", len(result.Entities)))
	h.renderPage(w, r, http.StatusOK, page)
}

func (h *handler) renderPage(w http.ResponseWriter, r *http.Request, status int, page pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.requestLogger(r, "server.renderPage").Warn("failed to write response", zap.Error(err))
	}
}

func (h *handler) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.requestLogger(r, "server.renderError").Error("request failed", zap.Int("status", status), zap.Error(err))
	http.Error(w, http.StatusText(status), status)
}

// =============================================================================
// JSON API
// =============================================================================

type reportResponse struct {
	Ran       bool                       `json:"ran"`
	RunID     string                     `json:"run_id,omitempty"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message,omitempty"`
	Count     int                        `json:"count"`
	Threshold float64                    `json:"threshold"`
	Rows      []preview.Row              `json:"rows"`
	Entities  []entityValues             `json:"entities"`
	Stats     *converter.ProcessingStats `json:"stats,omitempty"`
	Duration  string                     `json:"duration,omitempty"`
}

// entityValues carries the unformatted amounts; missing amounts are null.
type entityValues struct {
	CodigoEntidad string   `json:"codigo_entidad"`
	NombreEntidad string   `json:"nombre_entidad"`
	IngresosUSD   *float64 `json:"ingresos_usd"`
	DeudoresUSD   *float64 `json:"deudores_usd"`
	MaxUSD        *float64 `json:"max_usd"`
}

func (h *handler) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r, "server.handleReportJSON")

	_, result, uploadErr := h.run(w, r)
	if uploadErr != nil {
		h.respondError(w, log, uploadErr.status, uploadErr.msg)
		return
	}

	resp := reportResponse{
		Ran:       result.Ran,
		Title:     h.converter.Settings().Title,
		Threshold: result.Threshold,
		Rows:      preview.Rows(result.Entities),
		Entities:  make([]entityValues, 0, len(result.Entities)),
	}

	if result.Ran {
		resp.RunID = result.RunID
		resp.Message = result.Message
		resp.Count = len(result.Entities)
		resp.Stats = &result.Stats
		resp.Duration = result.Stats.ProcessingTime.String()

		for _, e := range result.Entities {
			resp.Entities = append(resp.Entities, entityValues{
				CodigoEntidad: e.CodigoEntidad,
				NombreEntidad: e.NombreEntidad,
				IngresosUSD:   amountPtr(e.IngresosUSD),
				DeudoresUSD:   amountPtr(e.DeudoresUSD),
				MaxUSD:        amountPtr(e.MaxUSD),
			})
		}
	}

	h.writeJSON(w, log, http.StatusOK, resp)
}

func (h *handler) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r, "server.handleReportXLSX")

	_, result, uploadErr := h.run(w, r)
	if uploadErr != nil {
		h.respondError(w, log, uploadErr.status, uploadErr.msg)
		return
	}

	if !result.Ran {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	workbook, err := xlsxwriter.Export(result.Entities, xlsxwriter.Options{Title: h.converter.Settings().Title})
	if err != nil {
		h.respondError(w, log, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxwriter.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", xlsxwriter.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(workbook.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := workbook.WriteTo(w); err != nil {
		log.Warn("failed to write workbook", zap.Error(err))
		return
	}

	log.Info("workbook sent", zap.String("run_id", result.RunID), zap.Int("entities", len(result.Entities)))
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.requestLogger(r, "server.handleVersion"), http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondError(w http.ResponseWriter, log *zap.Logger, status int, msg string) {
	log.Warn("report request failed", zap.Int("status", status), zap.String("error", msg))
	h.writeJSON(w, log, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, log *zap.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to write JSON response", zap.Error(err))
	}
}

func amountPtr(a types.Amount) *float64 {
	if !a.Valid || math.IsInf(a.Value, 0) || math.IsNaN(a.Value) {
		return nil
	}
	v := a.Value
	return &v
}
