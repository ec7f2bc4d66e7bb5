package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"wellwq/internal/correlation"
	"wellwq/internal/dataprocessing"
	apierrors "wellwq/internal/errors"
	"wellwq/internal/infrastructure"
	"wellwq/internal/store"
	v1 "wellwq/pkg/contracts/api/v1"
	"wellwq/pkg/contracts/domain"
)

// emptySelectionMessage is the informational message for the no-data case,
// which is a successful outcome rather than an error.
const emptySelectionMessage = "no data available for the selected basin and year(s)"

// DataHandler handles dataset upload and query requests
type DataHandler struct {
	store          *store.Store
	normalizer     *dataprocessing.Normalizer
	validate       *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewDataHandler creates a new data handler
func NewDataHandler(st *store.Store, normalizer *dataprocessing.Normalizer, maxUploadBytes int64, logger *slog.Logger) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &DataHandler{
		store:          st,
		normalizer:     normalizer,
		validate:       validator.New(),
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the dataset routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Get("/{id}", h.Summary)
	r.Post("/{id}/statistics", h.Statistics)
	r.Post("/{id}/correlation", h.Correlation)
	return r
}

// Upload accepts a multipart CSV/XLS/XLSX upload, registers the parsed
// dataset and returns its handle. Re-uploading identical bytes returns the
// memoized dataset without re-parsing.
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "INVALID_REQUEST",
			`multipart field "file" is required`, err.Error()))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	fingerprint := store.Fingerprint(raw)
	if entry, ok := h.store.Lookup(fingerprint); ok {
		infrastructure.DatasetCacheHits.Inc()
		h.logger.InfoContext(ctx, "upload served from fingerprint cache",
			slog.String("dataset_id", entry.ID),
			slog.String("file_name", header.Filename))

		render.JSON(w, r, v1.DatasetResponse{
			Success:   true,
			DatasetID: entry.ID,
			Cached:    true,
			Summary:   entry.Dataset.Summary(),
		})
		return
	}

	ds, err := h.normalizer.Load(ctx, header.Filename, bytes.NewReader(raw))
	if err != nil {
		h.logger.WarnContext(ctx, "dataset upload rejected",
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}

	entry := h.store.Put(header.Filename, fingerprint, ds)
	infrastructure.DatasetsLoaded.Inc()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v1.DatasetResponse{
		Success:   true,
		DatasetID: entry.ID,
		Summary:   ds.Summary(),
	})
}

// Summary returns the selection metadata for a registered dataset.
func (h *DataHandler) Summary(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		h.renderError(w, r, apierrors.ErrDatasetNotFound)
		return
	}

	render.JSON(w, r, v1.DatasetResponse{
		Success:   true,
		DatasetID: entry.ID,
		Summary:   entry.Dataset.Summary(),
	})
}

// Statistics filters the dataset to the requested basin/year range and
// returns the grouped statistics table for one parameter.
func (h *DataHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	entry, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		h.renderError(w, r, apierrors.ErrDatasetNotFound)
		return
	}

	var req v1.StatisticsRequest
	if apiErr := h.decodeAndValidate(r, &req); apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	subset := dataprocessing.Filter(entry.Dataset, domain.FilterCriteria{
		Basin:    req.Basin,
		FromYear: req.FromYear,
		ToYear:   req.ToYear,
	})
	if len(subset) == 0 {
		h.observeQuery(infrastructure.QueryKindStatistics, "empty", start)
		render.JSON(w, r, v1.StatisticsResponse{
			Success: true,
			Empty:   true,
			Message: emptySelectionMessage,
		})
		return
	}

	result, err := dataprocessing.Aggregate(subset, entry.Dataset.Parameters, domain.AggregationRequest{
		Parameter:  req.Parameter,
		Statistics: req.Statistics,
	})
	if err != nil {
		h.observeQuery(infrastructure.QueryKindStatistics, "error", start)
		h.logger.WarnContext(ctx, "statistics query failed",
			slog.String("dataset_id", entry.ID),
			slog.String("parameter", req.Parameter),
			slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}

	h.observeQuery(infrastructure.QueryKindStatistics, "ok", start)
	render.JSON(w, r, v1.StatisticsResponse{
		Success: true,
		Result:  result,
	})
}

// Correlation filters the dataset and returns the pairwise correlation
// matrix over all numeric parameters.
func (h *DataHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	entry, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		h.renderError(w, r, apierrors.ErrDatasetNotFound)
		return
	}

	var req v1.CorrelationRequest
	if apiErr := h.decodeAndValidate(r, &req); apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	subset := dataprocessing.Filter(entry.Dataset, domain.FilterCriteria{
		Basin:    req.Basin,
		FromYear: req.FromYear,
		ToYear:   req.ToYear,
	})
	if len(subset) == 0 {
		h.observeQuery(infrastructure.QueryKindCorrelation, "empty", start)
		render.JSON(w, r, v1.CorrelationResponse{
			Success: true,
			Empty:   true,
			Message: emptySelectionMessage,
		})
		return
	}

	matrix, err := correlation.Matrix(subset, entry.Dataset.Parameters, req.Method)
	if err != nil {
		h.observeQuery(infrastructure.QueryKindCorrelation, "error", start)
		h.logger.WarnContext(ctx, "correlation query failed",
			slog.String("dataset_id", entry.ID),
			slog.String("method", req.Method),
			slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}

	h.observeQuery(infrastructure.QueryKindCorrelation, "ok", start)
	render.JSON(w, r, v1.NewCorrelationResponse(matrix))
}

// decodeAndValidate parses the JSON body into req and runs contract
// validation, translating failures into the API error shape.
func (h *DataHandler) decodeAndValidate(r *http.Request, req interface{}) *apierrors.APIError {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				})
			}
			return apierrors.NewValidationErrors(fields)
		}
		return apierrors.InvalidRequestWithError(err)
	}

	return nil
}

// renderError writes a structured error response.
func (h *DataHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		apierrors.WriteError(w, apiErr)
	}
}

// observeQuery records query metrics by kind and outcome.
func (h *DataHandler) observeQuery(kind, status string, start time.Time) {
	infrastructure.QueriesTotal.WithLabelValues(kind, status).Inc()
	infrastructure.QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
