package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellwq/internal/dataprocessing"
	"wellwq/internal/store"
	v1 "wellwq/pkg/contracts/api/v1"
)

const handlerTestCSV = `Basin,Date,Season,Latitude,Longitude,EC,TDS
Vaigai,2015-03-10,Pre-Monsoon,9.92,78.11,400,800
Vaigai,2015-11-02,Post-Monsoon,9.93,78.12,420,840
Vaigai,2016-03-15,Pre-Monsoon,9.94,78.13,410,820
Vaigai,2016-11-20,Post-Monsoon,9.95,78.14,430,860
Cauvery,2015-05-20,Pre-Monsoon,10.99,78.70,500,1000
`

func newTestRouter(t *testing.T) (*chi.Mux, *store.Store) {
	t.Helper()

	st := store.New(slog.Default())
	normalizer := dataprocessing.NewNormalizer(slog.Default(), dataprocessing.DefaultNormalizerConfig())
	handler := NewDataHandler(st, normalizer, 1<<20, slog.Default())

	r := chi.NewRouter()
	r.Mount("/api/datasets", handler.Routes())
	return r, st
}

func uploadCSV(t *testing.T, router *chi.Mux, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "wq.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, router *chi.Mux, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDataHandler_Upload(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := uploadCSV(t, router, handlerTestCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp v1.DatasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.DatasetID)
	assert.Equal(t, []string{"Vaigai", "Cauvery"}, resp.Summary.Basins)
	assert.Equal(t, []string{"EC", "TDS"}, resp.Summary.Parameters)
	assert.Equal(t, 2015, resp.Summary.FromYear)
	assert.Equal(t, 2016, resp.Summary.ToYear)
	assert.Equal(t, 5, resp.Summary.RecordCount)
}

func TestDataHandler_Upload_IdenticalContentIsMemoized(t *testing.T) {
	router, _ := newTestRouter(t)

	first := uploadCSV(t, router, handlerTestCSV)
	require.Equal(t, http.StatusCreated, first.Code)
	var firstResp v1.DatasetResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))

	second := uploadCSV(t, router, handlerTestCSV)
	require.Equal(t, http.StatusOK, second.Code)
	var secondResp v1.DatasetResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))

	assert.True(t, secondResp.Cached)
	assert.Equal(t, firstResp.DatasetID, secondResp.DatasetID)
}

func TestDataHandler_Upload_MissingFileField(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDataHandler_Upload_MissingBasinColumn(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := uploadCSV(t, router, "Date,Season,EC\n2015-03-10,Pre-Monsoon,400\n")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "SCHEMA")
}

func TestDataHandler_Summary(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := uploadCSV(t, router, handlerTestCSV)
	var uploaded v1.DatasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/"+uploaded.DatasetID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)

	require.Equal(t, http.StatusOK, getRec.Code)
	var resp v1.DatasetResponse
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &resp))
	assert.Equal(t, uploaded.Summary, resp.Summary)
}

func TestDataHandler_Summary_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDataHandler_Statistics(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := uploadCSV(t, router, handlerTestCSV)
	var uploaded v1.DatasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	path := fmt.Sprintf("/api/datasets/%s/statistics", uploaded.DatasetID)

	t.Run("grouped statistics", func(t *testing.T) {
		res := postJSON(t, router, path, v1.StatisticsRequest{
			Basin:      "Vaigai",
			FromYear:   2015,
			ToYear:     2016,
			Parameter:  "EC",
			Statistics: []string{"mean", "count"},
		})
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var resp v1.StatisticsResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
		require.NotNil(t, resp.Result)
		assert.False(t, resp.Empty)
		assert.Len(t, resp.Result.Rows, 4)

		first := resp.Result.Rows[0]
		assert.Equal(t, 2015, first.Year)
		assert.Equal(t, "Pre-Monsoon", first.Season)
		require.NotNil(t, first.Statistics["mean"])
		assert.Equal(t, 400.0, *first.Statistics["mean"])
		require.NotNil(t, first.Statistics["count"])
		assert.Equal(t, 1.0, *first.Statistics["count"])
	})

	t.Run("empty selection is a successful outcome", func(t *testing.T) {
		res := postJSON(t, router, path, v1.StatisticsRequest{
			Basin:      "Vaigai",
			FromYear:   1990,
			ToYear:     1995,
			Parameter:  "EC",
			Statistics: []string{"mean"},
		})
		require.Equal(t, http.StatusOK, res.Code)

		var resp v1.StatisticsResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Empty)
		assert.NotEmpty(t, resp.Message)
		assert.Nil(t, resp.Result)
	})

	t.Run("invalid statistic name fails", func(t *testing.T) {
		res := postJSON(t, router, path, v1.StatisticsRequest{
			Basin:      "Vaigai",
			FromYear:   2015,
			ToYear:     2016,
			Parameter:  "EC",
			Statistics: []string{"avg"},
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "INVALID_STATISTIC")
	})

	t.Run("unknown parameter fails", func(t *testing.T) {
		res := postJSON(t, router, path, v1.StatisticsRequest{
			Basin:      "Vaigai",
			FromYear:   2015,
			ToYear:     2016,
			Parameter:  "Fe",
			Statistics: []string{"mean"},
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "UNKNOWN_PARAMETER")
	})

	t.Run("missing basin fails validation", func(t *testing.T) {
		res := postJSON(t, router, path, v1.StatisticsRequest{
			FromYear:   2015,
			ToYear:     2016,
			Parameter:  "EC",
			Statistics: []string{"mean"},
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "VALIDATION_FAILED")
	})

	t.Run("inverted year range fails validation", func(t *testing.T) {
		res := postJSON(t, router, path, v1.StatisticsRequest{
			Basin:      "Vaigai",
			FromYear:   2016,
			ToYear:     2015,
			Parameter:  "EC",
			Statistics: []string{"mean"},
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestDataHandler_Correlation(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := uploadCSV(t, router, handlerTestCSV)
	var uploaded v1.DatasetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	path := fmt.Sprintf("/api/datasets/%s/correlation", uploaded.DatasetID)

	t.Run("pearson matrix", func(t *testing.T) {
		res := postJSON(t, router, path, v1.CorrelationRequest{
			Basin:    "Vaigai",
			FromYear: 2015,
			ToYear:   2016,
			Method:   "pearson",
		})
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var resp v1.CorrelationResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
		assert.Equal(t, []string{"EC", "TDS"}, resp.Parameters)
		assert.Equal(t, 4, resp.CompleteRows)

		// TDS = 2×EC in the fixture, so the off-diagonal is 1.0.
		require.NotNil(t, resp.Values[0][1])
		assert.InDelta(t, 1.0, *resp.Values[0][1], 1e-9)
		require.NotNil(t, resp.Values[0][0])
		assert.Equal(t, 1.0, *resp.Values[0][0])
	})

	t.Run("unknown method fails", func(t *testing.T) {
		res := postJSON(t, router, path, v1.CorrelationRequest{
			Basin:    "Vaigai",
			FromYear: 2015,
			ToYear:   2016,
			Method:   "kendall",
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Contains(t, res.Body.String(), "UNKNOWN_METHOD")
	})

	t.Run("empty selection reports no data", func(t *testing.T) {
		res := postJSON(t, router, path, v1.CorrelationRequest{
			Basin:    "Palar",
			FromYear: 2015,
			ToYear:   2016,
			Method:   "pearson",
		})
		require.Equal(t, http.StatusOK, res.Code)

		var resp v1.CorrelationResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
		assert.True(t, resp.Empty)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("single matching row is insufficient data", func(t *testing.T) {
		res := postJSON(t, router, path, v1.CorrelationRequest{
			Basin:    "Cauvery",
			FromYear: 2015,
			ToYear:   2015,
			Method:   "pearson",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
		assert.Contains(t, res.Body.String(), "INSUFFICIENT_DATA")
	})
}
