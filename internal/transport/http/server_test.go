package transporthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"reviewguard/internal/batch"
	"reviewguard/internal/config"
	"reviewguard/internal/detector"
)

const (
	hypeReview   = `{"text": "Amazing product! Best purchase ever! Perfect! Must buy!", "rating": 5}`
	honestReview = `{"text": "Good product, works as described, minor wear after a month.", "rating": 4}`
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	det := detector.New(nil)
	logger := zaptest.NewLogger(t)
	runner := batch.NewRunner(det, 4, logger)
	return NewServer(det, runner, config.Default(), logger).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestAnalyzeSingle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/analyze/single", hypeReview)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	var res detector.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.IsFake)
	assert.Equal(t, detector.LabelFake, res.Label)
	assert.Greater(t, res.ConfidenceScore, 60.0)
	assert.Nil(t, res.Categories)
	assert.NotEmpty(t, res.Explanation)
}

func TestAnalyzeSingleWithDetails(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/analyze/single?details=true", honestReview)
	require.Equal(t, http.StatusOK, rec.Code)

	var res detector.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, detector.LabelAuthentic, res.Label)
	require.Len(t, res.Categories, 4)
	assert.NotEmpty(t, res.Categories[0].Contributions)
}

func TestAnalyzeSingleErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"rating out of range", `{"text": "Fine kettle.", "rating": 7}`, http.StatusBadRequest, codeValidation},
		{"empty text", `{"text": " ", "rating": 3}`, http.StatusBadRequest, codeValidation},
		{"missing rating", `{"text": "Fine kettle."}`, http.StatusBadRequest, codeValidation},
		{"broken json", `{"text": `, http.StatusBadRequest, codeInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/analyze/single", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), body.RequestID)
		})
	}
}

func TestAnalyzeSingleIgnoresUnknownFields(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/analyze/single",
		`{"text": "Good product, works as described, minor wear after a month.", "rating": 4, "stars": 4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res detector.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, detector.LabelAuthentic, res.Label)
}

func TestAnalyzeSingleBodyLimit(t *testing.T) {
	det := detector.New(nil)
	cfg := config.Default()
	cfg.MaxBodyBytes = 64
	h := NewServer(det, batch.NewRunner(det, 1, nil), cfg, nil).Routes()

	rec := do(t, h, http.MethodPost, "/api/v1/analyze/single", hypeReview+strings.Repeat(" ", 100))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, codePayloadTooLarge, decodeError(t, rec).Code)
}

func TestAnalyzeBatch(t *testing.T) {
	h := newTestServer(t)

	body := fmt.Sprintf(`{"reviews": [%s, {"text": "x", "rating": "five"}, %s]}`, hypeReview, honestReview)
	rec := do(t, h, http.MethodPost, "/api/v1/analyze/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res batch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Items, 3)
	require.NotNil(t, res.Items[0].Result)
	assert.Equal(t, detector.LabelFake, res.Items[0].Result.Label)
	assert.Nil(t, res.Items[0].Result.Categories)
	require.NotNil(t, res.Items[1].Error)
	assert.Equal(t, batch.CodeDecode, res.Items[1].Error.Code)
	require.NotNil(t, res.Items[2].Result)
	assert.Equal(t, detector.LabelAuthentic, res.Items[2].Result.Label)

	assert.Equal(t, 3, res.Summary.TotalReviews)
	assert.Equal(t, 2, res.Summary.Analyzed)
	assert.Equal(t, 1, res.Summary.FakeReviewsDetected)
	assert.Equal(t, 50.0, res.Summary.FakePercentage)
}

func TestAnalyzeBatchTooLarge(t *testing.T) {
	h := newTestServer(t)

	reviews := make([]string, detector.MaxBatchSize+1)
	for i := range reviews {
		reviews[i] = honestReview
	}
	rec := do(t, h, http.MethodPost, "/api/v1/analyze/batch", `{"reviews": [`+strings.Join(reviews, ",")+`]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, codeBatchTooLarge, decodeError(t, rec).Code)
}

func TestAnalyzeBatchAcceptsFullBatchOfLongestReviews(t *testing.T) {
	det := detector.New(nil)
	cfg := config.Default()
	cfg.MaxBodyBytes = 64
	h := NewServer(det, batch.NewRunner(det, 4, nil), cfg, nil).Routes()

	review := fmt.Sprintf(`{"text": %q, "rating": 3}`, strings.Repeat("好", det.Rules().MaxTextLength()))
	reviews := make([]string, detector.MaxBatchSize)
	for i := range reviews {
		reviews[i] = review
	}
	body := `{"reviews": [` + strings.Join(reviews, ",") + `]}`
	require.Greater(t, len(body), 1<<20)

	rec := do(t, h, http.MethodPost, "/api/v1/analyze/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String()[:min(rec.Body.Len(), 200)])

	var res batch.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, detector.MaxBatchSize, res.Summary.Analyzed)
	assert.Zero(t, res.Summary.Failed)

	rec = do(t, h, http.MethodPost, "/api/v1/analyze/single", honestReview)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeBatchRejectsBadEnvelope(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/analyze/batch", `{"reviews": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, decodeError(t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/v1/analyze/batch", `{"items": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidJSON, decodeError(t, rec).Code)
}

func TestAnalyzeQuick(t *testing.T) {
	h := newTestServer(t)

	q := url.Values{}
	q.Set("text", "Amazing product! Best purchase ever! Perfect! Must buy!")
	q.Set("rating", "5")
	rec := do(t, h, http.MethodPost, "/api/v1/analyze/quick?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res quickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.IsFake)
	assert.Equal(t, detector.LabelFake, res.Label)
	assert.Len(t, res.TopFlags, 3)
	assert.NotEmpty(t, res.Summary)

	rec = do(t, h, http.MethodPost, "/api/v1/analyze/quick?text=fine&rating=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, decodeError(t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/v1/analyze/quick?text=fine&rating=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelInfo(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1/model/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info detector.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "1.0.0", info.ModelVersion)
	assert.Equal(t, 100, info.MaxBatchSize)
	assert.Equal(t, 0.30, info.Weights[detector.CategoryPatternMatching])
	assert.Equal(t, 60.0, info.Tiers.SuspiciousMax)
}

func TestHealthAndIndex(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/healthz", "/api/v1/health"} {
		rec := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "1.0.0", body["model_version"])
	}

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/analyze/batch")
}

func TestSwagger(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/swagger/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/api/v1/analyze/single")

	rec = do(t, h, http.MethodGet, "/swagger", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), swaggerSpecPath)
}

func TestRoutingErrorsAndCORS(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/analyze/single", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodOptions, "/api/v1/analyze/single", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestRecoverMiddleware(t *testing.T) {
	s := NewServer(detector.New(nil), nil, config.Default(), zaptest.NewLogger(t))
	h := requestIDMiddleware(s.loggingMiddleware(s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, codeInternal, decodeError(t, rec).Code)
}
