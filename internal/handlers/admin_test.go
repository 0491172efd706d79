package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"facerate-go/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSummary struct {
	rows []repository.RatingSummary
	err  error
	got  string
}

func (f *fakeSummary) MeanRatings(_ context.Context, dimension string) ([]repository.RatingSummary, error) {
	f.got = dimension
	return f.rows, f.err
}

func adminEngine(token string, src SummarySource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAdminHandler(zap.NewNop(), src, []string{"Attractive", "Tall"})
	r.GET("/admin/summary", AdminRequired(func() string { return token }), h.Summary)
	return r
}

func get(r *gin.Engine, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRequiresToken(t *testing.T) {
	src := &fakeSummary{}

	assert.Equal(t, http.StatusNotFound, get(adminEngine("", src), "/admin/summary", "anything").Code)

	r := adminEngine("s3cret", src)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin/summary", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin/summary", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin/summary", "s3cret").Code)
}

func TestAdminSummaryJSON(t *testing.T) {
	src := &fakeSummary{rows: []repository.RatingSummary{
		{Group: "Average", Trials: 4, MeanQ1: 3.5, MeanQ2: 4, MeanQ3: 2.25, MeanQ4: 6},
		{Group: "unknown", Trials: 1, MeanQ1: 1, MeanQ2: 1, MeanQ3: 1, MeanQ4: 1},
	}}
	w := get(adminEngine("t", src), "/admin/summary?by=attract&format=json", "t")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attract", src.got)

	var body struct {
		By     string                     `json:"by"`
		Groups []repository.RatingSummary `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "attract", body.By)
	assert.Equal(t, src.rows, body.Groups)
}

func TestAdminSummaryChart(t *testing.T) {
	src := &fakeSummary{rows: []repository.RatingSummary{{Group: "Tall", Trials: 2, MeanQ1: 5}}}
	w := get(adminEngine("t", src), "/admin/summary", "t")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "height", src.got)

	page := w.Body.String()
	assert.Contains(t, page, `id="summary-chart"`)
	assert.Contains(t, page, "echarts.init")
	assert.Contains(t, page, "Attractive")
	assert.Contains(t, page, "Q3")
}

func TestAdminSummaryErrors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, get(adminEngine("t", &fakeSummary{}), "/admin/summary?by=eyes", "t").Code)

	failing := &fakeSummary{err: errors.New("db down")}
	assert.Equal(t, http.StatusInternalServerError, get(adminEngine("t", failing), "/admin/summary", "t").Code)
}
