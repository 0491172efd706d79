package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"facerate-go/internal/repository"
	"facerate-go/internal/views"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

// SummarySource aggregates stored trials for the admin chart.
type SummarySource interface {
	MeanRatings(ctx context.Context, dimension string) ([]repository.RatingSummary, error)
}

type AdminHandler struct {
	log     *zap.Logger
	summary SummarySource
	// Question prompts label the chart series; missing ones fall back to Q1..Q4.
	labels []string
}

func NewAdminHandler(log *zap.Logger, summary SummarySource, labels []string) *AdminHandler {
	return &AdminHandler{log: log, summary: summary, labels: labels}
}

// AdminRequired checks the bearer token against the configured admin token.
// With no token configured the admin surface does not exist.
func AdminRequired(token func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		want := token()
		if want == "" {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// Summary shows the mean of each question per group. ?by= picks the grouping
// and ?format=json returns the raw rows.
func (h *AdminHandler) Summary(c *gin.Context) {
	dimension := c.DefaultQuery("by", "height")
	if _, ok := repository.SummaryDimensions[dimension]; !ok {
		c.String(http.StatusBadRequest, "Unknown grouping %q", dimension)
		return
	}

	rows, err := h.summary.MeanRatings(c.Request.Context(), dimension)
	if err != nil {
		h.log.Error("Failed to load rating summary", zap.String("dimension", dimension), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load summary")
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{"by": dimension, "groups": rows})
		return
	}

	chart := h.summaryChart(dimension, rows)
	chart.Validate()
	optionsJSON, err := json.Marshal(chart.JSON())
	if err != nil {
		h.log.Error("Failed to encode chart options", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to render summary")
		return
	}

	dimensions := make([]string, 0, len(repository.SummaryDimensions))
	for d := range repository.SummaryDimensions {
		dimensions = append(dimensions, d)
	}
	sort.Strings(dimensions)

	csrfToken := c.GetString("csrf_token")
	cspNonce := c.GetString("csp_nonce")
	component := views.SummaryChart(string(optionsJSON), dimensions, cspNonce)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err = views.Layout("Rating summary", csrfToken, cspNonce).Render(templ.WithChildren(c.Request.Context(), component), c.Writer)
	if err != nil {
		h.log.Error("Error rendering summary", zap.Error(err))
	}
}

func (h *AdminHandler) summaryChart(dimension string, rows []repository.RatingSummary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Mean rating",
			Subtitle: "grouped by " + dimension,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Min:  1,
			Max:  7,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	groups := make([]string, len(rows))
	series := make([][]opts.BarData, 4)
	for i, r := range rows {
		groups[i] = r.Group
		for q, mean := range []float64{r.MeanQ1, r.MeanQ2, r.MeanQ3, r.MeanQ4} {
			series[q] = append(series[q], opts.BarData{Value: mean})
		}
	}

	bar.SetXAxis(groups)
	for q, items := range series {
		bar.AddSeries(h.seriesLabel(q), items)
	}
	return bar
}

func (h *AdminHandler) seriesLabel(q int) string {
	if q < len(h.labels) && h.labels[q] != "" {
		return h.labels[q]
	}
	return "Q" + strconv.Itoa(q+1)
}
