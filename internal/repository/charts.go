// internal/repository/charts.go
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RatingSummary is the mean of each question for one group of trials.
type RatingSummary struct {
	Group  string  `json:"group"`
	Trials int64   `json:"trials"`
	MeanQ1 float64 `json:"mean_q1"`
	MeanQ2 float64 `json:"mean_q2"`
	MeanQ3 float64 `json:"mean_q3"`
	MeanQ4 float64 `json:"mean_q4"`
}

// SummaryDimensions are the columns the summary can be grouped by.
var SummaryDimensions = map[string]string{
	"height":  "height_label",
	"attract": "attract_label",
	"sex":     "sex",
	"block":   "block",
}

// SummaryRepository aggregates the streaming collection for the admin chart.
type SummaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// MeanRatings groups every streamed trial by dimension and averages Q1..Q4.
// Trials whose metadata could not be parsed are grouped under "unknown".
func (r *SummaryRepository) MeanRatings(ctx context.Context, dimension string) ([]RatingSummary, error) {
	column, ok := SummaryDimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown summary dimension %q", dimension)
	}

	query := fmt.Sprintf(`
		SELECT
			COALESCE(%[1]s, 'unknown') AS "group",
			COUNT(*) AS trials,
			AVG(q1) AS mean_q1,
			AVG(q2) AS mean_q2,
			AVG(q3) AS mean_q3,
			AVG(q4) AS mean_q4
		FROM responses_stream
		GROUP BY COALESCE(%[1]s, 'unknown')
		ORDER BY 1;
	`, column)

	var data []RatingSummary
	err := r.db.WithContext(ctx).Raw(query).Scan(&data).Error
	return data, err
}
