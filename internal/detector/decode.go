package detector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

type rawReview struct {
	ID                     string `json:"id"`
	Text                   string `json:"text"`
	Rating                 int    `json:"rating"`
	ReviewerID             string `json:"reviewer_id"`
	ProductID              string `json:"product_id"`
	ReviewDate             string `json:"review_date"`
	ReviewerTotalReviews   *int   `json:"reviewer_total_reviews"`
	ReviewerAccountAgeDays *int   `json:"reviewer_account_age_days"`
}

// DecodeReview decodes one JSON review object. Unknown fields are ignored and
// trailing data is rejected; every failure wraps ErrMalformed.
func DecodeReview(data []byte) (ReviewInput, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	var raw rawReview
	if err := decoder.Decode(&raw); err != nil {
		return ReviewInput{}, fmt.Errorf("%w: decode JSON: %v", ErrMalformed, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return ReviewInput{}, fmt.Errorf("%w: trailing data after review object", ErrMalformed)
	}

	review := ReviewInput{
		ID:                     raw.ID,
		Text:                   raw.Text,
		Rating:                 raw.Rating,
		ReviewerID:             raw.ReviewerID,
		ProductID:              raw.ProductID,
		ReviewerTotalReviews:   raw.ReviewerTotalReviews,
		ReviewerAccountAgeDays: raw.ReviewerAccountAgeDays,
	}
	if date := strings.TrimSpace(raw.ReviewDate); date != "" {
		parsed, err := parseReviewDate(date)
		if err != nil {
			return ReviewInput{}, fmt.Errorf("%w: parse review_date for %q: %v", ErrMalformed, raw.ID, err)
		}
		review.ReviewDate = &parsed
	}
	return review, nil
}

func parseReviewDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}
