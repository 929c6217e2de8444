package detector

import (
	"strings"
	"unicode/utf8"
)

// Detector scores reviews against a fixed rule set. It holds no mutable
// state and is safe for concurrent use.
type Detector struct {
	rules *Rules
}

// New returns a Detector bound to rules. A nil rules value selects the
// built-in defaults.
func New(rules *Rules) *Detector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Detector{rules: rules}
}

// Rules returns the rule set the detector scores with.
func (d *Detector) Rules() *Rules { return d.rules }

// Info returns the static model metadata.
func (d *Detector) Info() ModelInfo { return d.rules.Info() }

// Validate checks the boundary contract of a review.
func (d *Detector) Validate(review ReviewInput) error {
	if strings.TrimSpace(review.Text) == "" {
		return invalid("text", "must not be empty")
	}
	if n := utf8.RuneCountInString(review.Text); n > d.rules.maxTextLength {
		return invalid("text", "length %d exceeds %d characters", n, d.rules.maxTextLength)
	}
	if review.Rating < 1 || review.Rating > 5 {
		return invalid("rating", "must be between 1 and 5, got %d", review.Rating)
	}
	if v := review.ReviewerTotalReviews; v != nil && *v < 0 {
		return invalid("reviewer_total_reviews", "must be non-negative, got %d", *v)
	}
	if v := review.ReviewerAccountAgeDays; v != nil && *v < 0 {
		return invalid("reviewer_account_age_days", "must be non-negative, got %d", *v)
	}
	return nil
}

// Analyze validates and scores a single review.
func (d *Detector) Analyze(review ReviewInput) (AnalysisResult, error) {
	if err := d.Validate(review); err != nil {
		return AnalysisResult{}, err
	}
	return d.Score(review), nil
}

// Score runs extraction, the category scorers and aggregation without
// validating the input.
func (d *Detector) Score(review ReviewInput) AnalysisResult {
	bundle := Extract(d.rules, review)
	return Aggregate(d.rules, ScoreAll(d.rules, bundle))
}

// Extract returns the signal bundle the detector would score.
func (d *Detector) Extract(review ReviewInput) SignalBundle {
	return Extract(d.rules, review)
}
