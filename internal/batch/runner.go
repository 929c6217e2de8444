package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reviewguard/internal/detector"
)

// Per-item error codes.
const (
	CodeValidation = "validation_error"
	CodeDecode     = "decode_error"
	CodeInternal   = "internal_error"
	CodeCanceled   = "canceled"
)

// ErrEmptyBatch rejects a batch without reviews.
var ErrEmptyBatch = fmt.Errorf("%w: batch contains no reviews", detector.ErrValidation)

// Analyzer scores a single review.
type Analyzer interface {
	Analyze(review detector.ReviewInput) (detector.AnalysisResult, error)
}

// ErrorRecord is the failure attached to a single batch slot.
type ErrorRecord struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Item is one slot of a batch result. Exactly one of Result and Error is set.
type Item struct {
	Index  int                      `json:"index" yaml:"index"`
	ID     string                   `json:"id,omitempty" yaml:"id,omitempty"`
	Result *detector.AnalysisResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  *ErrorRecord             `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary aggregates the successful slots of a batch.
type Summary struct {
	TotalReviews          int                    `json:"total_reviews" yaml:"total_reviews"`
	Analyzed              int                    `json:"analyzed" yaml:"analyzed"`
	Failed                int                    `json:"failed" yaml:"failed"`
	FakeReviewsDetected   int                    `json:"fake_reviews_detected" yaml:"fake_reviews_detected"`
	FakePercentage        float64                `json:"fake_percentage" yaml:"fake_percentage"`
	AverageConfidence     float64                `json:"average_confidence" yaml:"average_confidence"`
	Labels                map[detector.Label]int `json:"labels" yaml:"labels"`
	ProcessingTimeSeconds float64                `json:"processing_time_seconds" yaml:"processing_time_seconds"`
}

// Result is the outcome of a batch, in input order.
type Result struct {
	ID      uuid.UUID `json:"batch_id" yaml:"batch_id"`
	Items   []Item    `json:"items" yaml:"items"`
	Summary Summary   `json:"summary" yaml:"summary"`
}

// WithoutDetails returns a copy of the result with per-signal contributions
// dropped from every item.
func (r Result) WithoutDetails() Result {
	items := make([]Item, len(r.Items))
	for i, item := range r.Items {
		if item.Result != nil {
			flat := item.Result.WithoutDetails()
			item.Result = &flat
		}
		items[i] = item
	}
	r.Items = items
	return r
}

// Runner analyses batches on a bounded pool of goroutines.
type Runner struct {
	analyzer Analyzer
	workers  int
	logger   *zap.Logger
}

// NewRunner constructs a Runner. Non-positive workers run items one at a time.
func NewRunner(analyzer Analyzer, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{analyzer: analyzer, workers: workers, logger: logger}
}

// Run analyses decoded reviews.
func (r *Runner) Run(ctx context.Context, reviews []detector.ReviewInput) (Result, error) {
	if err := checkSize(len(reviews)); err != nil {
		return Result{}, err
	}
	return r.run(ctx, len(reviews), func(i int) (detector.ReviewInput, error) {
		return reviews[i], nil
	}), nil
}

// RunRaw analyses raw JSON reviews. Each item is decoded inside its own slot,
// so a malformed item fails only that slot.
func (r *Runner) RunRaw(ctx context.Context, raws []json.RawMessage) (Result, error) {
	if err := checkSize(len(raws)); err != nil {
		return Result{}, err
	}
	return r.run(ctx, len(raws), func(i int) (detector.ReviewInput, error) {
		return detector.DecodeReview(raws[i])
	}), nil
}

func checkSize(n int) error {
	switch {
	case n == 0:
		return ErrEmptyBatch
	case n > detector.MaxBatchSize:
		return fmt.Errorf("%w: got %d", detector.ErrBatchTooLarge, n)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, n int, load func(int) (detector.ReviewInput, error)) Result {
	start := time.Now()
	items := make([]Item, n)

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range items {
		items[i].Index = i
		if err := ctx.Err(); err != nil {
			items[i].Error = canceled(err)
			continue
		}
		g.Go(func() error {
			r.process(ctx, &items[i], load)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		ID:      uuid.New(),
		Items:   items,
		Summary: summarize(items),
	}
	res.Summary.ProcessingTimeSeconds = math.Round(time.Since(start).Seconds()*1000) / 1000

	r.logger.Debug("batch analysed",
		zap.String("batch_id", res.ID.String()),
		zap.Int("total", n),
		zap.Int("failed", res.Summary.Failed),
		zap.Int("workers", r.workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// process fills a single slot. It writes nowhere else.
func (r *Runner) process(ctx context.Context, item *Item, load func(int) (detector.ReviewInput, error)) {
	defer func() {
		if p := recover(); p != nil {
			item.Result = nil
			item.Error = &ErrorRecord{Code: CodeInternal, Message: fmt.Sprintf("analysis panicked: %v", p)}
		}
	}()

	if err := ctx.Err(); err != nil {
		item.Error = canceled(err)
		return
	}
	review, err := load(item.Index)
	if err != nil {
		item.Error = &ErrorRecord{Code: CodeDecode, Message: err.Error()}
		return
	}
	item.ID = review.ID

	result, err := r.analyzer.Analyze(review)
	if err != nil {
		code := CodeInternal
		if errors.Is(err, detector.ErrValidation) {
			code = CodeValidation
		}
		item.Error = &ErrorRecord{Code: code, Message: err.Error()}
		return
	}
	item.Result = &result
}

func canceled(err error) *ErrorRecord {
	return &ErrorRecord{Code: CodeCanceled, Message: err.Error()}
}

func summarize(items []Item) Summary {
	s := Summary{
		TotalReviews: len(items),
		Labels: map[detector.Label]int{
			detector.LabelAuthentic:  0,
			detector.LabelSuspicious: 0,
			detector.LabelFake:       0,
		},
	}
	var confidence float64
	for _, item := range items {
		if item.Result == nil {
			s.Failed++
			continue
		}
		s.Analyzed++
		s.Labels[item.Result.Label]++
		confidence += item.Result.ConfidenceScore
		if item.Result.IsFake {
			s.FakeReviewsDetected++
		}
	}
	if s.Analyzed > 0 {
		s.FakePercentage = roundTo(float64(s.FakeReviewsDetected)/float64(s.Analyzed)*100, 2)
		s.AverageConfidence = roundTo(confidence/float64(s.Analyzed), 2)
	}
	return s
}

func roundTo(v float64, prec int) float64 {
	p := math.Pow10(prec)
	return math.Round(v*p) / p
}
