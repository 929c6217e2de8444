package detector

import "time"

// Category names one of the four weighted signal groupings.
type Category string

const (
	CategoryTextQuality      Category = "text_quality"
	CategorySentiment        Category = "sentiment_analysis"
	CategoryReviewerBehavior Category = "reviewer_behavior"
	CategoryPatternMatching  Category = "pattern_matching"
)

// Categories lists the categories in explanation order.
var Categories = []Category{
	CategoryTextQuality,
	CategorySentiment,
	CategoryReviewerBehavior,
	CategoryPatternMatching,
}

// Label is the three-way classification derived from the confidence score.
type Label string

const (
	LabelAuthentic  Label = "authentic"
	LabelSuspicious Label = "suspicious"
	LabelFake       Label = "fake"
)

// ReviewInput is a single review submitted for analysis.
type ReviewInput struct {
	ID                     string     `json:"id,omitempty" yaml:"id,omitempty"`
	Text                   string     `json:"text" yaml:"text"`
	Rating                 int        `json:"rating" yaml:"rating"`
	ReviewerID             string     `json:"reviewer_id,omitempty" yaml:"reviewer_id,omitempty"`
	ProductID              string     `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	ReviewDate             *time.Time `json:"review_date,omitempty" yaml:"review_date,omitempty"`
	ReviewerTotalReviews   *int       `json:"reviewer_total_reviews,omitempty" yaml:"reviewer_total_reviews,omitempty"`
	ReviewerAccountAgeDays *int       `json:"reviewer_account_age_days,omitempty" yaml:"reviewer_account_age_days,omitempty"`
}

// HasReviewerMetadata reports whether any reviewer behaviour field was supplied.
func (r ReviewInput) HasReviewerMetadata() bool {
	return r.ReviewerTotalReviews != nil || r.ReviewerAccountAgeDays != nil
}

// BehaviorFlag is a tri-state reviewer signal. Unknown is the value used when the
// metadata needed to evaluate the signal was not supplied and never scores.
type BehaviorFlag uint8

const (
	FlagUnknown BehaviorFlag = iota
	FlagClear
	FlagRaised
)

func (f BehaviorFlag) String() string {
	switch f {
	case FlagClear:
		return "clear"
	case FlagRaised:
		return "raised"
	default:
		return "unknown"
	}
}

// MarshalText renders the flag as its name.
func (f BehaviorFlag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func raisedIf(cond bool) BehaviorFlag {
	if cond {
		return FlagRaised
	}
	return FlagClear
}

// TextQualitySignals groups the text-quality measurements of one review.
type TextQualitySignals struct {
	Length             int     `json:"length"`
	WordCount          int     `json:"word_count"`
	SentenceCount      int     `json:"sentence_count"`
	Empty              bool    `json:"empty_text"`
	TooShort           bool    `json:"too_short"`
	TooLong            bool    `json:"too_long"`
	LengthAnomaly      bool    `json:"length_anomaly"`
	RepetitionRatio    float64 `json:"repetition_ratio"`
	Repetitive         bool    `json:"repetitive"`
	CapsRatio          float64 `json:"caps_ratio"`
	ExcessiveCaps      bool    `json:"excessive_caps"`
	PunctuationExcess  bool    `json:"punctuation_excess"`
	ExclamationDensity float64 `json:"exclamation_density"`
	AvgSentenceWords   float64 `json:"avg_sentence_words"`
	Fragmented         bool    `json:"fragmented"`
}

// SentimentSignals groups the polarity measurements of one review.
type SentimentSignals struct {
	Sentiment        float64 `json:"sentiment"`
	Intensity        float64 `json:"intensity"`
	ExtremeSentiment bool    `json:"extreme_sentiment"`
	RatingMismatch   bool    `json:"rating_mismatch"`
	ExtremeRating    bool    `json:"extreme_rating"`
	Rating           int     `json:"rating"`
}

// BehaviorSignals groups reviewer metadata signals.
type BehaviorSignals struct {
	NewAccount     BehaviorFlag `json:"new_account"`
	LowHistory     BehaviorFlag `json:"low_history"`
	HighFrequency  BehaviorFlag `json:"high_frequency"`
	ReviewsPerDay  float64      `json:"reviews_per_day"`
	TotalReviews   *int         `json:"total_reviews,omitempty"`
	AccountAgeDays *int         `json:"account_age_days,omitempty"`
}

// PatternSignals groups the known fake-review phrase matches.
type PatternSignals struct {
	Matches                int      `json:"pattern_matches"`
	MatchDensity           float64  `json:"match_density"`
	HasPatterns            bool     `json:"has_patterns"`
	PatternCluster         bool     `json:"pattern_cluster"`
	ExcessivePositiveWords bool     `json:"excessive_positive_words"`
	Matched                []string `json:"matched,omitempty"`
}

// SignalBundle is the full set of signals extracted from one review. It is built
// fresh for every analysis and never modified afterwards.
type SignalBundle struct {
	TextQuality      TextQualitySignals `json:"text_quality"`
	Sentiment        SentimentSignals   `json:"sentiment"`
	ReviewerBehavior BehaviorSignals    `json:"reviewer_behavior"`
	PatternMatching  PatternSignals     `json:"pattern_matching"`
}

// Contribution is one signal's share of a category score.
type Contribution struct {
	Signal  string  `json:"signal" yaml:"signal"`
	Value   float64 `json:"value" yaml:"value"`
	Weight  float64 `json:"weight" yaml:"weight"`
	Points  float64 `json:"points" yaml:"points"`
	Notable bool    `json:"notable" yaml:"notable"`
	Reason  string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CategoryScore is the 0-100 sub-score of a single category.
type CategoryScore struct {
	Category      Category       `json:"category" yaml:"category"`
	Score         float64        `json:"score" yaml:"score"`
	Contributions []Contribution `json:"contributions" yaml:"contributions"`
}

// Breakdown is the flat per-category view of an analysis.
type Breakdown struct {
	TextQuality       float64 `json:"text_quality" yaml:"text_quality"`
	SentimentAnalysis float64 `json:"sentiment_analysis" yaml:"sentiment_analysis"`
	ReviewerBehavior  float64 `json:"reviewer_behavior" yaml:"reviewer_behavior"`
	PatternMatching   float64 `json:"pattern_matching" yaml:"pattern_matching"`
}

// AnalysisResult is the terminal output of an analysis.
type AnalysisResult struct {
	IsFake            bool            `json:"is_fake" yaml:"is_fake"`
	ConfidenceScore   float64         `json:"confidence_score" yaml:"confidence_score"`
	FakeProbability   float64         `json:"fake_probability" yaml:"fake_probability"`
	Label             Label           `json:"label" yaml:"label"`
	CategoryBreakdown Breakdown       `json:"category_breakdown" yaml:"category_breakdown"`
	Explanation       []string        `json:"explanation" yaml:"explanation"`
	Flags             []string        `json:"flags" yaml:"flags"`
	Categories        []CategoryScore `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Category returns the score of the named category.
func (r AnalysisResult) Category(c Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// WithoutDetails drops per-signal contributions, leaving the flat view.
func (r AnalysisResult) WithoutDetails() AnalysisResult {
	r.Categories = nil
	return r
}

// TierBoundaries are the inclusive upper edges of the lower two tiers.
type TierBoundaries struct {
	AuthenticMax  float64 `json:"authentic_max" yaml:"authentic_max"`
	SuspiciousMax float64 `json:"suspicious_max" yaml:"suspicious_max"`
}

// ModelInfo is static metadata describing the scoring model.
type ModelInfo struct {
	ModelVersion string               `json:"model_version" yaml:"model_version"`
	FeaturesUsed []Category           `json:"features_used" yaml:"features_used"`
	Weights      map[Category]float64 `json:"weights" yaml:"weights"`
	Tiers        TierBoundaries       `json:"tiers" yaml:"tiers"`
	MaxBatchSize int                  `json:"max_batch_size" yaml:"max_batch_size"`
	PatternCount int                  `json:"pattern_count" yaml:"pattern_count"`
}
