package detector

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelVersion identifies the default rule set.
const ModelVersion = "1.0.0"

// MaxBatchSize is the hard cap on reviews per batch.
const MaxBatchSize = 100

const weightTolerance = 1e-9

// Signal names, shared by the scorers, the sub-weight tables and the rules file.
const (
	SignalEmptyText          = "empty_text"
	SignalLengthAnomaly      = "length_anomaly"
	SignalRepetitionRatio    = "repetition_ratio"
	SignalRepetitive         = "repetitive"
	SignalExcessiveCaps      = "excessive_caps"
	SignalPunctuationExcess  = "punctuation_excess"
	SignalExclamationDensity = "exclamation_density"
	SignalFragmented         = "fragmented"

	SignalIntensity        = "intensity"
	SignalExtremeSentiment = "extreme_sentiment"
	SignalRatingMismatch   = "rating_mismatch"
	SignalExtremeRating    = "extreme_rating"

	SignalNewAccount    = "new_account"
	SignalLowHistory    = "low_history"
	SignalHighFrequency = "high_frequency"

	SignalMatchDensity           = "match_density"
	SignalHasPatterns            = "has_patterns"
	SignalPatternCluster         = "pattern_cluster"
	SignalExcessivePositiveWords = "excessive_positive_words"
)

var knownSignals = map[Category][]string{
	CategoryTextQuality: {
		SignalEmptyText, SignalLengthAnomaly, SignalRepetitionRatio, SignalRepetitive,
		SignalExcessiveCaps, SignalPunctuationExcess, SignalExclamationDensity, SignalFragmented,
	},
	CategorySentiment: {
		SignalIntensity, SignalExtremeSentiment, SignalRatingMismatch, SignalExtremeRating,
	},
	CategoryReviewerBehavior: {
		SignalNewAccount, SignalLowHistory, SignalHighFrequency,
	},
	CategoryPatternMatching: {
		SignalMatchDensity, SignalHasPatterns, SignalPatternCluster, SignalExcessivePositiveWords,
	},
}

// Thresholds holds every tunable cut-off used by the feature extractor.
type Thresholds struct {
	MinTextLength       int     `yaml:"min_text_length" json:"min_text_length"`
	LongTextLength      int     `yaml:"long_text_length" json:"long_text_length"`
	RepetitionRatio     float64 `yaml:"repetition_ratio" json:"repetition_ratio"`
	RepetitionMinTokens int     `yaml:"repetition_min_tokens" json:"repetition_min_tokens"`
	CharRunLength       int     `yaml:"char_run_length" json:"char_run_length"`
	CapsRatio           float64 `yaml:"caps_ratio" json:"caps_ratio"`
	PunctuationRun      int     `yaml:"punctuation_run" json:"punctuation_run"`
	MaxExclamations     int     `yaml:"max_exclamations" json:"max_exclamations"`
	MinSentenceWords    float64 `yaml:"min_sentence_words" json:"min_sentence_words"`
	ExtremeSentiment    float64 `yaml:"extreme_sentiment" json:"extreme_sentiment"`
	PolarityThreshold   float64 `yaml:"polarity_threshold" json:"polarity_threshold"`
	NegationWindow      int     `yaml:"negation_window" json:"negation_window"`
	NewAccountDays      int     `yaml:"new_account_days" json:"new_account_days"`
	LowHistoryReviews   int     `yaml:"low_history_reviews" json:"low_history_reviews"`
	HighFrequencyPerDay float64 `yaml:"high_frequency_per_day" json:"high_frequency_per_day"`
	PatternCluster      int     `yaml:"pattern_cluster" json:"pattern_cluster"`
	PositiveWordLimit   int     `yaml:"positive_word_limit" json:"positive_word_limit"`
}

// PatternConfig is one named fake-review phrase expression.
type PatternConfig struct {
	Name string `yaml:"name" json:"name"`
	Expr string `yaml:"expr" json:"expr"`
}

// RulesConfig is the serialisable form of the rule set. It is decoded from YAML
// and turned into an immutable Rules value with NewRules.
type RulesConfig struct {
	Version       string                          `yaml:"version"`
	Weights       map[Category]float64            `yaml:"weights"`
	Tiers         TierBoundaries                  `yaml:"tiers"`
	Thresholds    Thresholds                      `yaml:"thresholds"`
	SubWeights    map[Category]map[string]float64 `yaml:"sub_weights"`
	Patterns      []PatternConfig                 `yaml:"patterns"`
	PositiveWords []string                        `yaml:"positive_words"`
	Lexicon       map[string]float64              `yaml:"lexicon"`
	StripMarkup   bool                            `yaml:"strip_markup"`
	MaxTextLength int                             `yaml:"max_text_length"`
}

// DefaultRulesConfig returns the built-in rule set. Every call returns fresh maps.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		Version: ModelVersion,
		Weights: map[Category]float64{
			CategoryTextQuality:      0.25,
			CategorySentiment:        0.20,
			CategoryReviewerBehavior: 0.25,
			CategoryPatternMatching:  0.30,
		},
		Tiers: TierBoundaries{AuthenticMax: 30, SuspiciousMax: 60},
		Thresholds: Thresholds{
			MinTextLength:       10,
			LongTextLength:      2000,
			RepetitionRatio:     0.40,
			RepetitionMinTokens: 4,
			CharRunLength:       4,
			CapsRatio:           0.30,
			PunctuationRun:      3,
			MaxExclamations:     3,
			MinSentenceWords:    3,
			ExtremeSentiment:    0.8,
			PolarityThreshold:   0.05,
			NegationWindow:      3,
			NewAccountDays:      7,
			LowHistoryReviews:   3,
			HighFrequencyPerDay: 2,
			PatternCluster:      3,
			PositiveWordLimit:   3,
		},
		SubWeights: map[Category]map[string]float64{
			CategoryTextQuality: {
				SignalEmptyText:          100,
				SignalLengthAnomaly:      20,
				SignalRepetitionRatio:    20,
				SignalRepetitive:         15,
				SignalExcessiveCaps:      15,
				SignalPunctuationExcess:  20,
				SignalExclamationDensity: 20,
				SignalFragmented:         15,
			},
			CategorySentiment: {
				SignalIntensity:        40,
				SignalExtremeSentiment: 40,
				SignalRatingMismatch:   50,
				SignalExtremeRating:    30,
			},
			CategoryReviewerBehavior: {
				SignalNewAccount:    35,
				SignalLowHistory:    25,
				SignalHighFrequency: 40,
			},
			CategoryPatternMatching: {
				SignalMatchDensity:           100,
				SignalHasPatterns:            20,
				SignalPatternCluster:         30,
				SignalExcessivePositiveWords: 10,
			},
		},
		Patterns: []PatternConfig{
			{Name: "superlative", Expr: `\b(amazing|incredible|outstanding|perfect|excellent|awesome|fantastic|flawless|phenomenal|superb|unbelievable|best|greatest)\b`},
			{Name: "hype_phrase", Expr: `\b(must buy|must have|best purchase|best product|highly recommend(?:ed)?|love it so much|life[- ]changing|game changer|worth every penny|you won'?t regret|don'?t hesitate)\b`},
			{Name: "star_spam", Expr: `\bfive stars?\b|\b5 stars?\b|\b10/10\b|⭐`},
			{Name: "shipping_template", Expr: `\b(fast shipping|quick delivery|arrived quickly)\b.*\b(great quality|excellent product|good quality)\b`},
			{Name: "best_ever", Expr: `\bbest\b[^.!?]*\bever\b`},
			{Name: "urgency", Expr: `\b(buy now|order now|buy it now|don'?t miss|limited time)\b`},
		},
		PositiveWords: []string{"great", "good", "nice", "awesome", "amazing"},
		StripMarkup:   true,
		MaxTextLength: 5000,
	}
}

type compiledPattern struct {
	name string
	re   *regexp.Regexp
}

// Rules is the validated, immutable rule set shared read-only by every analysis.
type Rules struct {
	version       string
	weights       map[Category]float64
	tiers         TierBoundaries
	thresholds    Thresholds
	subWeights    map[Category]map[string]float64
	patterns      []compiledPattern
	positiveWords map[string]struct{}
	lexicon       map[string]float64
	stripMarkup   bool
	maxTextLength int
}

// DefaultRules returns the built-in rule set.
func DefaultRules() *Rules {
	r, err := NewRules(DefaultRulesConfig())
	if err != nil {
		panic(fmt.Sprintf("detector: invalid default rules: %v", err))
	}
	return r
}

// NewRules validates cfg and freezes it into a Rules value.
func NewRules(cfg RulesConfig) (*Rules, error) {
	if err := validateWeights(cfg.Weights); err != nil {
		return nil, err
	}
	if cfg.Tiers.AuthenticMax < 0 || cfg.Tiers.SuspiciousMax < cfg.Tiers.AuthenticMax || cfg.Tiers.SuspiciousMax > 100 {
		return nil, fmt.Errorf("rules: tier boundaries must satisfy 0 <= authentic_max <= suspicious_max <= 100, got %v/%v",
			cfg.Tiers.AuthenticMax, cfg.Tiers.SuspiciousMax)
	}
	if err := validateThresholds(cfg.Thresholds); err != nil {
		return nil, err
	}
	if cfg.MaxTextLength <= 0 {
		return nil, errors.New("rules: max_text_length must be positive")
	}

	r := &Rules{
		version:       cfg.Version,
		weights:       make(map[Category]float64, len(cfg.Weights)),
		tiers:         cfg.Tiers,
		thresholds:    cfg.Thresholds,
		subWeights:    make(map[Category]map[string]float64, len(knownSignals)),
		positiveWords: make(map[string]struct{}, len(cfg.PositiveWords)),
		lexicon:       make(map[string]float64, len(defaultLexicon)+len(cfg.Lexicon)),
		stripMarkup:   cfg.StripMarkup,
		maxTextLength: cfg.MaxTextLength,
	}
	if r.version == "" {
		r.version = ModelVersion
	}
	for c, w := range cfg.Weights {
		r.weights[c] = w
	}

	for c, names := range knownSignals {
		table := make(map[string]float64, len(names))
		for _, name := range names {
			table[name] = 0
		}
		for name, w := range cfg.SubWeights[c] {
			if _, ok := table[name]; !ok {
				return nil, fmt.Errorf("rules: unknown %s signal %q", c, name)
			}
			if w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("rules: %s.%s weight must be non-negative", c, name)
			}
			table[name] = w
		}
		r.subWeights[c] = table
	}
	for c := range cfg.SubWeights {
		if _, ok := knownSignals[c]; !ok {
			return nil, fmt.Errorf("rules: unknown category %q in sub_weights", c)
		}
	}

	for _, p := range cfg.Patterns {
		if strings.TrimSpace(p.Expr) == "" {
			return nil, fmt.Errorf("rules: pattern %q has no expression", p.Name)
		}
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("rules: compile pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, compiledPattern{name: p.Name, re: re})
	}

	for _, w := range cfg.PositiveWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			r.positiveWords[w] = struct{}{}
		}
	}

	for word, v := range defaultLexicon {
		r.lexicon[word] = v
	}
	for word, v := range cfg.Lexicon {
		r.lexicon[strings.ToLower(word)] = v
	}

	return r, nil
}

func validateWeights(weights map[Category]float64) error {
	var sum float64
	for _, c := range Categories {
		w, ok := weights[c]
		if !ok {
			return fmt.Errorf("rules: missing weight for %s", c)
		}
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("rules: weight for %s must be non-negative", c)
		}
		sum += w
	}
	if len(weights) != len(Categories) {
		return fmt.Errorf("rules: expected %d category weights, got %d", len(Categories), len(weights))
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("rules: category weights must sum to 1.0, got %v", sum)
	}
	return nil
}

func validateThresholds(t Thresholds) error {
	switch {
	case t.MinTextLength < 0 || t.LongTextLength <= t.MinTextLength:
		return errors.New("rules: text length thresholds must satisfy 0 <= min < long")
	case t.RepetitionRatio < 0 || t.RepetitionRatio > 1:
		return errors.New("rules: repetition_ratio must be within [0,1]")
	case t.CapsRatio < 0 || t.CapsRatio > 1:
		return errors.New("rules: caps_ratio must be within [0,1]")
	case t.ExtremeSentiment < 0 || t.ExtremeSentiment > 1:
		return errors.New("rules: extreme_sentiment must be within [0,1]")
	case t.PolarityThreshold < 0 || t.PolarityThreshold > 1:
		return errors.New("rules: polarity_threshold must be within [0,1]")
	case t.PunctuationRun < 2:
		return errors.New("rules: punctuation_run must be at least 2")
	case t.CharRunLength < 2:
		return errors.New("rules: char_run_length must be at least 2")
	case t.NegationWindow < 0:
		return errors.New("rules: negation_window must be non-negative")
	case t.HighFrequencyPerDay <= 0:
		return errors.New("rules: high_frequency_per_day must be positive")
	}
	return nil
}

// ParseRules decodes a YAML rule document over the defaults.
func ParseRules(data []byte) (*Rules, error) {
	defaults := DefaultRulesConfig()
	cfg := DefaultRulesConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("rules: decode yaml: %w", err)
	}
	// the decoder replaces nested tables wholesale, so fold them back over the defaults
	for c, table := range cfg.SubWeights {
		merged := make(map[string]float64, len(defaults.SubWeights[c])+len(table))
		for name, w := range defaults.SubWeights[c] {
			merged[name] = w
		}
		for name, w := range table {
			merged[name] = w
		}
		cfg.SubWeights[c] = merged
	}
	return NewRules(cfg)
}

// LoadRules reads a YAML rule file. An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %s: %w", path, err)
	}
	r, err := ParseRules(raw)
	if err != nil {
		return nil, fmt.Errorf("load rules file %s: %w", path, err)
	}
	return r, nil
}

// Version returns the model version of the rule set.
func (r *Rules) Version() string { return r.version }

// Weight returns the aggregate weight of a category.
func (r *Rules) Weight(c Category) float64 { return r.weights[c] }

// Weights returns a copy of the category weight table.
func (r *Rules) Weights() map[Category]float64 {
	out := make(map[Category]float64, len(r.weights))
	for c, w := range r.weights {
		out[c] = w
	}
	return out
}

// Tiers returns the classification boundaries.
func (r *Rules) Tiers() TierBoundaries { return r.tiers }

// Thresholds returns a copy of the extractor thresholds.
func (r *Rules) Thresholds() Thresholds { return r.thresholds }

// SubWeight returns the points a signal is worth at full value.
func (r *Rules) SubWeight(c Category, signal string) float64 { return r.subWeights[c][signal] }

// PatternNames lists the configured pattern names in evaluation order.
func (r *Rules) PatternNames() []string {
	names := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		names = append(names, p.name)
	}
	return names
}

// MaxTextLength is the longest review text accepted by validation.
func (r *Rules) MaxTextLength() int { return r.maxTextLength }

const (
	// jsonRuneBytes is the widest JSON encoding of one rune: an escaped
	// surrogate pair.
	jsonRuneBytes = 12
	// reviewFieldBytes covers ids, metadata and punctuation around the text.
	reviewFieldBytes = 4 << 10
)

// MaxBatchBytes is the encoded size of a full batch of the longest valid
// reviews. A request body limit below it can reject a batch the engine
// would accept.
func (r *Rules) MaxBatchBytes() int64 {
	return MaxBatchSize * (int64(r.maxTextLength)*jsonRuneBytes + reviewFieldBytes)
}

// Info returns the static model metadata.
func (r *Rules) Info() ModelInfo {
	features := make([]Category, len(Categories))
	copy(features, Categories)
	return ModelInfo{
		ModelVersion: r.version,
		FeaturesUsed: features,
		Weights:      r.Weights(),
		Tiers:        r.tiers,
		MaxBatchSize: MaxBatchSize,
		PatternCount: len(r.patterns),
	}
}

func (r *Rules) isPositiveWord(token string) bool {
	_, ok := r.positiveWords[token]
	return ok
}
