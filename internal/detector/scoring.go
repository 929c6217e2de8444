package detector

import (
	"fmt"
	"math"
	"strings"
)

// reading is one signal value handed to a scorer table.
type reading struct {
	signal  string
	value   float64
	notable bool
	reason  string
}

// scoreCategory is the weighted sum shared by every scorer: each reading is
// worth its sub-weight times its value, and the total is clamped to 0-100.
func scoreCategory(rules *Rules, c Category, readings []reading) CategoryScore {
	cs := CategoryScore{
		Category:      c,
		Contributions: make([]Contribution, 0, len(readings)),
	}
	var total float64
	for _, rd := range readings {
		weight := rules.SubWeight(c, rd.signal)
		value := clamp(rd.value, 0, 1)
		points := weight * value
		total += points

		contrib := Contribution{
			Signal: rd.signal,
			Value:  roundTo(value, 4),
			Weight: weight,
			Points: roundTo(points, 2),
		}
		if rd.notable && weight > 0 {
			contrib.Notable = true
			contrib.Reason = rd.reason
		}
		cs.Contributions = append(cs.Contributions, contrib)
	}
	cs.Score = roundTo(clamp(total, 0, 100), 2)
	return cs
}

// ScoreTextQuality reduces text-quality signals to a 0-100 sub-score.
func ScoreTextQuality(rules *Rules, s TextQualitySignals) CategoryScore {
	live := !s.Empty
	lengthReason := fmt.Sprintf("review text is very short (%d characters)", s.Length)
	if s.TooLong {
		lengthReason = fmt.Sprintf("review text is unusually long (%d characters)", s.Length)
	}
	return scoreCategory(rules, CategoryTextQuality, []reading{
		{SignalEmptyText, boolValue(s.Empty), s.Empty, "review text is empty"},
		{SignalLengthAnomaly, boolValue(s.LengthAnomaly && live), s.LengthAnomaly && live, lengthReason},
		{SignalRepetitionRatio, s.RepetitionRatio, false, ""},
		{SignalRepetitive, boolValue(s.Repetitive), s.Repetitive && live,
			fmt.Sprintf("text is highly repetitive (%.0f%% repeated words)", s.RepetitionRatio*100)},
		{SignalExcessiveCaps, boolValue(s.ExcessiveCaps), s.ExcessiveCaps,
			fmt.Sprintf("%.0f%% of words are written in capitals", s.CapsRatio*100)},
		{SignalPunctuationExcess, boolValue(s.PunctuationExcess), s.PunctuationExcess,
			"excessive exclamation or question marks"},
		{SignalExclamationDensity, s.ExclamationDensity, false, ""},
		{SignalFragmented, boolValue(s.Fragmented), s.Fragmented && live,
			fmt.Sprintf("sentences are unusually short (%.1f words on average)", s.AvgSentenceWords)},
	})
}

// ScoreSentiment reduces sentiment signals to a 0-100 sub-score.
func ScoreSentiment(rules *Rules, s SentimentSignals) CategoryScore {
	tone := "positive"
	if s.Sentiment < 0 {
		tone = "negative"
	}
	return scoreCategory(rules, CategorySentiment, []reading{
		{SignalIntensity, s.Intensity, false, ""},
		{SignalExtremeSentiment, boolValue(s.ExtremeSentiment), s.ExtremeSentiment,
			fmt.Sprintf("extremely %s language (sentiment %.2f)", tone, s.Sentiment)},
		{SignalRatingMismatch, boolValue(s.RatingMismatch), s.RatingMismatch,
			fmt.Sprintf("%s sentiment contradicts the %d-star rating", tone, s.Rating)},
		{SignalExtremeRating, boolValue(s.ExtremeRating), false, ""},
	})
}

// ScoreReviewerBehavior reduces reviewer metadata signals to a 0-100
// sub-score. Unknown flags contribute nothing.
func ScoreReviewerBehavior(rules *Rules, s BehaviorSignals) CategoryScore {
	var age, total int
	if s.AccountAgeDays != nil {
		age = *s.AccountAgeDays
	}
	if s.TotalReviews != nil {
		total = *s.TotalReviews
	}
	return scoreCategory(rules, CategoryReviewerBehavior, []reading{
		{SignalNewAccount, flagValue(s.NewAccount), s.NewAccount == FlagRaised,
			fmt.Sprintf("reviewer account is only %d days old", age)},
		{SignalLowHistory, flagValue(s.LowHistory), s.LowHistory == FlagRaised,
			fmt.Sprintf("reviewer has posted only %d reviews", total)},
		{SignalHighFrequency, flagValue(s.HighFrequency), s.HighFrequency == FlagRaised,
			fmt.Sprintf("reviewer posts %.1f reviews per day", s.ReviewsPerDay)},
	})
}

// ScorePatternMatching reduces pattern signals to a 0-100 sub-score.
func ScorePatternMatching(rules *Rules, s PatternSignals) CategoryScore {
	return scoreCategory(rules, CategoryPatternMatching, []reading{
		{SignalMatchDensity, s.MatchDensity, false, ""},
		{SignalHasPatterns, boolValue(s.HasPatterns), s.HasPatterns,
			fmt.Sprintf("matches %d known fake-review phrases (%s)", s.Matches, strings.Join(s.Matched, ", "))},
		{SignalPatternCluster, boolValue(s.PatternCluster), s.PatternCluster,
			"dense cluster of marketing phrases"},
		{SignalExcessivePositiveWords, boolValue(s.ExcessivePositiveWords), s.ExcessivePositiveWords,
			"overuse of generic praise words"},
	})
}

// ScoreAll runs the four scorers in explanation order.
func ScoreAll(rules *Rules, b SignalBundle) []CategoryScore {
	return []CategoryScore{
		ScoreTextQuality(rules, b.TextQuality),
		ScoreSentiment(rules, b.Sentiment),
		ScoreReviewerBehavior(rules, b.ReviewerBehavior),
		ScorePatternMatching(rules, b.PatternMatching),
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func flagValue(f BehaviorFlag) float64 {
	if f == FlagRaised {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, prec int) float64 {
	p := math.Pow10(prec)
	return math.Round(v*p) / p
}
