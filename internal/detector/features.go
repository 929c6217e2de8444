package detector

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Extract turns a review into its signal bundle. It never fails: empty or
// whitespace-only text yields the maximal low-quality reading.
func Extract(rules *Rules, review ReviewInput) SignalBundle {
	text := sanitizeText(review.Text, rules.stripMarkup)
	words := tokens(text)

	return SignalBundle{
		TextQuality:      rules.textQuality(text, words),
		Sentiment:        rules.sentiment(text, words, review.Rating),
		ReviewerBehavior: rules.behavior(review.ReviewerTotalReviews, review.ReviewerAccountAgeDays),
		PatternMatching:  rules.patternMatches(text, words),
	}
}

func (r *Rules) textQuality(text string, words []string) TextQualitySignals {
	t := r.thresholds
	length := utf8.RuneCountInString(text)
	if length == 0 {
		return TextQualitySignals{
			Empty:           true,
			TooShort:        true,
			LengthAnomaly:   true,
			RepetitionRatio: 1,
			Repetitive:      true,
			Fragmented:      true,
		}
	}

	s := TextQualitySignals{
		Length:    length,
		WordCount: len(words),
		TooShort:  length < t.MinTextLength,
		TooLong:   length > t.LongTextLength,
	}
	s.LengthAnomaly = s.TooShort || s.TooLong

	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		shouted := 0
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
			if isShouted(w) {
				shouted++
			}
		}
		s.RepetitionRatio = 1 - float64(len(unique))/float64(len(words))
		s.CapsRatio = float64(shouted) / float64(len(words))
	}
	s.Repetitive = (len(words) >= t.RepetitionMinTokens && s.RepetitionRatio > t.RepetitionRatio) ||
		longestLetterRun(text) >= t.CharRunLength
	s.ExcessiveCaps = s.CapsRatio > t.CapsRatio

	s.PunctuationExcess = longestPunctuationRun(text) >= t.PunctuationRun ||
		strings.Count(text, "!") > t.MaxExclamations

	sents := sentences(text)
	s.SentenceCount = len(sents)
	if len(sents) > 0 {
		exclaimed := 0
		for _, sent := range sents {
			if sent.exclamatory {
				exclaimed++
			}
		}
		s.ExclamationDensity = float64(exclaimed) / float64(len(sents))
		s.AvgSentenceWords = float64(len(words)) / float64(len(sents))
	}
	s.Fragmented = len(sents) == 0 || s.AvgSentenceWords < t.MinSentenceWords

	return s
}

func (r *Rules) sentiment(text string, words []string, rating int) SentimentSignals {
	t := r.thresholds
	score := r.polarity(words, strings.Count(text, "!"))

	s := SentimentSignals{
		Sentiment:     score,
		Intensity:     math.Abs(score),
		ExtremeRating: rating == 1 || rating == 5,
		Rating:        rating,
	}
	s.ExtremeSentiment = s.Intensity > t.ExtremeSentiment
	positive := score >= t.PolarityThreshold
	negative := score <= -t.PolarityThreshold
	s.RatingMismatch = (positive && rating <= 2) || (negative && rating >= 4)
	return s
}

func (r *Rules) behavior(totalReviews, accountAgeDays *int) BehaviorSignals {
	t := r.thresholds
	s := BehaviorSignals{
		TotalReviews:   copyInt(totalReviews),
		AccountAgeDays: copyInt(accountAgeDays),
	}
	if accountAgeDays != nil {
		s.NewAccount = raisedIf(*accountAgeDays < t.NewAccountDays)
	}
	if totalReviews != nil {
		s.LowHistory = raisedIf(*totalReviews < t.LowHistoryReviews)
	}
	if totalReviews != nil && accountAgeDays != nil {
		s.ReviewsPerDay = float64(*totalReviews) / float64(max(*accountAgeDays, 1))
		s.HighFrequency = raisedIf(s.ReviewsPerDay > t.HighFrequencyPerDay)
	}
	return s
}

func (r *Rules) patternMatches(text string, words []string) PatternSignals {
	t := r.thresholds
	lower := strings.ToLower(text)

	var s PatternSignals
	for _, p := range r.patterns {
		n := len(p.re.FindAllStringIndex(lower, -1))
		if n == 0 {
			continue
		}
		s.Matches += n
		s.Matched = append(s.Matched, p.name)
	}
	if len(words) > 0 {
		s.MatchDensity = math.Min(1, float64(s.Matches)/float64(len(words)))
	} else if s.Matches > 0 {
		s.MatchDensity = 1
	}
	s.HasPatterns = s.Matches > 0
	s.PatternCluster = s.Matches >= t.PatternCluster

	positive := 0
	for _, w := range words {
		if r.isPositiveWord(strings.ToLower(w)) {
			positive++
		}
	}
	s.ExcessivePositiveWords = positive > t.PositiveWordLimit
	return s
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
