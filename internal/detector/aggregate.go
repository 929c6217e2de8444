package detector

const noAnomalies = "no notable anomalies detected"

// Aggregate combines category scores into the final result. Scores may arrive
// in any order; categories that are missing count as zero. The explanation
// and flags always follow the order of Categories.
func Aggregate(rules *Rules, scores []CategoryScore) AnalysisResult {
	byCategory := make(map[Category]CategoryScore, len(scores))
	for _, cs := range scores {
		byCategory[cs.Category] = cs
	}

	var confidence float64
	ordered := make([]CategoryScore, 0, len(Categories))
	explanation := []string{}
	flags := []string{}
	for _, c := range Categories {
		cs, ok := byCategory[c]
		if !ok {
			cs = CategoryScore{Category: c, Contributions: []Contribution{}}
		}
		ordered = append(ordered, cs)
		confidence += rules.Weight(c) * cs.Score

		for _, contrib := range cs.Contributions {
			if !contrib.Notable {
				continue
			}
			explanation = append(explanation, contrib.Reason)
			flags = append(flags, contrib.Signal)
		}
	}
	if len(explanation) == 0 {
		explanation = append(explanation, noAnomalies)
	}

	// Tiers see the full value; 9 decimals only absorbs float noise.
	confidence = clamp(confidence, 0, 100)
	label := rules.Classify(roundTo(confidence, 9))
	confidence = roundTo(confidence, 2)
	return AnalysisResult{
		IsFake:          label == LabelFake,
		ConfidenceScore: confidence,
		FakeProbability: roundTo(confidence/100, 4),
		Label:           label,
		CategoryBreakdown: Breakdown{
			TextQuality:       byCategory[CategoryTextQuality].Score,
			SentimentAnalysis: byCategory[CategorySentiment].Score,
			ReviewerBehavior:  byCategory[CategoryReviewerBehavior].Score,
			PatternMatching:   byCategory[CategoryPatternMatching].Score,
		},
		Explanation: explanation,
		Flags:       flags,
		Categories:  ordered,
	}
}

// Classify maps a confidence score to its tier. Boundaries are inclusive on
// the lower tier, so a score equal to AuthenticMax is authentic.
func (r *Rules) Classify(confidence float64) Label {
	switch {
	case confidence <= r.tiers.AuthenticMax:
		return LabelAuthentic
	case confidence <= r.tiers.SuspiciousMax:
		return LabelSuspicious
	default:
		return LabelFake
	}
}
