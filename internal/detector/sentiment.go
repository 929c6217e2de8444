package detector

import (
	"math"
	"strings"
)

const (
	negationScalar     = -0.74
	boosterIncrement   = 0.293
	capsIncrement      = 0.733
	exclaimIncrement   = 0.292
	maxExclaimBoost    = 4
	normalizationAlpha = 15.0
)

// defaultLexicon maps words to valences on a -4..4 scale.
var defaultLexicon = map[string]float64{
	"amazing": 2.8, "awesome": 3.1, "best": 3.2, "brilliant": 2.8, "excellent": 3.2,
	"fantastic": 2.6, "flawless": 2.3, "good": 1.9, "great": 3.1, "happy": 2.7,
	"incredible": 2.6, "love": 3.2, "loved": 2.9, "loves": 2.7, "nice": 1.8,
	"outstanding": 3.0, "perfect": 2.7, "perfectly": 2.6, "recommend": 1.5,
	"satisfied": 1.8, "superb": 3.1, "wonderful": 2.7, "beautiful": 2.9,
	"fine": 0.8, "solid": 1.2, "pleased": 1.9, "reliable": 1.6, "comfortable": 1.5,
	"sturdy": 1.2, "durable": 1.3, "easy": 1.4, "works": 0.6, "worth": 0.9,
	"helpful": 1.7, "favorite": 2.0, "impressed": 2.2, "enjoy": 2.2, "enjoyed": 2.3,
	"bad": -2.5, "awful": -2.0, "broke": -1.6, "broken": -2.0, "cheap": -0.9,
	"defective": -2.1, "disappointed": -1.9, "disappointing": -2.2, "garbage": -2.5,
	"hate": -2.7, "hated": -3.2, "horrible": -2.5, "junk": -2.1, "poor": -2.1,
	"refund": -0.8, "return": -0.4, "returned": -0.8, "scam": -2.7, "terrible": -2.1,
	"useless": -1.8, "waste": -1.8, "worst": -3.1, "fake": -2.1, "flimsy": -1.6,
	"annoying": -1.7, "angry": -2.3, "fail": -2.5, "failed": -2.3, "problem": -1.7,
	"problems": -1.7, "issue": -0.9, "issues": -0.9, "slow": -0.9, "rude": -2.0,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nothing": {}, "neither": {}, "nor": {},
	"without": {}, "hardly": {}, "cannot": {},
}

var boosters = map[string]float64{
	"absolutely": boosterIncrement, "completely": boosterIncrement, "extremely": boosterIncrement,
	"highly": boosterIncrement, "incredibly": boosterIncrement, "really": boosterIncrement,
	"so": boosterIncrement, "totally": boosterIncrement, "very": boosterIncrement,
	"super": boosterIncrement, "truly": boosterIncrement,
	"barely": -boosterIncrement, "kinda": -boosterIncrement, "slightly": -boosterIncrement,
	"somewhat": -boosterIncrement, "little": -boosterIncrement,
}

func isNegation(token string) bool {
	if _, ok := negations[token]; ok {
		return true
	}
	return strings.HasSuffix(token, "n't")
}

// polarity scores text on [-1,1]. Tokens keep their original casing so that
// shouted words can be emphasised; lookups are case-insensitive.
func (r *Rules) polarity(words []string, exclamations int) float64 {
	if len(words) == 0 {
		return 0
	}
	lower := make([]string, len(words))
	shouted := 0
	for i, w := range words {
		lower[i] = strings.ToLower(w)
		if isShouted(w) {
			shouted++
		}
	}
	// emphasis from capitals only counts when the text is not shouted throughout
	mixedCase := shouted > 0 && shouted < len(words)

	window := r.thresholds.NegationWindow
	var sum float64
	for i, w := range lower {
		valence, ok := r.lexicon[w]
		if !ok || valence == 0 {
			continue
		}
		if mixedCase && isShouted(words[i]) {
			valence += math.Copysign(capsIncrement, valence)
		}
		for j := i - 1; j >= 0 && j >= i-window; j-- {
			if b, ok := boosters[lower[j]]; ok {
				if valence < 0 {
					b = -b
				}
				valence += b
			}
		}
		for j := i - 1; j >= 0 && j >= i-window; j-- {
			if isNegation(lower[j]) {
				valence *= negationScalar
				break
			}
		}
		sum += valence
	}

	if sum != 0 && exclamations > 0 {
		sum += math.Copysign(float64(min(exclamations, maxExclaimBoost))*exclaimIncrement, sum)
	}

	score := sum / math.Sqrt(sum*sum+normalizationAlpha)
	return math.Max(-1, math.Min(1, score))
}
