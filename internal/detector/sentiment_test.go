package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func polarityOf(rules *Rules, text string) float64 {
	return rules.polarity(tokens(text), strings.Count(text, "!"))
}

func TestPolarity(t *testing.T) {
	rules := DefaultRules()

	plain := polarityOf(rules, "good product")
	assert.InDelta(t, 0.4404, plain, 1e-4)

	assert.Zero(t, polarityOf(rules, "the box arrived on tuesday"))
	assert.Zero(t, polarityOf(rules, ""))
	assert.Less(t, polarityOf(rules, "not good product"), 0.0)
	assert.Greater(t, polarityOf(rules, "very good product"), plain)
	assert.Less(t, polarityOf(rules, "slightly good product"), plain)
	assert.Greater(t, polarityOf(rules, "GOOD product"), plain)
	assert.InDelta(t, plain, polarityOf(rules, "GOOD PRODUCT"), 1e-12, "uniform shouting is not emphasis")
	assert.Greater(t, polarityOf(rules, "good product!"), plain)
	assert.Less(t, polarityOf(rules, "terrible, broke after a day"), 0.0)
	assert.Less(t, polarityOf(rules, "it doesn't work and I hate it"), 0.0)
}

func TestPolarityIsBounded(t *testing.T) {
	rules := DefaultRules()
	text := strings.Repeat("best amazing perfect love ", 50) + "!!!!!!!!"
	p := polarityOf(rules, text)
	assert.LessOrEqual(t, p, 1.0)
	assert.Greater(t, p, 0.99)

	n := polarityOf(rules, strings.Repeat("worst scam garbage ", 50))
	assert.GreaterOrEqual(t, n, -1.0)
	assert.Less(t, n, -0.99)
}

func TestPolarityUsesLexiconOverrides(t *testing.T) {
	cfg := DefaultRulesConfig()
	cfg.Lexicon = map[string]float64{"Meh": -1.5}
	rules, err := NewRules(cfg)
	assert.NoError(t, err)
	assert.Less(t, polarityOf(rules, "meh"), 0.0)
	assert.Zero(t, polarityOf(DefaultRules(), "meh"))
}

func TestSentimentRatingMismatch(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name     string
		text     string
		rating   int
		mismatch bool
	}{
		{"negative text five stars", "Terrible, broke after a day.", 5, true},
		{"negative text one star", "Terrible, broke after a day.", 1, false},
		{"positive text one star", "Great blender, I love it.", 1, true},
		{"positive text three stars", "Great blender, I love it.", 3, false},
		{"neutral text", "Arrived on Tuesday in a box.", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Extract(rules, ReviewInput{Text: tt.text, Rating: tt.rating}).Sentiment
			assert.Equal(t, tt.mismatch, s.RatingMismatch)
			assert.Equal(t, tt.rating == 1 || tt.rating == 5, s.ExtremeRating)
		})
	}
}
