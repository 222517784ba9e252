package stats

import "strings"

// ModelPrice is the USD price per 1K tokens for a model family.
type ModelPrice struct {
	Input  float64
	Output float64
}

// prices is keyed by model prefix; the longest matching prefix wins.
var prices = map[string]ModelPrice{
	"gpt-4o-mini":   {Input: 0.00015, Output: 0.0006},
	"gpt-4o":        {Input: 0.0025, Output: 0.01},
	"gpt-4-turbo":   {Input: 0.01, Output: 0.03},
	"gpt-4":         {Input: 0.03, Output: 0.06},
	"gpt-3.5-turbo": {Input: 0.0005, Output: 0.0015},
	"o1-mini":       {Input: 0.003, Output: 0.012},
	"o1":            {Input: 0.015, Output: 0.06},
}

// PriceFor returns the price for model, if known.
func PriceFor(model string) (ModelPrice, bool) {
	best := ""
	for prefix := range prices {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return ModelPrice{}, false
	}
	return prices[best], true
}

// Cost prices a request. Unknown models fall back to flatRate per token.
func Cost(model string, prompt, completion int, flatRate float64) float64 {
	if price, ok := PriceFor(model); ok {
		return float64(prompt)/1000*price.Input + float64(completion)/1000*price.Output
	}
	return float64(prompt+completion) * flatRate
}
