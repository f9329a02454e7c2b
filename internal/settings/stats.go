package settings

import "time"

// Stats summarises recorded usage events.
type Stats struct {
	TotalRewrites       int            `json:"totalRewrites"`
	ModeUsage           map[string]int `json:"modeUsage"`
	CharactersProcessed int64          `json:"charactersProcessed"`
	CharactersGenerated int64          `json:"charactersGenerated"`
	LastUsed            *time.Time     `json:"lastUsed"`
}

// FavoriteMode returns the most used mode key, breaking ties by key.
func (s Stats) FavoriteMode() string {
	best, bestCount := "", 0
	for k, n := range s.ModeUsage {
		if n > bestCount || (n == bestCount && k < best) {
			best, bestCount = k, n
		}
	}
	return best
}
