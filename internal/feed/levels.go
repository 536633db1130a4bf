package feed

import (
	"strconv"
	"time"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
)

// parseLevels converts venue-style [["price","size",...], ...] entries into
// price levels. Entries that are too short or carry non-numeric fields are
// skipped individually; one bad level never poisons the rest of the update.
func parseLevels(raw [][]string) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(entry[0], 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(entry[1], 64)
		if err != nil {
			continue
		}
		levels = append(levels, domain.PriceLevel{Price: price, Size: size})
	}
	return levels
}

// msToTime converts an epoch-milliseconds value to UTC time, or zero time
// for non-positive input.
func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
