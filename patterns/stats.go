package patterns

import (
	"sort"

	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/models"
)

// ColorSource resolves bead codes to reference entries.
type ColorSource interface {
	CodeChecker
	ColorByCode(code string) (colormatch.Entry, bool)
}

// ComputeStats counts the beads of each colour in pixels. Index 0 and empty
// palette slots are unpainted. Codes missing from the reference table are
// listed without a hex value and tallied in Unknown.
func ComputeStats(pixels []int, palette models.Palette, colors ColorSource) models.UsageStats {
	stats := models.UsageStats{Total: len(pixels), Items: []models.UsageItem{}}

	counts := make(map[string]int)
	for _, index := range pixels {
		code := palette.Code(index)
		if index == 0 || code == "" {
			stats.Empty++
			continue
		}
		counts[code]++
	}
	stats.Painted = stats.Total - stats.Empty

	for code, count := range counts {
		item := models.UsageItem{Code: code, Count: count}
		if entry, ok := colors.ColorByCode(code); ok {
			item.Hex = entry.Hex
		} else {
			stats.Unknown += count
		}
		stats.Items = append(stats.Items, item)
	}

	sort.Slice(stats.Items, func(i, j int) bool {
		a, b := stats.Items[i], stats.Items[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Code < b.Code
	})

	return stats
}
