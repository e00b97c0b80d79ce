// Package humanize formats byte sizes and blob summaries for display,
// mirroring the csync client's humanize/display helpers.
package humanize

import (
	"fmt"
	"math"
	"strings"
)

var byteSuffixes = [...]string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

// Bytes renders size using binary prefixes (KiB, MiB, ...), rounded to one
// decimal place with the decimal dropped for whole numbers.
func Bytes(size uint64) string {
	if size == 0 {
		return "0 B"
	}

	f := float64(size)
	base := math.Log10(f) / math.Log10(1024)
	idx := int(math.Floor(base))
	if idx >= len(byteSuffixes) {
		idx = len(byteSuffixes) - 1
	}

	value := math.Pow(1024, base-math.Floor(base))
	result := strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0")
	return result + " " + byteSuffixes[idx]
}

// TruncateText collapses newlines to spaces and truncates to width display
// columns (CJK-aware), appending "..." when truncation occurred.
func TruncateText(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")

	var b strings.Builder
	current := 0
	truncated := false
	for _, r := range text {
		w := runeWidth(r)
		if current+w > width {
			truncated = true
			break
		}
		b.WriteRune(r)
		current += w
	}

	if truncated {
		b.WriteString("...")
	}
	return b.String()
}

// runeWidth approximates CJK display width: wide ranges count as 2 columns,
// everything else as 1 — the same heuristic unicode-width's "cjk" mode uses
// for the common East-Asian blocks.
func runeWidth(r rune) int {
	switch {
	case r >= 0x1100 && r <= 0x115F, // Hangul Jamo
		r >= 0x2E80 && r <= 0xA4CF, // CJK radicals .. Yi
		r >= 0xAC00 && r <= 0xD7A3, // Hangul syllables
		r >= 0xF900 && r <= 0xFAFF, // CJK compatibility ideographs
		r >= 0xFF00 && r <= 0xFF60, // fullwidth forms
		r >= 0xFFE0 && r <= 0xFFE6,
		r >= 0x20000 && r <= 0x3FFFD:
		return 2
	default:
		return 1
	}
}
