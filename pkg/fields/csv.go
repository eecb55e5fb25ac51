package fields

import (
	"regexp"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

// Delimiters are the candidate CSV separators, in tie-break order.
var Delimiters = []rune{',', ';', '\t', '|'}

var lineBreak = regexp.MustCompile(`\r?\n`)

// FromCSV returns "rows", "rowCount" and the header cells of the node's CSV text.
// Empty text is declined.
func FromCSV(n domain.Node) ([]string, bool) {
	if n.CSV == "" {
		return nil, false
	}
	return append([]string{"rows", "rowCount"}, Headers(n.CSV)...), true
}

// Headers returns the trimmed header cells of the first line of content.
// The delimiter is detected with DetectDelimiter; quoted cells may contain
// the delimiter and "" stands for a literal quote.
func Headers(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	first := lineBreak.Split(content, 2)[0]
	delim := DetectDelimiter(first)

	var (
		headers  []string
		cell     strings.Builder
		inQuotes bool
	)
	runes := []rune(first)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inQuotes {
			switch {
			case c == '"' && i+1 < len(runes) && runes[i+1] == '"':
				cell.WriteRune('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				cell.WriteRune(c)
			}
			continue
		}
		switch c {
		case '"':
			inQuotes = true
		case delim:
			headers = append(headers, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(c)
		}
	}
	if cell.Len() > 0 || len(headers) > 0 {
		headers = append(headers, strings.TrimSpace(cell.String()))
	}
	return headers
}

// DetectDelimiter picks the candidate seen most often outside quotes in line.
// Ties go to the earlier candidate; comma is the default.
func DetectDelimiter(line string) rune {
	best, top := ',', 0
	for _, d := range Delimiters {
		count, inQuotes := 0, false
		for _, c := range line {
			if c == '"' {
				inQuotes = !inQuotes
			}
			if !inQuotes && c == d {
				count++
			}
		}
		if count > top {
			best, top = d, count
		}
	}
	return best
}
