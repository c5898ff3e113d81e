package statblock

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Token strings emitted by the procmon collector around the stat block.
// The end token really is spelled differently from the begin token; both
// sides of the pipe depend on the exact text, so neither may be "fixed".
const (
	BeginToken = "# STAT_BEGIN"
	EndToken   = "# STAT END"
)

// Error kinds reported by this package. All returned errors wrap one of
// these sentinels; match with errors.Is.
var (
	// ErrParse reports that no usable stat block was found in the input
	// (begin token absent, or the delimited region is empty).
	ErrParse = errors.New("stat block not found")

	// ErrMalformedData reports that the delimited region is not a valid
	// mapping literal of string keys to numbers.
	ErrMalformedData = errors.New("malformed stat data")
)

// Extract locates the token-delimited stat block in a complete stdout
// capture and parses it into a sample mapping.
//
// Everything after the first begin token and before the first end token is
// taken as the block; a missing end token means the whole remainder is
// used.
func Extract(stdout string) (map[string]float64, error) {
	_, rest, found := strings.Cut(stdout, BeginToken)
	if !found {
		return nil, fmt.Errorf("statblock: begin token not found: %w", ErrParse)
	}
	body, _, _ := strings.Cut(rest, EndToken)
	return parseBody(body)
}

// ExtractLines is the streaming variant of Extract for line-oriented
// readers too large to hold as one string. Lines are discarded until one
// starting with the begin token is seen, then collected until a line
// starting with the end token or EOF.
func ExtractLines(r io.Reader) (map[string]float64, error) {
	sc := bufio.NewScanner(r)
	var body strings.Builder
	seen := false
	for sc.Scan() {
		line := sc.Text()
		if !seen {
			if strings.HasPrefix(line, BeginToken) {
				seen = true
			}
			continue
		}
		if strings.HasPrefix(line, EndToken) {
			break
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("statblock: read lines: %w", err)
	}
	return parseBody(body.String())
}

// parseBody rejects an empty extracted region, then hands the text to the
// mapping-literal parser.
func parseBody(body string) (map[string]float64, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("statblock: no statistical data found: %w", ErrParse)
	}
	return parseMapping(body)
}
