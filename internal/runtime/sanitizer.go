package runtime

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/weft/pkg/domain"
)

// MaxInputSizeEnv overrides DefaultMaxInputSize, in bytes per manual input.
const MaxInputSizeEnv = "WEFT_MAX_INPUT_SIZE"

// DefaultMaxInputSize bounds a single manual input value.
const DefaultMaxInputSize = 64 * 1024

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInputs validates the manual input values of a run and strips
// control characters other than newline, tab and carriage return. A failure
// names the offending variable.
func SanitizeInputs(inputs map[domain.VariableReference]string) (map[domain.VariableReference]string, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	limit := inputLimit()
	out := make(map[domain.VariableReference]string, len(inputs))
	for ref, v := range inputs {
		switch {
		case len(v) > limit:
			return nil, fmt.Errorf("input %s: %w: size=%d limit=%d", ref, ErrInputTooLarge, len(v), limit)
		case !utf8.ValidString(v):
			return nil, fmt.Errorf("input %s: %w", ref, ErrInvalidUTF8)
		}
		out[ref] = strings.Map(dropControl, v)
	}
	return out, nil
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
		return -1
	}
	return r
}

func inputLimit() int {
	if n, err := strconv.Atoi(os.Getenv(MaxInputSizeEnv)); err == nil && n > 0 {
		return n
	}
	return DefaultMaxInputSize
}
