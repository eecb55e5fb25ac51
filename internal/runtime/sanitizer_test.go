package runtime

import (
	"strings"
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInputs_SizeLimit(t *testing.T) {
	t.Setenv(MaxInputSizeEnv, "16")

	_, err := SanitizeInputs(map[domain.VariableReference]string{"a.b": strings.Repeat("a", 16)})
	assert.NoError(t, err)

	_, err = SanitizeInputs(map[domain.VariableReference]string{"a.b": strings.Repeat("a", 17)})
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.Contains(t, err.Error(), "a.b")
}

func TestSanitizeInputs_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv(MaxInputSizeEnv, "not-a-number")
	assert.Equal(t, DefaultMaxInputSize, inputLimit())
}

func TestSanitizeInputs_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\r\nLine2\tTabbed", "Line1\r\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "x\x07", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SanitizeInputs(map[domain.VariableReference]string{"n.f": tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out["n.f"])
		})
	}
}

func TestSanitizeInputs_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInputs(map[domain.VariableReference]string{"a.b": "\xff"})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.Contains(t, err.Error(), "a.b")

	out, err := SanitizeInputs(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestParsePolicies(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailureContinue, p)

	p, err = ParseFailurePolicy("skip-dependents")
	require.NoError(t, err)
	assert.Equal(t, FailureSkipDependents, p)

	_, err = ParseFailurePolicy("halt")
	assert.Error(t, err)

	c, err := ParseCyclePolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, CycleReject, c)

	_, err = ParseCyclePolicy("ignore")
	assert.Error(t, err)
}
