package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func TestValidateForbiddenClaims(t *testing.T) {
	e := newTestEngine()

	result := e.Validate("Guaranteed returns, 100x moon soon")
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"guaranteed returns", "100x", "moon"}, result.Violations)
}

func TestValidateCaseInsensitive(t *testing.T) {
	e := newTestEngine()

	result := e.Validate("this is FINANCIAL ADVICE")
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"financial advice"}, result.Violations)
}

func TestValidateCleanCaption(t *testing.T) {
	e := newTestEngine()

	result := e.Validate("Exploring onchain attestation flows today.")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Violations)
}

func TestValidateLength(t *testing.T) {
	e := newTestEngine()

	result := e.Validate(strings.Repeat("a", 281))
	assert.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0], "280")

	assert.True(t, e.Validate(strings.Repeat("a", 280)).Valid)
}

func TestInjectAppendsMandatoryContent(t *testing.T) {
	e := newTestEngine()

	out := e.Inject("Trying a new swap route", []string{"uniswap"})
	assert.Contains(t, out, "@veristamp")
	assert.Contains(t, out, "#onchain")
	assert.Contains(t, out, "https://app.uniswap.org")
}

func TestInjectIdempotent(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name  string
		text  string
		dapps []string
	}{
		{"plain", "hello world", nil},
		{"with dapps", "hello world", []string{"uniswap", "aave"}},
		{"already injected", "hello @veristamp #onchain", []string{"lido"}},
		{"empty", "", []string{"curve"}},
		{"unknown dapp", "hello", []string{"nonexistent"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := e.Inject(tc.text, tc.dapps)
			twice := e.Inject(once, tc.dapps)
			assert.Equal(t, once, twice)
		})
	}
}

func TestInjectRecognizesDAppCaseInsensitive(t *testing.T) {
	e := newTestEngine()

	out := e.Inject("hello", []string{"UniSwap"})
	assert.Contains(t, out, "https://app.uniswap.org")
}

func TestInjectUnknownDAppAddsNothing(t *testing.T) {
	e := newTestEngine()

	out := e.Inject("hello", []string{"mystery-dapp"})
	assert.Equal(t, "hello @veristamp #onchain", out)
}

func TestSanitizeStripsMarkup(t *testing.T) {
	e := newTestEngine()

	out := e.Sanitize("<script>alert(1)</script>plain text")
	assert.Equal(t, "plain text", out)

	out = e.Sanitize("  padded  ")
	assert.Equal(t, "padded", out)
}
