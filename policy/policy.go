// Package policy validates caption text against a forbidden-claims list
// and deterministically injects mandatory mentions and links. The engine
// is stateless; all reference data lives in an immutable Config passed at
// construction.
package policy

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Config is the read-only reference data for an Engine.
type Config struct {
	// ForbiddenClaims are scanned case-insensitively; every match is a
	// distinct violation, reported in list order.
	ForbiddenClaims []string

	// MentionToken and RequiredTag are appended when absent.
	MentionToken string
	RequiredTag  string

	// DAppLinks maps recognized target dApp identifiers (lowercase) to the
	// link appended for them.
	DAppLinks map[string]string

	MaxLength int
}

// DefaultConfig returns the stock policy configuration.
func DefaultConfig() Config {
	return Config{
		ForbiddenClaims: []string{
			"guaranteed returns",
			"100x",
			"moon",
			"financial advice",
			"risk-free",
			"get rich",
		},
		MentionToken: "@veristamp",
		RequiredTag:  "#onchain",
		DAppLinks: map[string]string{
			"uniswap": "https://app.uniswap.org",
			"aave":    "https://app.aave.com",
			"lido":    "https://stake.lido.fi",
			"curve":   "https://curve.fi",
		},
		MaxLength: 280,
	}
}

// Result is the structured outcome of a validation pass. Validation is
// non-fatal: the caller decides whether to reject or allow amendment.
type Result struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// Engine applies the content policy. Safe for concurrent use.
type Engine struct {
	cfg       Config
	sanitizer *bluemonday.Policy
}

// NewEngine builds an engine from cfg. The config is copied and must not
// be mutated afterwards.
func NewEngine(cfg Config) *Engine {
	claims := make([]string, len(cfg.ForbiddenClaims))
	copy(claims, cfg.ForbiddenClaims)
	cfg.ForbiddenClaims = claims

	links := make(map[string]string, len(cfg.DAppLinks))
	for k, v := range cfg.DAppLinks {
		links[strings.ToLower(k)] = v
	}
	cfg.DAppLinks = links

	return &Engine{
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips markup from raw text and collapses surrounding
// whitespace. Applied before validation on the generate path; upstream
// content sources are never trusted to self-police.
func (e *Engine) Sanitize(text string) string {
	return strings.TrimSpace(e.sanitizer.Sanitize(text))
}

// Validate scans text against the policy. Every forbidden claim found is
// reported as a distinct violation, in the order the list is scanned.
func (e *Engine) Validate(text string) Result {
	var violations []string

	if len([]rune(text)) > e.cfg.MaxLength {
		violations = append(violations, fmt.Sprintf("caption exceeds %d characters", e.cfg.MaxLength))
	}

	lowered := strings.ToLower(text)
	for _, claim := range e.cfg.ForbiddenClaims {
		if strings.Contains(lowered, strings.ToLower(claim)) {
			violations = append(violations, claim)
		}
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

// Inject appends the mandatory mention, the required tag, and known links
// for recognized target dApps, each only when absent. Calling Inject on
// its own output is a no-op.
func (e *Engine) Inject(text string, targetDApps []string) string {
	out := text

	if e.cfg.MentionToken != "" && !containsFold(out, e.cfg.MentionToken) {
		out = appendToken(out, e.cfg.MentionToken)
	}
	if e.cfg.RequiredTag != "" && !containsFold(out, e.cfg.RequiredTag) {
		out = appendToken(out, e.cfg.RequiredTag)
	}
	for _, dapp := range targetDApps {
		link, ok := e.cfg.DAppLinks[strings.ToLower(dapp)]
		if ok && !strings.Contains(out, link) {
			out = appendToken(out, link)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func appendToken(text, token string) string {
	if text == "" {
		return token
	}
	return text + " " + token
}
