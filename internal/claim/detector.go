// Package claim detects claim-intent language in issue comments.
// The matcher is compiled once at construction and is safe for
// concurrent use; detection is pure and performs no I/O.
package claim

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spiffcs/claimwatch/config"
)

// Detector matches comment text against a fixed set of claim-intent
// expressions.
type Detector struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	id string
	re *regexp.Regexp
}

// NewDetector compiles the configured expressions. Invalid expressions
// are a configuration error and fail construction.
func NewDetector(patterns []config.ClaimPattern) (*Detector, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid claim pattern %q: %w", p.ID, err)
		}
		compiled = append(compiled, compiledPattern{id: p.ID, re: re})
	}
	return &Detector{patterns: compiled}, nil
}

// Detect returns the IDs of every pattern that matches the comment text.
// Empty or non-claim text yields an empty list; Detect never fails on
// arbitrary input.
func (d *Detector) Detect(commentText string) []string {
	text := strings.TrimSpace(commentText)
	if text == "" {
		return nil
	}

	var matched []string
	for _, p := range d.patterns {
		if p.re.MatchString(text) {
			matched = append(matched, p.id)
		}
	}
	return matched
}
