package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Proposal is the model's parsed action payload. Exactly one of
// (Code + Summary) or Message is meaningfully populated: the first is an
// executable edit awaiting approval, the second a clarification question
// or plain reply.
type Proposal struct {
	Summary  string   `json:"summary"`
	Code     string   `json:"code"`
	Warnings []string `json:"warnings"`
	Message  string   `json:"message"`
}

// IsScript reports whether the proposal carries executable code.
func (p Proposal) IsScript() bool {
	return p.Code != ""
}

// Destructive reports whether the proposal was flagged with warnings.
func (p Proposal) Destructive() bool {
	return len(p.Warnings) > 0
}

// ParseProposal decodes the model's text response into a Proposal. A
// response wrapped in a markdown code fence is unwrapped before
// decoding. Returns ErrMalformedResponse when the text is not a JSON
// object of the expected shape.
func ParseProposal(text string) (Proposal, error) {
	stripped := StripFence(text)

	var p Proposal
	if err := json.Unmarshal([]byte(stripped), &p); err != nil {
		return Proposal{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if p.Code == "" && p.Message == "" {
		return Proposal{}, fmt.Errorf("%w: neither code nor message populated", ErrMalformedResponse)
	}
	return p, nil
}

// StripFence removes a surrounding markdown code fence (``` or
// ```json) from text, returning the inner content. Text without a fence
// is returned trimmed but otherwise unchanged.
func StripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line, including any language tag.
	rest := trimmed[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	} else {
		// Single-line fence: strip a trailing ``` and a leading
		// language tag ("```json {...}```" carries the tag on the
		// same line as the content).
		rest = strings.TrimSuffix(rest, "```")
		return strings.TrimSpace(stripLanguageTag(rest))
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// stripLanguageTag removes a leading fence language token such as "json"
// when it precedes the actual content. The token must be alphanumeric
// and separated from the content by whitespace.
func stripLanguageTag(s string) string {
	s = strings.TrimSpace(s)
	cut := strings.IndexAny(s, " \t")
	if cut <= 0 {
		return s
	}
	for _, r := range s[:cut] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return s
		}
	}
	return s[cut+1:]
}
