// Package constraint implements the forward-only edit discipline: an
// accepted edit may only extend previously accepted text, never shorten or
// rewrite it. Evaluation is a pure decision; violations are ordinary
// outcomes for the caller to turn into user feedback, never errors.
package constraint

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/laguz/internal/models"
)

// Outcome classifies a decision.
type Outcome int

const (
	// Accepted means the proposed text extends the previous text; the
	// caller's state becomes Decision.Text.
	Accepted Outcome = iota
	// Corrected means the proposed text was accepted after the missing
	// content sentinel was silently restored. Bootstrap normalization, not
	// a violation: no feedback.
	Corrected
	// Rejected means the proposed text shortened or rewrote the accepted
	// region; Decision.Text restores the previous text.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Corrected:
		return "corrected"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Default length bounds, in bytes.
const (
	DefaultHardLimit = 75000
	DefaultSoftLimit = 60000
)

// Limits bound entry length. Text past Hard is truncated with feedback;
// text past Soft is accepted but observable via Decision.SoftLimit.
type Limits struct {
	Hard int
	Soft int
}

// Decision is the result of evaluating one proposed edit.
type Decision struct {
	Outcome Outcome
	// Text is what the caller must adopt: the (possibly corrected or
	// truncated) proposal on accept, the previous text on reject.
	Text string
	// Cursor is a byte offset into Text.
	Cursor int
	// Feedback tells the caller to emit an audible/visual cue (rejection
	// or truncation; never silent correction).
	Feedback bool
	// SoftLimit reports that Text exceeds the soft threshold. Telemetry
	// only; it never changes the outcome.
	SoftLimit bool
}

// Validator applies the forward-only rules under configured limits. It is
// stateless and safe for concurrent use; callers own the previous-text
// state and feed it back on the next call.
type Validator struct {
	limits Limits
}

// New creates a Validator. Non-positive limit fields fall back to the
// defaults; Soft is capped at Hard.
func New(limits Limits) *Validator {
	if limits.Hard <= 0 {
		limits.Hard = DefaultHardLimit
	}
	if limits.Soft <= 0 {
		limits.Soft = DefaultSoftLimit
	}
	if limits.Soft > limits.Hard {
		limits.Soft = limits.Hard
	}
	return &Validator{limits: limits}
}

// Evaluate decides whether proposed may replace previous. cursor is the
// caller's byte offset into proposed; offsets outside the text are clamped.
//
// previous must be a previously accepted value (or empty at session start).
func (v *Validator) Evaluate(previous, proposed string, cursor int) Decision {
	outcome := Accepted
	feedback := false

	// Bootstrap normalization: restore the sentinel before anything else.
	if !strings.HasPrefix(proposed, models.Sentinel) {
		proposed = models.Sentinel + proposed
		cursor += len(models.Sentinel)
		outcome = Corrected
	}
	cursor = clamp(cursor, 0, len(proposed))

	// Hard ceiling, independent of the forward-only rules.
	if len(proposed) > v.limits.Hard {
		proposed = truncateOnRuneBoundary(proposed, v.limits.Hard)
		cursor = clamp(cursor, 0, len(proposed))
		feedback = true
	}

	switch {
	case len(proposed) < len(previous):
		// (a) the accepted region shrank
		return v.reject(previous)
	case cursor < len(previous) && proposed != previous:
		// (b) an edit landed inside the accepted region
		return v.reject(previous)
	case !strings.HasPrefix(proposed, previous):
		// (c) a character inside the accepted region was altered
		return v.reject(previous)
	}

	return Decision{
		Outcome:   outcome,
		Text:      proposed,
		Cursor:    cursor,
		Feedback:  feedback,
		SoftLimit: len(proposed) > v.limits.Soft,
	}
}

// reject restores the previous text with the cursor forced to end-of-text.
func (v *Validator) reject(previous string) Decision {
	return Decision{
		Outcome:   Rejected,
		Text:      previous,
		Cursor:    len(previous),
		Feedback:  true,
		SoftLimit: len(previous) > v.limits.Soft,
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// truncateOnRuneBoundary cuts s to at most max bytes without splitting a
// UTF-8 sequence.
func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
