// Package handoff builds the prompts handed to an AI assistant after a
// writing session. The journal never talks to a model itself; it prepares
// text for whatever assistant the writer pastes it into or connects over MCP.
package handoff

import (
	"errors"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// Style selects the kind of conversation the prompt sets up.
type Style string

const (
	// StyleReflect asks the assistant to mirror the entry back and hold a
	// conversation about it. Default.
	StyleReflect Style = "reflect"
	// StyleSummarize asks for a short digest of the entry.
	StyleSummarize Style = "summarize"
)

// ErrUnknownStyle is returned for style names this package does not know.
var ErrUnknownStyle = errors.New("handoff: unknown style")

// ParseStyle normalizes a user-supplied style name. Empty input selects
// StyleReflect.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleReflect:
		return StyleReflect, nil
	case StyleSummarize:
		return StyleSummarize, nil
	default:
		return "", ErrUnknownStyle
	}
}

const reflectPreamble = `Below is a freewriting session. It was written under a
forward-only constraint: no deleting, no editing, continuous writing until the
timer ran out. Expect typos, run-ons, and half-finished thoughts; they are part
of the form, not mistakes to fix.

Read the whole entry first. Then help the writer reflect on it: mirror back
the two or three threads that carry the most weight, and ask
one open question at a time. Stay concrete and grounded in what was actually
written. Do not critique the prose, do not summarize the entire entry back,
and do not give advice unless the writer asks for it.`

const summarizePreamble = `Below is a freewriting session written under a
forward-only constraint (no deleting or editing), so the text is raw and
unpolished on purpose.

Produce a short digest: three to five bullet points naming the main threads,
then one sentence on the overall mood. Quote at most one short phrase verbatim.
Do not correct or polish the writer's language.`

const (
	entryOpen  = "--- ENTRY ---"
	entryClose = "--- END ENTRY ---"
)

// BuildPrompt composes the full handoff prompt for one entry. The leading
// content sentinel and surrounding whitespace are stripped; the entry text is
// otherwise verbatim.
func BuildPrompt(style Style, content string) string {
	body := strings.TrimSpace(strings.TrimPrefix(content, models.Sentinel))

	preamble := reflectPreamble
	if style == StyleSummarize {
		preamble = summarizePreamble
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")
	b.WriteString(entryOpen)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(entryClose)
	b.WriteString("\n")
	return b.String()
}

// ReflectContract describes the handoff prompt format for MCP consumers.
const ReflectContract = `# Laguz Handoff Contract

A handoff prompt is plain UTF-8 text with two parts:

1. Instructions for the assistant, chosen by style:
   - ` + "`reflect`" + ` (default): mirror the entry back, one open question at a
     time, no prose critique, no unsolicited advice.
   - ` + "`summarize`" + `: three to five bullets plus one mood sentence.
2. The complete entry text, verbatim, fenced between ` + "`--- ENTRY ---`" + ` and
   ` + "`--- END ENTRY ---`" + `.

## Rules

1. The entry was freewritten: deletions and edits were impossible while it was
   being written. Treat typos and repetition as texture, never as errors to
   correct.
2. The fenced text is the writer's private journal. Quote sparingly.
3. The journal's storage format (leading blank lines, filenames) is an
   implementation detail and is already stripped; never ask about it.
4. Styles other than the ones listed above are rejected by the server, so a
   prompt you receive is always one of the two shapes.
`
