package orchestrator

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/scribe/pkg/envelope"
)

// Sentinel markers around the previous output in a repair prompt.
const (
	PreviousOutputBegin = "<<<PREVIOUS_OUTPUT_BEGIN>>>"
	PreviousOutputEnd   = "<<<PREVIOUS_OUTPUT_END>>>"
)

// ComposeSystemPrompt joins the agent prompt and a per-call addition with a
// blank line. A blank side yields the other unchanged.
func ComposeSystemPrompt(base, addition string) string {
	switch {
	case strings.TrimSpace(base) == "":
		return addition
	case strings.TrimSpace(addition) == "":
		return base
	}
	return base + "\n\n" + addition
}

// SanitizeForJSON drops every line mentioning Markdown. Such instructions
// conflict with a strict JSON reply.
func SanitizeForJSON(prompt string) string {
	lines := strings.Split(prompt, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), "markdown") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// JSONContract is appended to the system prompt of strict calls.
func JSONContract(exp envelope.Expectation) string {
	return fmt.Sprintf(
		"Respond with a single JSON object and nothing else: no prose, no code fences.\n"+
			"The object must have the shape %s.\n"+
			"Escape every backslash inside strings as \\\\ (LaTeX included).",
		exp.Describe(),
	)
}

// RepairPrompt asks the model to correct its previous reply.
func RepairPrompt(exp envelope.Expectation, previous string) string {
	var b strings.Builder
	b.WriteString("Your previous reply could not be used because it did not match the required JSON format.\n")
	fmt.Fprintf(&b, "Required: %s.\n", exp.Describe())
	b.WriteString("Rewrite it so it matches exactly. Keep the content, fix only the structure.\n")
	b.WriteString("Return only the JSON object.\n\n")
	b.WriteString(PreviousOutputBegin)
	b.WriteString("\n")
	b.WriteString(previous)
	b.WriteString("\n")
	b.WriteString(PreviousOutputEnd)
	return b.String()
}

func questionsPrompt(in QuestionsInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d practice questions.", in.Count)
	b.WriteString(" Give each question a short title and the full question text.")
	if s := strings.TrimSpace(in.Instructions); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

func pagesPrompt(in PagesInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain the material in exactly %d pages.", in.Count)
	b.WriteString(" Give each page a short title and the explanation text.")
	if s := strings.TrimSpace(in.Instructions); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

func explainPrompt(in ExplainInput) string {
	var b strings.Builder
	b.WriteString(`Answer as JSON of the form {"pages": [{"title": "...", "text": "..."}]}.`)
	if s := strings.TrimSpace(in.Instructions); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}
