// Package prompt builds the requests sent to the generation capability and
// parses its replies. The engine treats the generated text as opaque; only the
// parsing helpers here impose any structure, and only on the auxiliary calls
// (choices, links), never on chapter text.
package prompt

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/softgrove/vellum/pkg/domain"
)

// BeginChoice is the sentinel choice used to request the opening chapter.
const BeginChoice = "begin"

// QuitChoice is the sentinel the player picks to end the interaction loop
// without marking the session finished.
const QuitChoice = "quit"

// FallbackChoice is presented when choice generation fails.
const FallbackChoice = "Continue..."

const storySystem = `You are the narrator of a choice-branching interactive story.
Write in rich, concrete prose. Every chapter must flow naturally from the text
that came before and present meaningful consequences for the player's choice.
Never address the player out of character and never mention game mechanics.`

const choicesInstruction = `List the actions the player could take next, one per
line, without numbering or commentary. Each action must be a short imperative
phrase that makes sense in the current scene.`

const linksInstruction = `List the named people, places, and objects in the
chapter above that future chapters should stay consistent with, one per line,
without commentary.`

// Continuation builds the request for the next chapter. An empty currentText
// together with BeginChoice requests the opening chapter.
func Continuation(currentText, choice string) string {
	var b strings.Builder
	b.WriteString(storySystem)
	b.WriteString("\n\n")
	if strings.TrimSpace(currentText) == "" {
		b.WriteString("Begin a new story with an opening chapter in markdown.\n")
	} else {
		b.WriteString("The story so far:\n\n")
		b.WriteString(currentText)
		b.WriteString("\n\nThe player chose: ")
		b.WriteString(choice)
		b.WriteString("\n\nContinue with the next chapter in markdown.\n")
	}
	return b.String()
}

// Choices builds the request for the next set of player options.
func Choices(currentText string, state *domain.WorldState) string {
	return fmt.Sprintf("%s\n\nCurrent chapter:\n\n%s\n\nWorld state:\n%s\n\n%s",
		storySystem, currentText, stateSummary(state), choicesInstruction)
}

// Links builds the cross-reference extraction request for one chapter.
func Links(chapterText string) string {
	return fmt.Sprintf("Chapter:\n\n%s\n\n%s", chapterText, linksInstruction)
}

// Lore builds a background-information request about a topic.
func Lore(topic string, state *domain.WorldState) string {
	return fmt.Sprintf("%s\n\nWorld state:\n%s\n\nDescribe %q: its history and its role in this story. Stay consistent with everything established so far.",
		storySystem, stateSummary(state), topic)
}

// ParseChoices splits a reply into at most max trimmed, non-empty lines.
// Leading list markers are stripped so numbered replies still parse.
func ParseChoices(response string, max int) []string {
	choices := parseLines(response)
	if max > 0 && len(choices) > max {
		choices = choices[:max]
	}
	return choices
}

// ParseLinks splits a reply into trimmed, non-empty lines.
func ParseLinks(response string) []string {
	return parseLines(response)
}

func parseLines(response string) []string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// stateSummary renders the fact maps and story progress as YAML for the model.
/// Meta is deliberately excluded: timestamps and schema tags are not narrative.
func stateSummary(state *domain.WorldState) string {
	if state == nil {
		return "{}"
	}
	summary := map[string]any{
		"player":   state.Player,
		"world":    state.World,
		"chapters": state.Story.ChapterCount,
		"choices":  state.Story.Choices,
	}
	data, err := yaml.Marshal(summary)
	if err != nil {
		return "{}"
	}
	return string(data)
}
