package composer

import (
	"fmt"
	"strings"
	"time"

	"parlor/src/context"
	"parlor/src/memory"
	"parlor/src/personality"
)

const layerSeparator = "\n\n---\n\n"

const globalInstructions = `## Communication Style
Express personality through dialogue and tone only. Do not use action descriptions, emotes, or asterisk-wrapped physical descriptions like *sighs* or *looks away*. Convey emotions and attitudes solely through word choice, sentence structure, and speaking patterns.`

// Options controls the optional layers of a persona prompt
type Options struct {
	IncludeContext bool
	Now            func() time.Time
}

// ComposePrompt builds the layered system prompt for a persona
func ComposePrompt(p personality.Personality, opts Options) string {
	layers := []string{p.GetPrompt()}

	if opts.IncludeContext {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		layers = append(layers, context.GetContextualPrompt(now()))
	}

	layers = append(layers, globalInstructions)

	return strings.Join(layers, layerSeparator)
}

// ComposeTranscript flattens the last window entries plus the new user line.
// A window of 0 or less keeps the whole transcript.
func ComposeTranscript(entries []memory.Entry, window int, userText string) string {
	if window > 0 && len(entries) > window {
		entries = entries[len(entries)-window:]
	}

	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		lines = append(lines, e.Line())
	}
	lines = append(lines, memory.Entry{Speaker: memory.UserSpeaker, Text: userText}.Line())

	return strings.Join(lines, "\n")
}

// RouterPrompt is the system instruction for the decision service
func RouterPrompt(reg *personality.Registry) string {
	return fmt.Sprintf(`You are a base agent that manages which fictional character the user is talking to.
You can hand off control to one of these characters: %s.

Rules:
1. If the user hasn't picked anyone, ask them which character they'd like to talk to.
2. If the user mentions or refers to another character's name, interpret that as a request to switch.
3. Once switched, the chosen character continues the conversation until another switch is requested.
4. Character keys are: %s.`, reg.DisplayList(), strings.Join(reg.Keys(), ", "))
}

// DecisionRequest is the user payload sent to the decision service. An
// empty active key is reported as None.
func DecisionRequest(active, userText string) string {
	if active == "" {
		active = "None"
	}
	return fmt.Sprintf(`Current character: %s
User said: %s

Respond ONLY with:
1. 'switch:<character_key>' if a switch is needed, or
2. 'stay' if we should continue with the current one, or
3. 'prompt' if the user hasn't chosen any yet.`, active, userText)
}
