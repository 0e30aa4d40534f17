package session

import (
	"context"
	"strings"

	"parlor/src/composer"
	perrors "parlor/src/errors"
	"parlor/src/llm"
	"parlor/src/memory"
	"parlor/src/personality"
)

// Responder generates a persona's reply from its transcript and is the only
// writer of transcripts.
type Responder struct {
	store     *memory.Store
	completer llm.Completer
	model     string
	window    int
	prompt    composer.Options
}

// Respond asks the generation service for p's reply to userText and, on
// success, appends the user line and the reply to p's transcript together.
// On failure the transcript is left untouched.
func (r *Responder) Respond(ctx context.Context, p *personality.Persona, userText string) (string, error) {
	entries, err := r.store.Read(p.GetKey())
	if err != nil {
		return "", err
	}

	reply, err := r.completer.Complete(ctx, llm.Request{
		Service: llm.ServiceGeneration,
		Model:   r.model,
		System:  composer.ComposePrompt(p, r.prompt),
		User:    composer.ComposeTranscript(entries, r.window, userText),
	})
	if err != nil {
		return "", asServiceError(llm.ServiceGeneration, r.model, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", perrors.NewServiceError(llm.ServiceGeneration, r.model, 0, perrors.ErrEmptyResponse)
	}

	err = r.store.AppendExchange(p.GetKey(),
		memory.Entry{Speaker: memory.UserSpeaker, Text: userText},
		memory.Entry{Speaker: p.GetName(), Text: reply})
	if err != nil {
		return "", err
	}

	return reply, nil
}
