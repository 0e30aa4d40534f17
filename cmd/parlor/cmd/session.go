package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"parlor/src/composer"
	"parlor/src/config"
	"parlor/src/database"
	"parlor/src/llm"
	"parlor/src/personality"
	"parlor/src/session"
)

// journalRecorder stores completed turns in the libSQL journal
type journalRecorder struct {
	journal *database.Journal
}

func (r journalRecorder) RecordTurn(ctx context.Context, sessionID string, messages []session.Message) error {
	turns := make([]database.Turn, len(messages))
	for i, m := range messages {
		turns[i] = database.Turn{
			SessionID: sessionID,
			Speaker:   m.Speaker,
			Persona:   m.Persona,
			Text:      m.Text,
		}
	}
	return r.journal.Record(ctx, turns)
}

// loadRegistry loads the built-in characters plus the user's own
func loadRegistry() (*personality.Registry, error) {
	dir, err := config.GetPersonalitiesDir()
	if err != nil {
		return nil, err
	}
	return personality.LoadRegistry(dir)
}

// buildSession validates settings and wires a session with its backend and
// optional journal. The returned cleanup must always be called.
func buildSession(settings *config.Settings, logger *zap.Logger) (*session.Session, func(), error) {
	cleanup := func() {}

	if err := settings.Validate(); err != nil {
		return nil, cleanup, err
	}

	reg, err := loadRegistry()
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to load characters: %w", err)
	}

	completer, err := llm.NewOpenAI(settings.OpenAI)
	if err != nil {
		return nil, cleanup, err
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithContextWindow(settings.Memory.ContextWindow),
		session.WithModels(settings.OpenAI.Model, settings.OpenAI.DecisionModel),
		session.WithPromptOptions(composer.Options{IncludeContext: settings.Prompt.Context}),
	}

	if settings.Journal.Enabled {
		j, err := database.NewJournal(settings.Journal.Path)
		if err != nil {
			// the chat still works without a journal
			logger.Warn("journal unavailable", zap.String("path", settings.Journal.Path), zap.Error(err))
		} else {
			cleanup = func() { j.Close() }
			opts = append(opts, session.WithRecorder(journalRecorder{journal: j}))
		}
	}

	sess, err := session.New(reg, completer, opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	logger.Debug("session ready",
		zap.String("session", sess.ID()),
		zap.Int("personas", reg.Len()),
		zap.String("model", settings.OpenAI.Model),
		zap.String("decision_model", settings.OpenAI.DecisionModel))

	return sess, cleanup, nil
}
