package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parlor/src/database"
	perrors "parlor/src/errors"
	"parlor/src/llm"
	"parlor/src/personality"
	"parlor/src/session"
)

func newChatSession(t *testing.T, fn llm.CompleterFunc, opts ...session.Option) *session.Session {
	t.Helper()
	reg, err := personality.LoadRegistry("")
	require.NoError(t, err)
	sess, err := session.New(reg, fn, opts...)
	require.NoError(t, err)
	return sess
}

func TestChatLoop(t *testing.T) {
	sess := newChatSession(t, func(ctx context.Context, req llm.Request) (string, error) {
		if req.Service == llm.ServiceDecision {
			return "stay", nil
		}
		return "Hmm. Strong with the Force, you are.", nil
	})

	in := strings.NewReader("hello\n\nyoda please\n/who\nexit\nnever read\n")
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), sess, in, &out, zap.NewNop()))

	got := out.String()
	assert.Contains(t, got, "Welcome! Type a message or 'exit' to quit.")
	assert.Contains(t, got, "Who would you like to talk to?")
	assert.Contains(t, got, "Switching to Yoda...")
	assert.Contains(t, got, "Strong with the Force, you are.")
	assert.Contains(t, got, "You are talking to Yoda.")
	assert.True(t, strings.HasSuffix(got, "Exiting the chat. Goodbye!\n"))

	assert.Equal(t, "yoda", sess.Active().GetKey())
	// the blank line and /who are not turns
	assert.Len(t, sess.History(), 5)
}

func TestChatLoop_ServiceFailureKeepsGoing(t *testing.T) {
	calls := 0
	sess := newChatSession(t, func(ctx context.Context, req llm.Request) (string, error) {
		calls++
		if calls == 1 {
			return "", perrors.NewServiceError(req.Service, req.Model, 503, errors.New("overloaded"))
		}
		return "I am Groot.", nil
	})

	in := strings.NewReader("groot\ngroot\n")
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), sess, in, &out, zap.NewNop()))

	got := out.String()
	assert.Contains(t, got, session.MsgServiceFailure)
	assert.Contains(t, got, "I am Groot.")
	assert.Equal(t, "groot", sess.Active().GetKey())
}

func TestChatLoop_CanceledContextEndsQuietly(t *testing.T) {
	sess := newChatSession(t, func(ctx context.Context, req llm.Request) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "unused", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := chatLoop(ctx, sess, strings.NewReader("yoda\n"), &out, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, sess.Active())
}

func TestRenderer_Labels(t *testing.T) {
	reg, err := personality.LoadRegistry("")
	require.NoError(t, err)

	var out bytes.Buffer
	r := renderer{out: &out, registry: reg}
	r.messages([]session.Message{
		{Speaker: session.AssistantSpeaker, Text: "Switching to Groot..."},
		{Speaker: "Groot", Text: "I am Groot.", Persona: "groot"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Assistant:")
	assert.Contains(t, lines[1], "Groot:")
	assert.Contains(t, lines[1], "I am Groot.")

	groot, _ := reg.Lookup("groot")
	if groot.GetIcon() != "" {
		assert.True(t, strings.HasPrefix(lines[1], groot.GetIcon()))
	}
}

func TestJournalRecorder(t *testing.T) {
	j, err := database.NewJournal(filepath.Join(t.TempDir(), "parlor.db"))
	require.NoError(t, err)
	defer j.Close()

	sess := newChatSession(t, func(ctx context.Context, req llm.Request) (string, error) {
		return "Pika pika!", nil
	}, session.WithRecorder(journalRecorder{journal: j}), session.WithID("s-1"))

	_, err = sess.ProcessTurn(context.Background(), "pikachu, hi")
	require.NoError(t, err)

	turns, err := j.Recent(context.Background(), database.Filter{SessionID: "s-1"})
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, session.UserSpeaker, turns[0].Speaker)
	assert.Equal(t, "Switching to Pikachu...", turns[1].Text)
	assert.Equal(t, "pikachu", turns[2].Persona)
	assert.Equal(t, "Pika pika!", turns[2].Text)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("false"))
	assert.Equal(t, 20, parseValue("20"))
	assert.Equal(t, "gpt-4o", parseValue("gpt-4o"))
	assert.Equal(t, 1, parseValue("1"))
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap("", map[string]interface{}{
		"openai": map[string]interface{}{
			"model":   "gpt-4o-mini",
			"timeout": "60s",
		},
		"journal": map[string]interface{}{"enabled": true},
		"tags":    []interface{}{"a", "b"},
	})

	assert.Equal(t, map[string]interface{}{
		"openai.model":    "gpt-4o-mini",
		"openai.timeout":  "60s",
		"journal.enabled": true,
		"tags":            "a, b",
	}, flat)
}
