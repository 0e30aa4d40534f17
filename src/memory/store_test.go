package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "parlor/src/errors"
)

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore([]string{"yoda", "groot"})

	for _, key := range []string{"yoda", "groot"} {
		entries, err := s.Read(key)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Equal(t, 0, s.Len(key))
	}
	assert.Empty(t, s.Started())
	assert.Equal(t, map[string]int{"yoda": 0, "groot": 0}, s.Counts())
}

func TestStore_AppendKeepsOrder(t *testing.T) {
	s := NewStore([]string{"yoda"})

	require.NoError(t, s.Append("yoda", UserSpeaker, "hello"))
	require.NoError(t, s.Append("yoda", "Yoda", "Hello, you say."))
	require.NoError(t, s.Append("yoda", UserSpeaker, "how are you"))

	entries, err := s.Read("yoda")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "User: hello", entries[0].Line())
	assert.Equal(t, "Yoda: Hello, you say.", entries[1].Line())
	assert.Equal(t, "User: how are you", entries[2].Line())
	assert.False(t, entries[0].At.IsZero())
}

func TestStore_UnknownPersona(t *testing.T) {
	s := NewStore([]string{"yoda"})

	err := s.Append("vader", UserSpeaker, "hi")
	assert.ErrorIs(t, err, perrors.ErrUnknownPersona)

	err = s.AppendExchange("vader", Entry{Speaker: UserSpeaker, Text: "hi"}, Entry{Speaker: "Vader", Text: "no"})
	assert.ErrorIs(t, err, perrors.ErrUnknownPersona)

	_, err = s.Read("vader")
	assert.ErrorIs(t, err, perrors.ErrUnknownPersona)

	assert.Equal(t, 0, s.Len("vader"))
	assert.Empty(t, s.Started())
}

func TestStore_AppendExchange(t *testing.T) {
	s := NewStore([]string{"yoda", "groot"})
	fixed := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	err := s.AppendExchange("groot",
		Entry{Speaker: UserSpeaker, Text: "hi"},
		Entry{Speaker: "Groot", Text: "I am Groot."})
	require.NoError(t, err)

	entries, err := s.Read("groot")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Speaker: UserSpeaker, Text: "hi", At: fixed},
		{Speaker: "Groot", Text: "I am Groot.", At: fixed},
	}, entries)
	assert.Equal(t, []string{"groot"}, s.Started())
	assert.Equal(t, 0, s.Len("yoda"))
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	s := NewStore([]string{"yoda"})
	require.NoError(t, s.Append("yoda", UserSpeaker, "hello"))

	entries, err := s.Read("yoda")
	require.NoError(t, err)
	entries[0].Text = "changed"

	again, err := s.Read("yoda")
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Text)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore([]string{"pikachu"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AppendExchange("pikachu",
				Entry{Speaker: UserSpeaker, Text: "hi"},
				Entry{Speaker: "Pikachu", Text: "Pika!"})
		}()
	}
	wg.Wait()

	entries, err := s.Read("pikachu")
	require.NoError(t, err)
	require.Len(t, entries, 100)
	for i := 0; i < len(entries); i += 2 {
		assert.Equal(t, UserSpeaker, entries[i].Speaker)
		assert.Equal(t, "Pikachu", entries[i+1].Speaker)
	}
}
