package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"parlor/src/composer"
	"parlor/src/decision"
	perrors "parlor/src/errors"
	"parlor/src/llm"
	"parlor/src/memory"
	"parlor/src/personality"
)

// Speaker labels for messages that do not come from a persona
const (
	AssistantSpeaker = "Assistant"
	UserSpeaker      = "You"
)

// User-facing message texts
const (
	MsgUnknownPersona = "Sorry, I don't recognize that character."
	MsgServiceFailure = "Something went wrong, please try again."
)

// decisionTemperature is the closest go-openai lets us get to 0; a literal
// zero is dropped from the request.
const decisionTemperature = math.SmallestNonzeroFloat32

// Message is one (speaker, text) pair emitted during a turn. Persona holds
// the key of the persona that spoke, empty for Assistant and You.
type Message struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Persona string `json:"persona,omitempty"`
}

// Recorder receives every completed turn, including the user's own line.
// Recording failures never fail the turn.
type Recorder interface {
	RecordTurn(ctx context.Context, sessionID string, messages []Message) error
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder journals every completed turn
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithContextWindow limits how many transcript entries are sent to the
// generation service. Zero sends the whole transcript.
func WithContextWindow(n int) Option {
	return func(s *Session) {
		s.responder.window = n
	}
}

// WithModels selects the generation and decision models. Empty values use
// the completer's default.
func WithModels(generation, decision string) Option {
	return func(s *Session) {
		s.responder.model = generation
		s.decisionModel = decision
	}
}

// WithPromptOptions controls the optional persona prompt layers
func WithPromptOptions(opts composer.Options) Option {
	return func(s *Session) {
		s.responder.prompt = opts
	}
}

// WithID overrides the generated session ID
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session is one conversation: the router state machine, the per-persona
// memory store it owns, and the chat history shown to the user. Turns are
// processed strictly one at a time.
type Session struct {
	id            string
	registry      *personality.Registry
	store         *memory.Store
	responder     *Responder
	completer     llm.Completer
	decisionModel string
	routerPrompt  string
	recorder      Recorder
	logger        *zap.Logger

	turns *semaphore.Weighted

	mu      sync.RWMutex
	active  *personality.Persona
	history []Message
}

// New creates an Unselected session over reg. It refuses to build a session
// without a registry or a completer.
func New(reg *personality.Registry, completer llm.Completer, opts ...Option) (*Session, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, perrors.ErrNoPersonalities
	}
	if completer == nil {
		return nil, &perrors.ValidationError{Field: "completer", Message: "a text generation backend is required"}
	}

	store := memory.NewStore(reg.Keys())
	s := &Session{
		id:           uuid.NewString(),
		registry:     reg,
		store:        store,
		completer:    completer,
		routerPrompt: composer.RouterPrompt(reg),
		logger:       zap.NewNop(),
		turns:        semaphore.NewWeighted(1),
		responder: &Responder{
			store:     store,
			completer: completer,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.responder.window < 0 {
		return nil, &perrors.ValidationError{Field: "memory.context_window", Value: s.responder.window, Message: "must not be negative"}
	}

	s.logger = s.logger.With(zap.String("session", s.id))
	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Registry returns the roster this session routes over
func (s *Session) Registry() *personality.Registry {
	return s.registry
}

// Active returns the active persona, or nil while Unselected
func (s *Session) Active() *personality.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// History returns every message of every completed turn, user lines included
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Transcript returns a copy of a persona's transcript
func (s *Session) Transcript(key string) ([]memory.Entry, error) {
	p, err := s.registry.Get(key)
	if err != nil {
		return nil, err
	}
	return s.store.Read(p.GetKey())
}

// TranscriptLengths returns the number of entries per persona key
func (s *Session) TranscriptLengths() map[string]int {
	return s.store.Counts()
}

// PromptMessage asks the user to pick a persona
func (s *Session) PromptMessage() string {
	return fmt.Sprintf("Who would you like to talk to? (%s)", s.registry.DisplayList())
}

// ProcessTurn routes one line of user text and returns the messages emitted
// for it, in order. Service failures are returned as errors matching
// errors.ErrServiceUnavailable and leave the session exactly as it was.
// If ctx ends while another turn is in flight, ctx.Err() is returned and
// nothing happens.
func (s *Session) ProcessTurn(ctx context.Context, text string) ([]Message, error) {
	if err := s.turns.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.turns.Release(1)

	active := s.Active()

	var (
		messages []Message
		next     = active
		err      error
	)
	if active == nil {
		messages, next, err = s.bootstrap(ctx, text)
	} else {
		messages, next, err = s.route(ctx, active, text)
	}
	if err != nil {
		s.logger.Warn("turn failed", zap.Error(err))
		return nil, err
	}

	turn := append([]Message{{Speaker: UserSpeaker, Text: text}}, messages...)

	s.mu.Lock()
	s.active = next
	s.history = append(s.history, turn...)
	s.mu.Unlock()

	s.record(ctx, turn)
	return messages, nil
}

// bootstrap picks the first persona whose key appears in text
func (s *Session) bootstrap(ctx context.Context, text string) ([]Message, *personality.Persona, error) {
	p, ok := s.registry.Match(text)
	if !ok {
		s.logger.Debug("no persona named, prompting")
		return []Message{s.assistant(s.PromptMessage())}, nil, nil
	}

	s.logger.Info("persona selected", zap.String("persona", p.GetKey()))
	return s.switchTo(ctx, p, text)
}

// route consults the decision service while a persona is active
func (s *Session) route(ctx context.Context, active *personality.Persona, text string) ([]Message, *personality.Persona, error) {
	raw, err := s.completer.Complete(ctx, llm.Request{
		Service:     llm.ServiceDecision,
		Model:       s.decisionModel,
		System:      s.routerPrompt,
		User:        composer.DecisionRequest(active.GetKey(), text),
		Temperature: decisionTemperature,
	})
	if err != nil {
		return nil, active, asServiceError(llm.ServiceDecision, s.decisionModel, err)
	}

	d := decision.Parse(raw)
	log := s.logger.With(zap.String("persona", active.GetKey()), zap.Stringer("decision", d.Kind))

	switch d.Kind {
	case decision.Stay:
		log.Debug("staying")
		reply, err := s.responder.Respond(ctx, active, text)
		if err != nil {
			return nil, active, err
		}
		return []Message{s.reply(active, reply)}, active, nil

	case decision.Switch:
		target, ok := s.registry.Lookup(d.Persona)
		if !ok {
			log.Info("switch to unregistered persona",
				zap.String("target", d.Persona),
				zap.Error(perrors.ErrUnknownPersona))
			return []Message{s.assistant(MsgUnknownPersona)}, active, nil
		}
		log.Info("switching", zap.String("target", target.GetKey()))
		return s.switchTo(ctx, target, text)

	case decision.Prompt:
		log.Debug("prompting")
		return []Message{s.assistant(s.PromptMessage())}, active, nil

	default:
		log.Warn("unparseable decision",
			zap.String("raw", d.Raw),
			zap.Error(perrors.ErrMalformedDecision))
		return []Message{s.assistant(s.PromptMessage())}, active, nil
	}
}

// switchTo announces p and lets it answer text. The caller commits the new
// active persona only if this succeeds.
func (s *Session) switchTo(ctx context.Context, p *personality.Persona, text string) ([]Message, *personality.Persona, error) {
	reply, err := s.responder.Respond(ctx, p, text)
	if err != nil {
		return nil, nil, err
	}
	return []Message{
		s.assistant(fmt.Sprintf("Switching to %s...", p.GetName())),
		s.reply(p, reply),
	}, p, nil
}

func (s *Session) assistant(text string) Message {
	return Message{Speaker: AssistantSpeaker, Text: text}
}

func (s *Session) reply(p *personality.Persona, text string) Message {
	return Message{Speaker: p.GetName(), Text: text, Persona: p.GetKey()}
}

func (s *Session) record(ctx context.Context, turn []Message) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordTurn(context.WithoutCancel(ctx), s.id, turn); err != nil {
		s.logger.Warn("failed to journal turn", zap.Error(err))
	}
}

// asServiceError makes sure err matches ErrServiceUnavailable
func asServiceError(service, model string, err error) error {
	var svcErr *perrors.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	return perrors.NewServiceError(service, model, 0, err)
}
