package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edusync/voicekit/contextstore"
	"github.com/edusync/voicekit/events"
	"github.com/edusync/voicekit/logger"
	"github.com/edusync/voicekit/rag"
	"github.com/edusync/voicekit/stt"
	"github.com/edusync/voicekit/tts"
)

// Defaults.
const (
	// DefaultLanguage is the locale negotiated for STT/TTS.
	DefaultLanguage = "pt-BR"

	// DefaultMaxContextTurns bounds how many completed turns feed the
	// generation prompt, regardless of how long a session runs.
	DefaultMaxContextTurns = 3

	// DefaultMaxSessionHistory bounds how many ended sessions are retained
	// for read-only inspection.
	DefaultMaxSessionHistory = 10
)

// ResponseGenerator is the retrieval-confidence capability the pipeline
// invokes once per turn.
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, query, conversationContext string) (*rag.Response, error)
}

// Config wires the pipeline's collaborators and tuning knobs.
type Config struct {
	// Engine is required: it produces the grounded answer for each turn.
	Engine ResponseGenerator

	// STT is required for the audio path (StartListening/StopListening).
	STT stt.Service

	// TTS is required when synthesis is requested.
	TTS tts.Service

	// ContextStore mirrors completed exchanges as inspectable conversational
	// memory. Defaults to an in-memory store.
	ContextStore contextstore.Store

	// Bus receives lifecycle events. Defaults to a fresh bus.
	Bus *events.EventBus

	// Language is the locale hint for STT and TTS. Default "pt-BR".
	Language string

	// Voice selects the synthesis voice ("" = provider default).
	Voice string

	// AudioFormat selects the synthesis output format (zero value = provider
	// default).
	AudioFormat tts.AudioFormat

	// SpeechSpeed is the synthesis rate multiplier (0 = provider default).
	SpeechSpeed float64

	// SpeakResponses controls whether the audio path synthesizes answers.
	SpeakResponses bool

	// MaxContextTurns bounds the conversation window. Default 3.
	MaxContextTurns int

	// MaxTurnsPerSession refuses new turns beyond this count. 0 = unlimited.
	MaxTurnsPerSession int

	// SessionTimeout refuses new turns after this much idle time since the
	// last activity. 0 = disabled. Ending the session is left to the host.
	SessionTimeout time.Duration

	// MaxSessionHistory bounds the ended-session history. Default 10.
	MaxSessionHistory int
}

// Pipeline sequences one conversational turn end-to-end. One instance owns
// exactly one session and one in-flight turn at a time; concurrent sessions
// require independent instances.
type Pipeline struct {
	mu sync.Mutex

	state   State
	session *Session
	current *Turn
	history []*Session

	audioBuf     []byte
	lastActivity time.Time

	// epoch invalidates in-flight turns: Cancel bumps it, and any stage
	// returning afterwards discards its result instead of appending.
	epoch       uint64
	turnCancel  context.CancelFunc
	speakCancel context.CancelFunc

	stats   *Stats
	bus     *events.EventBus
	emitter *events.Emitter

	engine ResponseGenerator
	sttSvc stt.Service
	ttsSvc tts.Service
	store  contextstore.Store

	language          string
	voice             string
	audioFormat       tts.AudioFormat
	speechSpeed       float64
	speakResponses    bool
	maxContextTurns   int
	maxTurns          int
	sessionTimeout    time.Duration
	maxSessionHistory int
}

// New creates a pipeline from the given configuration.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Engine == nil {
		return nil, &PipelineError{
			Type:    ErrorTypeInit,
			Stage:   "general",
			Message: "response generator is required",
		}
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewEventBus()
	}
	if cfg.ContextStore == nil {
		cfg.ContextStore = contextstore.NewMemoryStore()
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.MaxContextTurns == 0 {
		cfg.MaxContextTurns = DefaultMaxContextTurns
	}
	if cfg.MaxSessionHistory == 0 {
		cfg.MaxSessionHistory = DefaultMaxSessionHistory
	}

	return &Pipeline{
		state:             StateIdle,
		stats:             NewStats(),
		bus:               cfg.Bus,
		engine:            cfg.Engine,
		sttSvc:            cfg.STT,
		ttsSvc:            cfg.TTS,
		store:             cfg.ContextStore,
		language:          cfg.Language,
		voice:             cfg.Voice,
		audioFormat:       cfg.AudioFormat,
		speechSpeed:       cfg.SpeechSpeed,
		speakResponses:    cfg.SpeakResponses,
		maxContextTurns:   cfg.MaxContextTurns,
		maxTurns:          cfg.MaxTurnsPerSession,
		sessionTimeout:    cfg.SessionTimeout,
		maxSessionHistory: cfg.MaxSessionHistory,
	}, nil
}

// Bus returns the event bus so hosts can subscribe to the lifecycle stream.
func (p *Pipeline) Bus() *events.EventBus {
	return p.bus
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentSession returns a read-only snapshot of the active session, or nil.
func (p *Pipeline) CurrentSession() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.snapshot()
}

// CurrentTurn returns a copy of the in-flight turn, or nil.
func (p *Pipeline) CurrentTurn() *Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	cp := *p.current
	return &cp
}

// History returns snapshots of ended sessions, oldest first.
func (p *Pipeline) History() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Session, len(p.history))
	for i, s := range p.history {
		out[i] = s.snapshot()
	}
	return out
}

// Stats returns a derived view of the pipeline's counters and timings.
func (p *Pipeline) Stats() Snapshot {
	return p.stats.Snapshot()
}

// ResetStats clears all counters and timings.
func (p *Pipeline) ResetStats() {
	p.stats.Reset()
}

// StartSession begins a new conversation session and returns its id.
func (p *Pipeline) StartSession(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.session != nil {
		p.mu.Unlock()
		return "", ErrSessionActive
	}

	contextID, err := p.store.CreateSession(ctx)
	if err != nil {
		p.mu.Unlock()
		return "", fmt.Errorf("failed to create context session: %w", err)
	}

	session := &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Language:  p.language,
		ContextID: contextID,
	}
	p.session = session
	p.emitter = events.NewEmitter(p.bus, session.ID)
	p.lastActivity = session.StartedAt
	p.stats.RecordSession()
	emitter := p.emitter
	p.mu.Unlock()

	logger.Info("session started", "session_id", session.ID, "language", session.Language)
	emitter.SessionStart(string(StateIdle), session.Language)
	return session.ID, nil
}

// EndSession closes the active session and returns its finalized snapshot.
// An in-flight turn is discarded as if cancelled.
func (p *Pipeline) EndSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return nil, ErrNoActiveSession
	}

	prev := p.cancelInFlightLocked()

	now := time.Now()
	session := p.session
	session.EndedAt = &now
	p.history = append(p.history, session)
	if len(p.history) > p.maxSessionHistory {
		p.history = p.history[len(p.history)-p.maxSessionHistory:]
	}

	emitter := p.emitter
	p.session = nil
	p.emitter = nil
	final := session.snapshot()
	p.mu.Unlock()

	if err := p.store.DeleteSession(ctx, session.ContextID); err != nil {
		logger.Warn("failed to delete context session", "error", err)
	}

	if prev != StateIdle {
		emitter.StateChange("", string(prev), string(StateIdle))
	}
	logger.Info("session ended", "session_id", session.ID, "turns", len(session.Turns))
	emitter.SessionEnd(string(StateIdle), session.Language, len(session.Turns))
	return final, nil
}

// StartListening opens a new audio turn. Only permitted while idle; a call
// in any other state is rejected rather than queued.
func (p *Pipeline) StartListening() error {
	p.mu.Lock()
	if err := p.turnAdmissionLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.sttSvc == nil {
		p.mu.Unlock()
		return &PipelineError{
			Type:    ErrorTypeInit,
			Stage:   "general",
			Message: "no transcription service configured",
		}
	}

	turn := p.newTurnLocked()
	p.current = turn
	p.audioBuf = nil
	p.state = StateListening
	emitter := p.emitter
	p.mu.Unlock()

	emitter.StateChange(turn.ID, string(StateIdle), string(StateListening))
	emitter.ListeningStart(turn.ID, string(StateListening))
	return nil
}

// FeedAudio appends externally captured audio to the current turn's buffer.
// Only permitted while listening.
func (p *Pipeline) FeedAudio(chunk []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateListening {
		return fmt.Errorf("%w: state is %s", ErrInvalidState, p.state)
	}
	p.audioBuf = append(p.audioBuf, chunk...)
	return nil
}

// StopListening closes audio capture and drives the turn through
// transcription, generation and (if configured) synthesis. It blocks until
// the turn completes, errors, or is cancelled; Interrupt and Cancel may be
// called from other goroutines while it runs.
func (p *Pipeline) StopListening(ctx context.Context) (*Turn, error) {
	p.mu.Lock()
	if p.state != StateListening || p.current == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: state is %s", ErrInvalidState, p.state)
	}
	if len(p.audioBuf) == 0 {
		// Nothing to transcribe; discard the turn.
		turn := p.current
		p.current = nil
		p.state = StateIdle
		emitter := p.emitter
		p.mu.Unlock()
		emitter.StateChange(turn.ID, string(StateListening), string(StateIdle))
		return nil, ErrNoAudioBuffered
	}

	turn := p.current
	audio := p.audioBuf
	p.audioBuf = nil
	epoch := p.epoch

	turnCtx, cancel := context.WithCancel(ctx)
	p.turnCancel = cancel
	p.state = StateProcessing
	emitter := p.emitter
	p.mu.Unlock()
	defer cancel()

	emitter.StateChange(turn.ID, string(StateListening), string(StateProcessing))

	// Transcription stage.
	sttStart := time.Now()
	result, err := p.sttSvc.Transcribe(turnCtx, audio, stt.TranscriptionConfig{
		Language: sttLanguage(p.language),
	})
	sttDuration := time.Since(sttStart)

	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return nil, ErrTurnCancelled
	}
	if err != nil {
		return nil, p.failTurnLocked(turn, "stt", err)
	}
	turn.Transcription = Transcription{
		Text:         result.Transcript,
		Confidence:   result.Confidence,
		Alternatives: result.Alternatives,
	}
	turn.Timestamps.TranscriptionComplete = time.Now()
	p.stats.RecordTranscription(sttDuration)
	p.mu.Unlock()

	emitter.ListeningEnd(turn.ID, string(StateProcessing), result.Transcript, result.Confidence, sttDuration)

	return p.generateAndComplete(turnCtx, epoch, turn, p.speakResponses)
}

// ProcessTextInput runs the same turn lifecycle for directly provided text,
// bypassing the listening/transcription phase. Returns the answer text.
func (p *Pipeline) ProcessTextInput(ctx context.Context, text string, speakResponse bool) (string, error) {
	p.mu.Lock()
	if err := p.turnAdmissionLocked(); err != nil {
		p.mu.Unlock()
		return "", err
	}

	turn := p.newTurnLocked()
	now := time.Now()
	turn.Transcription = Transcription{Text: text, Confidence: 1}
	turn.Timestamps.TranscriptionComplete = now
	p.current = turn
	epoch := p.epoch

	turnCtx, cancel := context.WithCancel(ctx)
	p.turnCancel = cancel
	p.state = StateProcessing
	emitter := p.emitter
	p.mu.Unlock()
	defer cancel()

	emitter.StateChange(turn.ID, string(StateIdle), string(StateProcessing))

	completed, err := p.generateAndComplete(turnCtx, epoch, turn, speakResponse)
	if err != nil {
		return "", err
	}
	return completed.AssistantResponse, nil
}

// Interrupt truncates in-progress speech playback. Only permitted while
// speaking. The turn's already-generated answer text is preserved; only the
// audio is cut.
func (p *Pipeline) Interrupt() error {
	p.mu.Lock()
	if p.state != StateSpeaking || p.current == nil {
		p.mu.Unlock()
		return fmt.Errorf("%w: interrupt requires speaking, state is %s", ErrInvalidState, p.state)
	}

	turn := p.current
	turn.WasInterrupted = true
	p.stats.RecordInterruption()
	if p.speakCancel != nil {
		p.speakCancel()
	}
	p.state = StateInterrupted
	emitter := p.emitter
	p.mu.Unlock()

	emitter.StateChange(turn.ID, string(StateSpeaking), string(StateInterrupted))
	emitter.Interruption(turn.ID, string(StateInterrupted))
	return nil
}

// Cancel discards any in-flight turn and buffered input and returns the
// pipeline to idle. Results of external calls still in flight are discarded
// when they resolve; no Turn is appended.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	if p.state == StateIdle {
		p.mu.Unlock()
		return
	}
	var turnID string
	if p.current != nil {
		turnID = p.current.ID
	}
	prev := p.cancelInFlightLocked()
	emitter := p.emitter
	p.mu.Unlock()

	emitter.StateChange(turnID, string(prev), string(StateIdle))
}

// cancelInFlightLocked bumps the epoch, cancels the turn context, drops the
// current turn and buffered audio, and resets to idle. Returns the previous
// state. Must be called with mu held.
func (p *Pipeline) cancelInFlightLocked() State {
	prev := p.state
	p.epoch++
	if p.turnCancel != nil {
		p.turnCancel()
		p.turnCancel = nil
	}
	p.speakCancel = nil
	p.current = nil
	p.audioBuf = nil
	p.state = StateIdle
	return prev
}

// turnAdmissionLocked validates that a new turn may begin. Must be called
// with mu held.
func (p *Pipeline) turnAdmissionLocked() error {
	if p.session == nil {
		return ErrNoActiveSession
	}
	if p.state != StateIdle {
		return fmt.Errorf("%w: state is %s", ErrInvalidState, p.state)
	}
	if p.maxTurns > 0 && len(p.session.Turns) >= p.maxTurns {
		return &PipelineError{
			Type:        ErrorTypeMaxTurns,
			Stage:       "general",
			Message:     fmt.Sprintf("session reached %d turns", p.maxTurns),
			Recoverable: false,
		}
	}
	if p.sessionTimeout > 0 && time.Since(p.lastActivity) > p.sessionTimeout {
		return &PipelineError{
			Type:        ErrorTypeSessionTimeout,
			Stage:       "general",
			Message:     "session idle past timeout",
			Recoverable: false,
		}
	}
	return nil
}

// newTurnLocked allocates the next turn record. Must be called with mu held.
func (p *Pipeline) newTurnLocked() *Turn {
	return &Turn{
		ID:         uuid.New().String(),
		TurnNumber: len(p.session.Turns) + 1,
		Timestamps: TurnTimestamps{Started: time.Now()},
	}
}

// generateAndComplete drives the generation, optional synthesis, and
// completion stages shared by the audio and text paths.
func (p *Pipeline) generateAndComplete(ctx context.Context, epoch uint64, turn *Turn, speak bool) (*Turn, error) {
	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return nil, ErrTurnCancelled
	}
	convContext := p.conversationContextLocked()
	emitter := p.emitter
	p.mu.Unlock()

	// Generation stage.
	emitter.ResponseGenerating(turn.ID, string(StateProcessing))
	ragStart := time.Now()
	resp, err := p.engine.GenerateResponse(ctx, turn.Transcription.Text, convContext)
	ragDuration := time.Since(ragStart)

	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return nil, ErrTurnCancelled
	}
	if err != nil {
		return nil, p.failTurnLocked(turn, "rag", err)
	}
	turn.AssistantResponse = resp.Answer
	turn.Sources = resp.Sources
	turn.Confidence = resp.Confidence
	turn.IsLowConfidence = resp.IsLowConfidence
	turn.Timestamps.ResponseGenerated = time.Now()
	p.stats.RecordRAG(ragDuration)
	p.mu.Unlock()

	emitter.ResponseReady(turn.ID, string(StateProcessing), &events.ResponseData{
		Answer:          resp.Answer,
		Confidence:      resp.Confidence,
		IsLowConfidence: resp.IsLowConfidence,
		SourceCount:     len(resp.Sources),
		Model:           resp.Model,
		Duration:        ragDuration,
	})

	// Synthesis stage (optional, caller-controlled per turn).
	if speak && p.ttsSvc != nil {
		if err := p.speakTurn(ctx, epoch, turn, emitter); err != nil {
			return nil, err
		}
	}

	return p.completeTurn(ctx, epoch, turn, emitter)
}

// speakTurn runs the synthesis stage with an interruptible sub-context.
func (p *Pipeline) speakTurn(ctx context.Context, epoch uint64, turn *Turn, emitter *events.Emitter) error {
	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return ErrTurnCancelled
	}
	speakCtx, cancel := context.WithCancel(ctx)
	p.speakCancel = cancel
	p.state = StateSpeaking
	p.mu.Unlock()
	defer cancel()

	emitter.StateChange(turn.ID, string(StateProcessing), string(StateSpeaking))
	emitter.SpeakingStart(turn.ID, string(StateSpeaking))

	ttsStart := time.Now()
	result, err := p.ttsSvc.Synthesize(speakCtx, turn.AssistantResponse, tts.SynthesisConfig{
		Voice:    p.voice,
		Format:   p.audioFormat,
		Speed:    p.speechSpeed,
		Language: p.language,
	})
	ttsDuration := time.Since(ttsStart)

	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return ErrTurnCancelled
	}
	p.speakCancel = nil

	// An interruption cancels speakCtx; the synthesis error that causes is
	// expected and the turn still completes with its answer text.
	if err != nil && !turn.WasInterrupted {
		return p.failTurnLocked(turn, "tts", err)
	}
	if err == nil {
		turn.AssistantAudio = result
	}
	p.stats.RecordSynthesis(ttsDuration)
	state := p.state
	p.mu.Unlock()

	data := &events.SpeakingData{Duration: ttsDuration}
	if turn.AssistantAudio != nil {
		data.AudioBytes = len(turn.AssistantAudio.Audio)
		data.DurationMs = turn.AssistantAudio.DurationMs
	}
	emitter.SpeakingEnd(turn.ID, string(state), data)
	return nil
}

// completeTurn stamps completion, appends the turn to the session, mirrors
// the exchange into the context store, and resets to idle.
func (p *Pipeline) completeTurn(ctx context.Context, epoch uint64, turn *Turn, emitter *events.Emitter) (*Turn, error) {
	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return nil, ErrTurnCancelled
	}

	now := time.Now()
	turn.Timestamps.ResponseComplete = now
	turn.TotalProcessingTimeMs = now.Sub(turn.Timestamps.Started).Milliseconds()

	p.session.Turns = append(p.session.Turns, turn)
	p.lastActivity = now
	contextID := p.session.ContextID

	prev := p.state
	p.state = StateIdle
	p.current = nil
	p.turnCancel = nil
	p.stats.RecordTurn(now.Sub(turn.Timestamps.Started))
	total := now.Sub(turn.Timestamps.Started)
	p.mu.Unlock()

	// Mirror the exchange into the context store. A store failure must not
	// fail an already completed turn.
	if err := p.store.AddMessage(ctx, contextID, contextstore.RoleUser, turn.Transcription.Text); err != nil {
		logger.Warn("failed to record user message", "error", err)
	} else if err := p.store.AddMessage(ctx, contextID, contextstore.RoleAssistant, turn.AssistantResponse); err != nil {
		logger.Warn("failed to record assistant message", "error", err)
	}

	emitter.StateChange(turn.ID, string(prev), string(StateIdle))
	cp := *turn
	emitter.TurnComplete(turn.ID, string(StateIdle), &cp, turn.TurnNumber, total)
	return turn, nil
}

// failTurnLocked converts a stage failure into a structured pipeline error,
// discards the in-flight turn, and forces error → idle. The turn is never
// appended to session history. Must be called with mu held; releases it.
func (p *Pipeline) failTurnLocked(turn *Turn, stage string, cause error) error {
	perr := newStageError(stage, cause)
	p.stats.RecordError(perr.Type)

	prev := p.state
	p.state = StateIdle
	p.current = nil
	p.turnCancel = nil
	p.speakCancel = nil
	p.audioBuf = nil
	emitter := p.emitter
	p.mu.Unlock()

	logger.Error("turn failed", "stage", stage, "turn_id", turn.ID, "error", cause)
	emitter.StateChange(turn.ID, string(prev), string(StateError))
	emitter.Error(turn.ID, string(StateError), stage, string(perr.Type), cause)
	emitter.StateChange(turn.ID, string(StateError), string(StateIdle))
	return perr
}

// conversationContextLocked formats the last maxContextTurns completed turns
// of the current session. Must be called with mu held.
func (p *Pipeline) conversationContextLocked() string {
	turns := p.session.Turns
	if len(turns) > p.maxContextTurns {
		turns = turns[len(turns)-p.maxContextTurns:]
	}
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Professor: ")
		b.WriteString(t.Transcription.Text)
		b.WriteString("\nAssistente: ")
		b.WriteString(t.AssistantResponse)
	}
	return b.String()
}

// sttLanguage reduces a locale like "pt-BR" to the two-letter hint Whisper
// expects.
func sttLanguage(locale string) string {
	if i := strings.IndexByte(locale, '-'); i > 0 {
		return locale[:i]
	}
	return locale
}
