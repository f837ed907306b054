package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/square-key-labs/voxline/src/audio"
	"github.com/square-key-labs/voxline/src/frames"
	"github.com/square-key-labs/voxline/src/intent"
	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/services"
	"github.com/square-key-labs/voxline/src/tools"
	"github.com/square-key-labs/voxline/src/vad"
)

// State is the call session's lifecycle position.
type State int32

const (
	Listening State = iota
	Processing
	Speaking
	AwaitingGoodbyeConfirmation
	Closing
)

func (s State) String() string {
	switch s {
	case Listening:
		return "Listening"
	case Processing:
		return "Processing"
	case Speaking:
		return "Speaking"
	case AwaitingGoodbyeConfirmation:
		return "AwaitingGoodbyeConfirmation"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}

const systemPrompt = `You are a friendly AI phone assistant for TechCorp on a voice call.

CAPABILITIES:
- You have access to a knowledge base with company info, pricing, policies, and FAQs
- You can look up order status if the customer provides an order ID
- You can schedule callbacks from human agents (sales, support, or billing)

RULES:
1. Keep responses brief (1-2 sentences max) - this is a phone call, not text.
2. Be natural and conversational. No bullet points or formatting.
3. Use the search_knowledge function when users ask about company info, pricing, hours, policies, etc.
4. Use lookup_order when they ask about an order (ask for order ID if not provided).
5. Use schedule_callback if they want to speak to a human or need help you can't provide.
6. If the user's message seems garbled or unclear, ask them to repeat.
7. Don't ask "how can I help" repeatedly.

EXIT DETECTION (IMPORTANT):
- ONLY respond with [EXIT_INTENT_DETECTED] when the user CLEARLY wants to END the call
- Examples that ARE exit intent: "bye", "goodbye", "I'm done", "that's all I needed", "nothing else thanks", "okay bye", "gotta go"
- Examples that are NOT exit intent: "thank you" (alone), "thanks", "okay", "got it" - these are just acknowledgments, NOT exits
- When user just says "thank you" after you answered, say "You're welcome! Is there anything else I can help with?"
- Only trigger exit when they explicitly indicate they want to leave`

const (
	greetingText      = "Hello! I'm your AI assistant. How can I help you today?"
	confirmPromptText = "Before I let you go, do you have any other questions?"
	closingText       = "Thank you for calling! Goodbye and have a great day!"
)

// Sender delivers outbound audio to the caller. Implemented by the
// transport's connection wrapper.
type Sender interface {
	SendAudio(chunk []byte) error
	Close() error
}

// Params bundles the session's tuning knobs.
type Params struct {
	SampleRate      int
	ChunkBytes      int
	ChunkInterval   time.Duration
	EnergyThreshold float64
	Segmenter       vad.Params
	UpstreamTimeout time.Duration
}

// Session runs one phone call: VAD, turn segmentation, the
// transcribe/dialogue/synthesize pipeline, and paced playback with
// barge-in interruption. The transport's read loop is the only caller of
// HandleFrame; at most one turn pipeline runs at a time.
type Session struct {
	ID     string
	CallID string
	From   string

	params      Params
	transcriber services.Transcriber
	dialogue    services.DialogueEngine
	synthesizer services.Synthesizer
	executor    *tools.Executor
	sender      Sender
	log         *logger.Logger

	detector  *vad.Detector
	segmenter *vad.Segmenter
	history   *services.History

	state       atomic.Int32
	speaking    atomic.Bool
	interrupted atomic.Bool
	processing  atomic.Bool

	// turn goroutine only; serialized by the processing guard
	pendingGoodbye bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnClose runs once when the session ends, before the sender closes.
	OnClose func(callID string)

	now     func() time.Time
	convert func(data []byte, sampleRate int) ([]byte, error)
}

// New builds a session around its collaborators. The session is inert until
// the transport feeds it a StartFrame.
func New(params Params, sender Sender, transcriber services.Transcriber,
	dialogue services.DialogueEngine, synthesizer services.Synthesizer,
	executor *tools.Executor) *Session {

	ctx, cancel := context.WithCancel(context.Background())
	detector := vad.NewDetector(params.EnergyThreshold)
	s := &Session{
		ID:          uuid.NewString(),
		params:      params,
		transcriber: transcriber,
		dialogue:    dialogue,
		synthesizer: synthesizer,
		executor:    executor,
		sender:      sender,
		detector:    detector,
		segmenter:   vad.NewSegmenter(params.Segmenter, detector),
		history:     services.NewHistory(systemPrompt),
		ctx:         ctx,
		cancel:      cancel,
		now:         time.Now,
		convert:     audio.MP3ToMulaw,
	}
	s.log = logger.WithPrefix("Session " + shortID(s.ID))
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	old := State(s.state.Swap(int32(st)))
	if old != st {
		s.log.Debug("state %s -> %s", old, st)
	}
}

// HandleFrame processes one inbound frame from the transport, in arrival
// order.
func (s *Session) HandleFrame(frame frames.Frame) {
	if s.State() == Closing {
		return
	}

	switch f := frame.(type) {
	case *frames.StartFrame:
		s.handleStart(f)
	case *frames.AudioFrame:
		s.handleAudio(f.Audio)
	case *frames.DTMFFrame:
		s.log.Info("DTMF digit: %s", f.Digit)
	case *frames.StopFrame:
		s.log.Info("stream stopped")
		s.Stop()
	}
}

func (s *Session) handleStart(f *frames.StartFrame) {
	if f.StreamID != "" {
		s.ID = f.StreamID
	}
	s.CallID = f.CallID
	s.From = f.From
	s.log = logger.WithPrefix("Session " + shortID(s.ID))
	s.log.Info("stream started, call %s from %s", s.CallID, s.From)

	// greet the caller through the normal speech path
	if s.processing.CompareAndSwap(false, true) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.processing.Store(false)
			if err := s.speak(greetingText); err != nil {
				s.log.Error("greeting failed: %v", err)
			}
			s.setState(Listening)
		}()
	}
}

func (s *Session) handleAudio(chunk []byte) {
	now := s.now()

	if s.speaking.Load() {
		// barge-in: caller speech during playback interrupts it
		if s.detector.IsSpeech(chunk) {
			if s.interrupted.CompareAndSwap(false, true) {
				s.log.Info("caller interruption detected")
			}
		}
		return
	}

	utterance, complete := s.segmenter.Feed(chunk, now)
	if !complete {
		return
	}

	if !s.processing.CompareAndSwap(false, true) {
		// a turn is already in flight; this flush is stale
		s.log.Debug("dropping %d-byte utterance, turn in progress", len(utterance))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.processing.Store(false)
		s.runTurn(utterance)
	}()
}

// runTurn drives one caller utterance through the full pipeline. Any
// collaborator failure drops the turn and returns the session to Listening;
// the call itself survives.
func (s *Session) runTurn(utterance []byte) {
	s.setState(Processing)
	defer func() {
		if st := s.State(); st == Processing || st == Speaking {
			s.setState(Listening)
		}
	}()

	ctx, cancelTurn := context.WithTimeout(s.ctx, s.params.UpstreamTimeout)
	defer cancelTurn()

	wav := audio.MulawToWAV(utterance, s.params.SampleRate)
	s.log.Debug("transcribing %d bytes of audio", len(utterance))

	transcript, err := s.transcriber.Transcribe(ctx, wav)
	if err != nil {
		s.log.Error("transcription failed: %v", err)
		return
	}

	clean := intent.Clean(transcript)
	garbage := intent.IsGarbage(clean)

	if s.pendingGoodbye {
		if intent.IsNegativeConfirmation(clean) || garbage {
			s.log.Info("caller confirmed goodbye: %q", transcript)
			s.finishCall()
			return
		}
		// follow-up question: cancel the goodbye and answer it
		s.log.Info("caller has a follow-up: %q", transcript)
		s.pendingGoodbye = false
	}

	if garbage {
		s.log.Debug("filtered noise: %q", transcript)
		return
	}

	if intent.IsExit(clean) {
		s.log.Info("exit phrase detected: %q", transcript)
		s.beginGoodbye()
		return
	}

	s.log.Info("caller: %s", transcript)
	s.history.AddUser(transcript)

	reply, err := s.dialogue.Complete(ctx, s.history.Messages(), tools.Definitions())
	if err != nil {
		s.log.Error("dialogue failed: %v", err)
		return
	}

	content := reply.Content
	if len(reply.ToolCalls) > 0 {
		content, err = s.runToolRound(ctx, reply.ToolCalls)
		if err != nil {
			s.log.Error("tool round failed: %v", err)
			return
		}
	}

	if intent.HasExitSentinel(content) {
		if intent.IsAcknowledgement(clean) {
			// the model over-triggered on a bare acknowledgement
			s.log.Debug("ignoring exit sentinel for acknowledgement %q", clean)
			content = intent.StripExitSentinel(content)
		} else {
			s.log.Info("dialogue engine detected exit intent")
			s.beginGoodbye()
			return
		}
	}

	if content == "" {
		s.log.Warn("empty reply, dropping turn")
		return
	}

	s.history.AddAssistant(content)
	s.log.Info("bot: %s", content)

	if err := s.speak(content); err != nil {
		s.log.Error("reply playback failed: %v", err)
	}
}

// runToolRound executes requested tools and fetches the follow-up reply.
// One round per turn; the follow-up request carries no tool definitions so
// the engine must answer in text.
func (s *Session) runToolRound(ctx context.Context, calls []services.ToolCall) (string, error) {
	s.history.AddAssistantToolCalls(calls)
	for _, call := range calls {
		s.log.Info("tool call: %s(%s)", call.Function.Name, call.Function.Arguments)
		result := s.executor.Execute(call.Function.Name, call.Function.Arguments)
		s.history.AddToolResult(call.ID, result)
	}

	final, err := s.dialogue.Complete(ctx, s.history.Messages(), nil)
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

// beginGoodbye asks the confirmation question and waits for the caller's
// answer in AwaitingGoodbyeConfirmation.
func (s *Session) beginGoodbye() {
	s.pendingGoodbye = true
	if err := s.speak(confirmPromptText); err != nil {
		s.log.Error("goodbye prompt failed: %v", err)
	}
	s.setState(AwaitingGoodbyeConfirmation)
}

// finishCall speaks the closing message and ends the session.
func (s *Session) finishCall() {
	if err := s.speak(closingText); err != nil {
		s.log.Error("closing message failed: %v", err)
	}
	s.Stop()
}

// Stop ends the session: state goes to Closing, in-flight upstream calls are
// cancelled, and the sender is closed.
func (s *Session) Stop() {
	if State(s.state.Swap(int32(Closing))) == Closing {
		return
	}
	s.log.Info("session closing")
	if s.OnClose != nil {
		s.OnClose(s.CallID)
	}
	s.cancel()
	if err := s.sender.Close(); err != nil {
		s.log.Debug("sender close: %v", err)
	}
}

// Wait blocks until any in-flight turn goroutine has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
