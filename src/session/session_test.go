package session

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/square-key-labs/voxline/src/audio"
	"github.com/square-key-labs/voxline/src/frames"
	"github.com/square-key-labs/voxline/src/services"
	"github.com/square-key-labs/voxline/src/tools"
	"github.com/square-key-labs/voxline/src/vad"
)

type fakeTranscriber struct {
	mu      sync.Mutex
	calls   [][]byte
	replies []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, wav)
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeDialogue struct {
	mu        sync.Mutex
	calls     [][]services.Message
	toolsSeen [][]services.Tool
	replies   []*services.Reply
}

func (f *fakeDialogue) Complete(ctx context.Context, messages []services.Message, tools []services.Tool) (*services.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	f.toolsSeen = append(f.toolsSeen, tools)
	if len(f.replies) == 0 {
		return &services.Reply{Content: "ok"}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeDialogue) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	// 3 chunks worth of fake audio; the test session converts it verbatim
	return bytes.Repeat([]byte{0xFF}, 1920), nil
}

func (f *fakeSynth) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}

type fakeSender struct {
	mu     sync.Mutex
	chunks [][]byte
	closed bool
	onSend func()
}

func (f *fakeSender) SendAudio(chunk []byte) error {
	f.mu.Lock()
	f.chunks = append(f.chunks, chunk)
	hook := f.onSend
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) chunkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testParams() Params {
	return Params{
		SampleRate:      8000,
		ChunkBytes:      640,
		ChunkInterval:   0, // no pacing in tests
		EnergyThreshold: 500,
		Segmenter: vad.Params{
			MinUtteranceBytes: 4000,
			MaxUtteranceBytes: 80000,
			SilenceToProcess:  1200 * time.Millisecond,
			TrailingSilence:   300 * time.Millisecond,
			Cooldown:          1500 * time.Millisecond,
		},
		UpstreamTimeout: 5 * time.Second,
	}
}

type testEnv struct {
	sess        *Session
	transcriber *fakeTranscriber
	dialogue    *fakeDialogue
	synth       *fakeSynth
	sender      *fakeSender
	clock       *fakeClock
}

func newTestEnv(transcripts ...string) *testEnv {
	env := &testEnv{
		transcriber: &fakeTranscriber{replies: transcripts},
		dialogue:    &fakeDialogue{},
		synth:       &fakeSynth{},
		sender:      &fakeSender{},
		clock:       &fakeClock{t: time.Unix(1000, 0)},
	}
	env.sess = New(testParams(), env.sender, env.transcriber, env.dialogue, env.synth, tools.NewExecutor())
	env.sess.now = env.clock.Now
	env.sess.convert = func(data []byte, sampleRate int) ([]byte, error) {
		return data, nil
	}
	return env
}

func speechChunk() []byte {
	return bytes.Repeat([]byte{audio.MulawEncode(8000)}, 160)
}

func silenceChunk() []byte {
	return bytes.Repeat([]byte{audio.MulawEncode(0)}, 160)
}

// utterance is a minimum-length audio buffer for driving runTurn directly.
func utterance() []byte {
	return bytes.Repeat([]byte{audio.MulawEncode(8000)}, 4000)
}

func TestGreetingOnStart(t *testing.T) {
	env := newTestEnv()
	env.sess.HandleFrame(frames.NewStartFrame("st-1", "ca-1", "+15550001111", "mulaw", 8000))
	env.sess.Wait()

	spoken := env.synth.spoken()
	if len(spoken) != 1 || spoken[0] != greetingText {
		t.Fatalf("spoken %v, want greeting", spoken)
	}
	if env.sender.chunkCount() == 0 {
		t.Fatal("no audio sent for greeting")
	}
	if env.sess.State() != Listening {
		t.Fatalf("state %s, want Listening", env.sess.State())
	}
	if env.sess.ID != "st-1" || env.sess.CallID != "ca-1" {
		t.Fatalf("ids not taken from start frame: %s %s", env.sess.ID, env.sess.CallID)
	}
}

// Scenario: 1.5s of speech then 1.3s of silence produces exactly one
// transcription call carrying the full utterance.
func TestSpeechThenSilenceTranscribesOnce(t *testing.T) {
	env := newTestEnv("what are your business hours")
	env.sess.HandleFrame(frames.NewStartFrame("st-1", "ca-1", "", "mulaw", 8000))
	env.sess.Wait()

	// move past the post-greeting cooldown
	env.clock.Advance(2 * time.Second)

	for i := 0; i < 75; i++ {
		env.sess.HandleFrame(frames.NewAudioFrame(speechChunk(), 8000))
		env.clock.Advance(20 * time.Millisecond)
	}
	for i := 0; i < 70; i++ {
		env.sess.HandleFrame(frames.NewAudioFrame(silenceChunk(), 8000))
		env.clock.Advance(20 * time.Millisecond)
	}
	env.sess.Wait()

	if got := env.transcriber.callCount(); got != 1 {
		t.Fatalf("transcriber called %d times, want 1", got)
	}
	// WAV payload: header + 2 bytes per mu-law sample, at least the speech
	env.transcriber.mu.Lock()
	wavLen := len(env.transcriber.calls[0])
	env.transcriber.mu.Unlock()
	if wavLen < 44+2*12000 {
		t.Fatalf("wav %d bytes, want >= %d", wavLen, 44+2*12000)
	}
}

// Scenario: a tool round appends the result and speaks the follow-up reply.
func TestToolRound(t *testing.T) {
	env := newTestEnv()
	env.dialogue.replies = []*services.Reply{
		{ToolCalls: []services.ToolCall{{
			ID:   "call-1",
			Type: "function",
			Function: services.ToolFunction{
				Name:      "business_hours",
				Arguments: "{}",
			},
		}}},
		{Content: "We're open 9 to 6 today."},
	}
	env.transcriber.replies = []string{"what are your business hours"}

	env.sess.runTurn(utterance())

	if got := env.dialogue.callCount(); got != 2 {
		t.Fatalf("dialogue called %d times, want 2", got)
	}
	// second call carries no tool definitions: one round per turn
	if len(env.dialogue.toolsSeen[0]) == 0 {
		t.Fatal("first call missing tool definitions")
	}
	if len(env.dialogue.toolsSeen[1]) != 0 {
		t.Fatal("follow-up call must not carry tools")
	}

	// tool result is in the conversation for the second call
	second := env.dialogue.calls[1]
	foundTool := false
	for _, m := range second {
		if m.Role == services.RoleTool && m.ToolCallID == "call-1" {
			foundTool = true
		}
	}
	if !foundTool {
		t.Fatal("tool result not appended to conversation")
	}

	spoken := env.synth.spoken()
	if len(spoken) != 1 || spoken[0] != "We're open 9 to 6 today." {
		t.Fatalf("spoken %v", spoken)
	}
}

// Scenario: "thank you" alone is an acknowledgement, never an exit.
func TestThankYouIsNotExit(t *testing.T) {
	env := newTestEnv("Thank you")
	env.dialogue.replies = []*services.Reply{
		{Content: "You're welcome! Is there anything else I can help with?"},
	}

	env.sess.runTurn(utterance())

	if env.sess.pendingGoodbye {
		t.Fatal("acknowledgement raised pending goodbye")
	}
	if env.sess.State() == AwaitingGoodbyeConfirmation {
		t.Fatal("state moved to goodbye confirmation")
	}
	if got := env.dialogue.callCount(); got != 1 {
		t.Fatalf("dialogue called %d times, want 1", got)
	}
}

// The sentinel is stripped, not honored, when the caller only acknowledged.
func TestSentinelIgnoredForAcknowledgement(t *testing.T) {
	env := newTestEnv("thanks")
	env.dialogue.replies = []*services.Reply{
		{Content: "You're welcome! [EXIT_INTENT_DETECTED]"},
	}

	env.sess.runTurn(utterance())

	if env.sess.pendingGoodbye {
		t.Fatal("sentinel honored for bare acknowledgement")
	}
	spoken := env.synth.spoken()
	if len(spoken) != 1 || spoken[0] != "You're welcome!" {
		t.Fatalf("spoken %v", spoken)
	}
}

// Scenario: exit phrase, then "no" closes the call after the closing message.
func TestGoodbyeConfirmedByNo(t *testing.T) {
	env := newTestEnv("I'm done")

	env.sess.runTurn(utterance())

	if !env.sess.pendingGoodbye {
		t.Fatal("exit phrase did not raise pending goodbye")
	}
	if env.sess.State() != AwaitingGoodbyeConfirmation {
		t.Fatalf("state %s, want AwaitingGoodbyeConfirmation", env.sess.State())
	}
	if env.dialogue.callCount() != 0 {
		t.Fatal("dialogue engine consulted for a phrase-matched exit")
	}

	env.transcriber.replies = []string{"no"}
	env.sess.runTurn(utterance())

	spoken := env.synth.spoken()
	if len(spoken) != 2 || spoken[0] != confirmPromptText || spoken[1] != closingText {
		t.Fatalf("spoken %v", spoken)
	}
	if env.sess.State() != Closing {
		t.Fatalf("state %s, want Closing", env.sess.State())
	}
	if !env.sender.isClosed() {
		t.Fatal("sender not closed")
	}
}

// Scenario: a follow-up question cancels the pending goodbye.
func TestGoodbyeCancelledByFollowUp(t *testing.T) {
	env := newTestEnv("I'm done", "actually what's your price")
	env.dialogue.replies = []*services.Reply{
		{Content: "Plans start at $9.99 per month."},
	}

	env.sess.runTurn(utterance())
	env.sess.runTurn(utterance())

	if env.sess.pendingGoodbye {
		t.Fatal("follow-up did not clear pending goodbye")
	}
	if env.sess.State() != Listening {
		t.Fatalf("state %s, want Listening", env.sess.State())
	}
	if env.dialogue.callCount() != 1 {
		t.Fatalf("dialogue called %d times, want 1", env.dialogue.callCount())
	}
	spoken := env.synth.spoken()
	if spoken[len(spoken)-1] != "Plans start at $9.99 per month." {
		t.Fatalf("spoken %v", spoken)
	}
}

// Garbage while pending goodbye also confirms the goodbye.
func TestGoodbyeConfirmedByGarbage(t *testing.T) {
	env := newTestEnv("okay bye", "um")

	env.sess.runTurn(utterance())
	env.sess.runTurn(utterance())

	if env.sess.State() != Closing {
		t.Fatalf("state %s, want Closing", env.sess.State())
	}
}

// Garbage transcripts outside the goodbye flow are dropped silently.
func TestGarbageDropsTurn(t *testing.T) {
	env := newTestEnv("you")

	env.sess.runTurn(utterance())

	if env.dialogue.callCount() != 0 {
		t.Fatal("dialogue consulted for garbage")
	}
	if len(env.synth.spoken()) != 0 {
		t.Fatal("garbage produced speech")
	}
	if env.sess.State() != Listening {
		t.Fatalf("state %s, want Listening", env.sess.State())
	}
}

func TestPlaybackInterruption(t *testing.T) {
	env := newTestEnv()
	env.sender.onSend = func() {
		env.sess.interrupted.Store(true)
	}

	// 10 chunks of audio; the interruption lands after the first send
	env.sess.stream(bytes.Repeat([]byte{0xFF}, 6400))

	if got := env.sender.chunkCount(); got != 1 {
		t.Fatalf("sent %d chunks after interruption, want 1", got)
	}
	if env.sess.speaking.Load() {
		t.Fatal("speaking flag still set")
	}
	if env.sess.interrupted.Load() {
		t.Fatal("interrupted flag not cleared after playback")
	}
}

func TestUtteranceDroppedWhileTurnInFlight(t *testing.T) {
	env := newTestEnv("hello there", "second")
	env.sess.processing.Store(true)

	// a complete utterance arriving while busy is discarded
	env.clock.Advance(2 * time.Second)
	for i := 0; i < 75; i++ {
		env.sess.HandleFrame(frames.NewAudioFrame(speechChunk(), 8000))
		env.clock.Advance(20 * time.Millisecond)
	}
	for i := 0; i < 70; i++ {
		env.sess.HandleFrame(frames.NewAudioFrame(silenceChunk(), 8000))
		env.clock.Advance(20 * time.Millisecond)
	}

	if env.transcriber.callCount() != 0 {
		t.Fatal("turn started while another was in flight")
	}
}

func TestCollaboratorFailureKeepsCallAlive(t *testing.T) {
	env := newTestEnv()
	env.transcriber.replies = nil // empty transcript path

	env.sess.runTurn(utterance())

	if env.sess.State() == Closing {
		t.Fatal("failed turn closed the call")
	}
	if env.sender.isClosed() {
		t.Fatal("sender closed on dropped turn")
	}
}

func TestStopFrameClosesSession(t *testing.T) {
	env := newTestEnv()
	env.sess.HandleFrame(frames.NewStopFrame("st-1"))
	env.sess.Wait()

	if env.sess.State() != Closing {
		t.Fatalf("state %s, want Closing", env.sess.State())
	}
	if !env.sender.isClosed() {
		t.Fatal("sender not closed on stop")
	}
}
