package vad

import (
	"time"
)

// SegmenterState tracks where the segmenter is within a caller turn.
type SegmenterState int

const (
	// Idle: not collecting audio.
	Idle SegmenterState = iota
	// Collecting: caller is speaking, buffer is growing.
	Collecting
	// TrailingSilence: short silence inside an utterance, kept for phoneme
	// continuity until the silence-to-process threshold passes.
	TrailingSilence
)

func (s SegmenterState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Collecting:
		return "Collecting"
	case TrailingSilence:
		return "TrailingSilence"
	default:
		return "Unknown"
	}
}

// Params holds the segmenter's timing and size thresholds. Zero values are
// not usable; callers populate from config.
type Params struct {
	MinUtteranceBytes int
	MaxUtteranceBytes int
	SilenceToProcess  time.Duration
	TrailingSilence   time.Duration
	Cooldown          time.Duration
}

// Segmenter accumulates mu-law audio while the detector reports speech and
// decides when an utterance is complete. Not safe for concurrent use; the
// session's read loop is its only caller.
type Segmenter struct {
	params   Params
	detector *Detector

	state         SegmenterState
	buf           []byte
	lastSpeechAt  time.Time
	cooldownUntil time.Time
}

func NewSegmenter(params Params, detector *Detector) *Segmenter {
	return &Segmenter{params: params, detector: detector, state: Idle}
}

// Feed processes one inbound audio chunk. It returns a completed utterance
// and true when the turn is done; otherwise nil and false. The returned
// buffer is owned by the caller; the segmenter resets to Idle on every flush.
func (s *Segmenter) Feed(chunk []byte, now time.Time) ([]byte, bool) {
	speech := s.detector.IsSpeech(chunk)

	// Cooldown after bot playback swallows low-energy echo. Speech above the
	// threshold is a genuine interruption and passes through.
	if now.Before(s.cooldownUntil) && !speech {
		return nil, false
	}

	if speech {
		s.buf = append(s.buf, chunk...)
		s.lastSpeechAt = now
		s.state = Collecting
		return s.maybeForceFlush()
	}

	switch s.state {
	case Idle:
		return nil, false
	case Collecting, TrailingSilence:
		gap := now.Sub(s.lastSpeechAt)
		if gap < s.params.TrailingSilence {
			// keep a little silence so trailing phonemes survive
			s.buf = append(s.buf, chunk...)
		}
		s.state = TrailingSilence
		if gap >= s.params.SilenceToProcess {
			return s.flush()
		}
		return s.maybeForceFlush()
	}
	return nil, false
}

func (s *Segmenter) maybeForceFlush() ([]byte, bool) {
	if len(s.buf) >= s.params.MaxUtteranceBytes {
		return s.flush()
	}
	return nil, false
}

// flush hands off the buffer when it is long enough, otherwise discards it.
// Either way the segmenter is Idle afterwards.
func (s *Segmenter) flush() ([]byte, bool) {
	buf := s.buf
	s.buf = nil
	s.state = Idle
	if len(buf) < s.params.MinUtteranceBytes {
		return nil, false
	}
	return buf, true
}

// NoteBotSpeechEnded records the end of bot playback. Any partial buffer is
// dropped (it is almost certainly echo) and the cooldown window opens.
func (s *Segmenter) NoteBotSpeechEnded(now time.Time) {
	s.buf = nil
	s.state = Idle
	s.cooldownUntil = now.Add(s.params.Cooldown)
}

// Reset drops all buffered audio and returns to Idle.
func (s *Segmenter) Reset() {
	s.buf = nil
	s.state = Idle
}

// State returns the current segmenter state.
func (s *Segmenter) State() SegmenterState { return s.state }

// Buffered returns the number of bytes currently collected.
func (s *Segmenter) Buffered() int { return len(s.buf) }
