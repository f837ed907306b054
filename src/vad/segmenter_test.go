package vad

import (
	"bytes"
	"testing"
	"time"

	"github.com/square-key-labs/voxline/src/audio"
)

func testParams() Params {
	return Params{
		MinUtteranceBytes: 4000,
		MaxUtteranceBytes: 80000,
		SilenceToProcess:  1200 * time.Millisecond,
		TrailingSilence:   300 * time.Millisecond,
		Cooldown:          1500 * time.Millisecond,
	}
}

// speechChunk is 160 bytes (20ms at 8kHz) of loud audio.
func speechChunk() []byte {
	return bytes.Repeat([]byte{audio.MulawEncode(8000)}, 160)
}

// silenceChunk is 160 bytes of mu-law zero.
func silenceChunk() []byte {
	return bytes.Repeat([]byte{audio.MulawEncode(0)}, 160)
}

func TestDetectorClassifies(t *testing.T) {
	d := NewDetector(500)
	if !d.IsSpeech(speechChunk()) {
		t.Fatal("loud chunk not classified as speech")
	}
	if d.IsSpeech(silenceChunk()) {
		t.Fatal("silence classified as speech")
	}
}

// feedSpan feeds chunks at 20ms spacing starting at start, returning the
// last flush result and the time after the final chunk.
func feedSpan(s *Segmenter, chunk []byte, n int, start time.Time) ([]byte, bool, time.Time) {
	now := start
	var out []byte
	var flushed bool
	for i := 0; i < n; i++ {
		out, flushed = s.Feed(chunk, now)
		now = now.Add(20 * time.Millisecond)
	}
	return out, flushed, now
}

func TestShortSpeechNeverFlushes(t *testing.T) {
	s := NewSegmenter(testParams(), NewDetector(500))
	start := time.Unix(1000, 0)

	// 10 chunks = 1600 bytes, below the 4000-byte minimum
	_, _, now := feedSpan(s, speechChunk(), 10, start)

	// arbitrarily long silence afterwards
	for i := 0; i < 500; i++ {
		if out, flushed := s.Feed(silenceChunk(), now); flushed {
			t.Fatalf("flush of %d bytes below minimum", len(out))
		}
		now = now.Add(20 * time.Millisecond)
	}
	if s.State() != Idle {
		t.Fatalf("state %s, want Idle after discard", s.State())
	}
}

func TestSilenceFlushExactlyOnce(t *testing.T) {
	s := NewSegmenter(testParams(), NewDetector(500))
	start := time.Unix(1000, 0)

	// 1.5s of speech: 75 chunks = 12000 bytes
	_, _, now := feedSpan(s, speechChunk(), 75, start)

	flushes := 0
	var utterance []byte
	for i := 0; i < 200; i++ {
		out, flushed := s.Feed(silenceChunk(), now)
		if flushed {
			flushes++
			utterance = out
		}
		now = now.Add(20 * time.Millisecond)
	}

	if flushes != 1 {
		t.Fatalf("got %d flushes, want exactly 1", flushes)
	}
	// the utterance holds all speech plus up to 300ms of trailing silence
	if len(utterance) < 12000 {
		t.Fatalf("utterance %d bytes, want >= 12000", len(utterance))
	}
	if len(utterance) > 12000+15*160 {
		t.Fatalf("utterance %d bytes, too much trailing silence", len(utterance))
	}
	if s.Buffered() != 0 {
		t.Fatalf("buffer not empty after flush: %d bytes", s.Buffered())
	}
}

func TestTrailingSilenceWindow(t *testing.T) {
	s := NewSegmenter(testParams(), NewDetector(500))
	start := time.Unix(1000, 0)

	_, _, now := feedSpan(s, speechChunk(), 30, start)
	collected := s.Buffered()

	// first silence chunks inside the 300ms window are appended
	s.Feed(silenceChunk(), now)
	if s.Buffered() != collected+160 {
		t.Fatalf("silence inside window not appended: %d", s.Buffered())
	}

	// a chunk past the window is not appended
	s.Feed(silenceChunk(), now.Add(400*time.Millisecond))
	if s.Buffered() != collected+160 {
		t.Fatalf("silence beyond window appended: %d", s.Buffered())
	}
}

func TestForceFlushAtCeiling(t *testing.T) {
	s := NewSegmenter(testParams(), NewDetector(500))
	now := time.Unix(1000, 0)

	flushes := 0
	var flushedLen int
	for i := 0; i < 600; i++ {
		out, flushed := s.Feed(speechChunk(), now)
		if flushed {
			flushes++
			flushedLen = len(out)
		}
		now = now.Add(20 * time.Millisecond)
		if s.Buffered() > 80000 {
			t.Fatalf("buffer exceeded ceiling: %d", s.Buffered())
		}
	}
	if flushes == 0 {
		t.Fatal("no force flush during continuous speech")
	}
	if flushedLen < 80000 {
		t.Fatalf("force flush at %d bytes, want >= 80000", flushedLen)
	}
}

func TestCooldownDiscardsSilenceButPassesSpeech(t *testing.T) {
	s := NewSegmenter(testParams(), NewDetector(500))
	now := time.Unix(1000, 0)

	s.NoteBotSpeechEnded(now)

	// silence during cooldown is discarded
	s.Feed(silenceChunk(), now.Add(500*time.Millisecond))
	if s.Buffered() != 0 {
		t.Fatal("silence buffered during cooldown")
	}

	// genuine speech during cooldown passes through
	s.Feed(speechChunk(), now.Add(600*time.Millisecond))
	if s.Buffered() != 160 {
		t.Fatalf("interruption speech not buffered: %d", s.Buffered())
	}

	// after the cooldown, silence is handled normally again
	s.Reset()
	s.Feed(speechChunk(), now.Add(2*time.Second))
	if s.State() != Collecting {
		t.Fatalf("state %s, want Collecting", s.State())
	}
}

func TestBotSpeechEndedDropsPartialBuffer(t *testing.T) {
	s := NewSegmenter(testParams(), NewDetector(500))
	now := time.Unix(1000, 0)

	feedSpan(s, speechChunk(), 20, now)
	if s.Buffered() == 0 {
		t.Fatal("expected buffered speech")
	}
	s.NoteBotSpeechEnded(now.Add(time.Second))
	if s.Buffered() != 0 || s.State() != Idle {
		t.Fatal("buffer survived bot playback")
	}
}
