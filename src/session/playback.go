package session

import (
	"time"

	"github.com/square-key-labs/voxline/src/services"
)

// speak synthesizes text, converts it to the stream codec, and plays it to
// the caller in paced chunks. Returns once playback completes or is
// interrupted.
func (s *Session) speak(text string) error {
	mp3, err := s.synthesizer.Synthesize(s.ctx, text)
	if err != nil {
		return err
	}

	mulaw, err := s.convert(mp3, s.params.SampleRate)
	if err != nil {
		return &services.AudioConversionError{Cause: err}
	}

	s.stream(mulaw)
	return nil
}

// stream sends mu-law audio in fixed-size chunks paced at real time, checking
// the interruption flag between chunks. The segmenter's cooldown opens when
// playback ends so the bot does not hear its own tail as caller speech.
func (s *Session) stream(mulaw []byte) {
	s.setState(Speaking)
	s.interrupted.Store(false)
	s.speaking.Store(true)

	chunkBytes := s.params.ChunkBytes
	total := (len(mulaw) + chunkBytes - 1) / chunkBytes
	sent := 0

	// next-send-time scheduling keeps pacing accurate even when a write
	// takes longer than the interval
	next := s.now()
	for i := 0; i < len(mulaw); i += chunkBytes {
		if s.interrupted.Load() {
			s.log.Info("playback interrupted after %d/%d chunks", sent, total)
			break
		}
		if s.ctx.Err() != nil {
			break
		}

		end := i + chunkBytes
		if end > len(mulaw) {
			end = len(mulaw)
		}
		if err := s.sender.SendAudio(mulaw[i:end]); err != nil {
			s.log.Error("audio send failed: %v", err)
			break
		}
		sent++

		next = next.Add(s.params.ChunkInterval)
		if wait := next.Sub(s.now()); wait > 0 {
			select {
			case <-s.ctx.Done():
			case <-time.After(wait):
			}
		}
	}

	// cooldown opens before the speaking flag drops so the read loop never
	// touches the segmenter concurrently
	s.segmenter.NoteBotSpeechEnded(s.now())
	s.speaking.Store(false)
	if !s.interrupted.Load() {
		s.log.Debug("playback complete, %d chunks", sent)
	}
	s.interrupted.Store(false)
}
