package audio

import (
	"bytes"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream to mono PCM at the requested sample rate.
// go-mp3 always yields 16-bit stereo at the file's native rate; we downmix
// and resample here so callers only ever see telephony-ready samples.
func DecodeMP3(data []byte, targetRate int) ([]int16, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}
	// stereo int16 frames are 4 bytes; drop a truncated tail
	raw = raw[:len(raw)/4*4]
	if len(raw) == 0 {
		return nil, fmt.Errorf("mp3 stream contained no audio")
	}

	stereo := BytesToPCM(raw)
	mono := DownmixStereo(stereo)
	return Resample(mono, dec.SampleRate(), targetRate), nil
}

// MP3ToMulaw converts synthesized MP3 audio into mu-law bytes at the stream
// rate. This is the full outbound conversion path for TTS output.
func MP3ToMulaw(data []byte, targetRate int) ([]byte, error) {
	pcm, err := DecodeMP3(data, targetRate)
	if err != nil {
		return nil, err
	}
	return PCMToMulaw(pcm), nil
}
