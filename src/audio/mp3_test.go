package audio

import "testing"

func TestDecodeMP3RejectsGarbage(t *testing.T) {
	if _, err := DecodeMP3([]byte("definitely not an mp3 stream"), 8000); err == nil {
		t.Fatal("expected error for non-MP3 input")
	}
}

func TestDecodeMP3RejectsEmpty(t *testing.T) {
	if _, err := DecodeMP3(nil, 8000); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestMP3ToMulawPropagatesError(t *testing.T) {
	if _, err := MP3ToMulaw([]byte{0x00, 0x01}, 8000); err == nil {
		t.Fatal("expected error for truncated input")
	}
}
