package audio

import (
	"math"
	"testing"
)

func TestResampleSameRate(t *testing.T) {
	in := []int16{1, 2, 3, 4}
	out := Resample(in, 8000, 8000)
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	out[0] = 99
	if in[0] == 99 {
		t.Fatal("same-rate resample must copy, not alias")
	}
}

func TestResampleDownLength(t *testing.T) {
	in := make([]int16, 44100)
	out := Resample(in, 44100, 8000)
	if len(out) != 8000 {
		t.Fatalf("length %d, want 8000", len(out))
	}
}

func TestResampleUpLength(t *testing.T) {
	in := make([]int16, 8000)
	out := Resample(in, 8000, 16000)
	if len(out) != 16000 {
		t.Fatalf("length %d, want 16000", len(out))
	}
}

func TestResampleEmpty(t *testing.T) {
	if out := Resample(nil, 44100, 8000); len(out) != 0 {
		t.Fatalf("expected empty output, got %d samples", len(out))
	}
}

func TestResamplePreservesDC(t *testing.T) {
	in := make([]int16, 1000)
	for i := range in {
		in[i] = 1000
	}
	for _, s := range Resample(in, 16000, 8000) {
		if s != 1000 {
			t.Fatalf("DC level not preserved: got %d", s)
		}
	}
}

func TestDownmixStereo(t *testing.T) {
	stereo := []int16{100, 200, -100, -200, 300, 300}
	mono := DownmixStereo(stereo)
	want := []int16{150, -150, 300}
	if len(mono) != len(want) {
		t.Fatalf("length %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, mono[i], want[i])
		}
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %f, want 0", got)
	}
	if got := RMS([]int16{0, 0, 0}); got != 0 {
		t.Fatalf("RMS(silence) = %f, want 0", got)
	}
	got := RMS([]int16{1000, -1000, 1000, -1000})
	if math.Abs(got-1000) > 0.001 {
		t.Fatalf("RMS(square wave) = %f, want 1000", got)
	}
}
