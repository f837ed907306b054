package vad

import (
	"github.com/square-key-labs/voxline/src/audio"
)

// Detector classifies mu-law audio chunks as speech or silence by RMS energy
// over the decoded samples. Telephony background noise at 8 kHz sits well
// below the default threshold of 500.
type Detector struct {
	threshold float64
}

func NewDetector(threshold float64) *Detector {
	return &Detector{threshold: threshold}
}

// Energy returns the RMS energy of a mu-law chunk.
func (d *Detector) Energy(mulaw []byte) float64 {
	return audio.RMS(audio.MulawToPCM(mulaw))
}

// IsSpeech reports whether the chunk's energy exceeds the threshold.
func (d *Detector) IsSpeech(mulaw []byte) bool {
	return d.Energy(mulaw) > d.threshold
}

// Threshold returns the configured energy threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}
