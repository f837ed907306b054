package audio

import "math"

// Resample converts PCM samples between sample rates using linear
// interpolation. Good enough for 8 kHz telephony; callers needing fidelity
// above narrowband should filter first.
func Resample(pcm []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(pcm) == 0 {
		out := make([]int16, len(pcm))
		copy(out, pcm)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(pcm)) / ratio)
	if outLen == 0 {
		return []int16{}
	}

	out := make([]int16, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(pcm)-1 {
			out[i] = pcm[len(pcm)-1]
			continue
		}
		frac := pos - float64(idx)
		s := float64(pcm[idx])*(1-frac) + float64(pcm[idx+1])*frac
		out[i] = int16(s)
	}
	return out
}

// DownmixStereo averages interleaved stereo samples into mono.
func DownmixStereo(pcm []int16) []int16 {
	mono := make([]int16, len(pcm)/2)
	for i := range mono {
		mono[i] = int16((int32(pcm[i*2]) + int32(pcm[i*2+1])) / 2)
	}
	return mono
}

// RMS computes the root-mean-square energy of PCM samples. Empty input
// yields 0.
func RMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
