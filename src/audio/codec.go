package audio

import (
	"encoding/binary"
	"fmt"
)

// G.711 mu-law companding constants.
const (
	mulawBias = 0x84
	mulawClip = 32635
)

var mulawDecodeTable = [256]int16{
	-32124, -31100, -30076, -29052, -28028, -27004, -25980, -24956,
	-23932, -22908, -21884, -20860, -19836, -18812, -17788, -16764,
	-15996, -15484, -14972, -14460, -13948, -13436, -12924, -12412,
	-11900, -11388, -10876, -10364, -9852, -9340, -8828, -8316,
	-7932, -7676, -7420, -7164, -6908, -6652, -6396, -6140,
	-5884, -5628, -5372, -5116, -4860, -4604, -4348, -4092,
	-3900, -3772, -3644, -3516, -3388, -3260, -3132, -3004,
	-2876, -2748, -2620, -2492, -2364, -2236, -2108, -1980,
	-1884, -1820, -1756, -1692, -1628, -1564, -1500, -1436,
	-1372, -1308, -1244, -1180, -1116, -1052, -988, -924,
	-876, -844, -812, -780, -748, -716, -684, -652,
	-620, -588, -556, -524, -492, -460, -428, -396,
	-372, -356, -340, -324, -308, -292, -276, -260,
	-244, -228, -212, -196, -180, -164, -148, -132,
	-120, -112, -104, -96, -88, -80, -72, -64,
	-56, -48, -40, -32, -24, -16, -8, 0,
	32124, 31100, 30076, 29052, 28028, 27004, 25980, 24956,
	23932, 22908, 21884, 20860, 19836, 18812, 17788, 16764,
	15996, 15484, 14972, 14460, 13948, 13436, 12924, 12412,
	11900, 11388, 10876, 10364, 9852, 9340, 8828, 8316,
	7932, 7676, 7420, 7164, 6908, 6652, 6396, 6140,
	5884, 5628, 5372, 5116, 4860, 4604, 4348, 4092,
	3900, 3772, 3644, 3516, 3388, 3260, 3132, 3004,
	2876, 2748, 2620, 2492, 2364, 2236, 2108, 1980,
	1884, 1820, 1756, 1692, 1628, 1564, 1500, 1436,
	1372, 1308, 1244, 1180, 1116, 1052, 988, 924,
	876, 844, 812, 780, 748, 716, 684, 652,
	620, 588, 556, 524, 492, 460, 428, 396,
	372, 356, 340, 324, 308, 292, 276, 260,
	244, 228, 212, 196, 180, 164, 148, 132,
	120, 112, 104, 96, 88, 80, 72, 64,
	56, 48, 40, 32, 24, 16, 8, 0,
}

// MulawDecode converts a single mu-law byte to a linear PCM sample.
func MulawDecode(b byte) int16 {
	return mulawDecodeTable[b]
}

// MulawEncode converts a linear PCM sample to a mu-law byte.
func MulawEncode(pcm int16) byte {
	// widen before negating so -32768 cannot overflow
	sample := int32(pcm)
	sign := uint8(0)
	if sample < 0 {
		sign = 0x80
		sample = -sample
	}

	if sample > mulawClip {
		sample = mulawClip
	}
	biased := sample + mulawBias

	// segment boundaries per G.711: segment n covers biased magnitudes up to
	// (0x100 << n) - 1, mantissa taken from the bits below the segment edge
	var exponent uint8
	for exponent = 0; exponent < 7; exponent++ {
		if biased <= (0xFF << exponent) {
			break
		}
	}
	mantissa := uint8((biased >> (exponent + 3)) & 0x0F)

	// mu-law inverts all bits on the wire
	return ^(sign | (exponent << 4) | mantissa)
}

// MulawToPCM converts mu-law audio to linear PCM samples.
func MulawToPCM(mulaw []byte) []int16 {
	pcm := make([]int16, len(mulaw))
	for i, b := range mulaw {
		pcm[i] = MulawDecode(b)
	}
	return pcm
}

// PCMToMulaw converts linear PCM samples to mu-law audio.
func PCMToMulaw(pcm []int16) []byte {
	mulaw := make([]byte, len(pcm))
	for i, s := range pcm {
		mulaw[i] = MulawEncode(s)
	}
	return mulaw
}

// BytesToPCM converts little-endian 16-bit audio bytes to samples.
// An odd trailing byte is dropped rather than treated as an error; telephony
// providers occasionally truncate the final frame.
func BytesToPCM(data []byte) []int16 {
	n := len(data) / 2
	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return pcm
}

// PCMToBytes converts samples to little-endian 16-bit audio bytes.
func PCMToBytes(pcm []int16) []byte {
	data := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// A-law companding, kept for carriers that negotiate PCMA instead of PCMU.
const alawClip = 32767

var alawDecodeTable = [256]int16{
	-5504, -5248, -6016, -5760, -4480, -4224, -4992, -4736,
	-7552, -7296, -8064, -7808, -6528, -6272, -7040, -6784,
	-2752, -2624, -3008, -2880, -2240, -2112, -2496, -2368,
	-3776, -3648, -4032, -3904, -3264, -3136, -3520, -3392,
	-22016, -20992, -24064, -23040, -17920, -16896, -19968, -18944,
	-30208, -29184, -32256, -31232, -26112, -25088, -28160, -27136,
	-11008, -10496, -12032, -11520, -8960, -8448, -9984, -9472,
	-15104, -14592, -16128, -15616, -13056, -12544, -14080, -13568,
	-344, -328, -376, -360, -280, -264, -312, -296,
	-472, -456, -504, -488, -408, -392, -440, -424,
	-88, -72, -120, -104, -24, -8, -56, -40,
	-216, -200, -248, -232, -152, -136, -184, -168,
	-1376, -1312, -1504, -1440, -1120, -1056, -1248, -1184,
	-1888, -1824, -2016, -1952, -1632, -1568, -1760, -1696,
	-688, -656, -752, -720, -560, -528, -624, -592,
	-944, -912, -1008, -976, -816, -784, -880, -848,
	5504, 5248, 6016, 5760, 4480, 4224, 4992, 4736,
	7552, 7296, 8064, 7808, 6528, 6272, 7040, 6784,
	2752, 2624, 3008, 2880, 2240, 2112, 2496, 2368,
	3776, 3648, 4032, 3904, 3264, 3136, 3520, 3392,
	22016, 20992, 24064, 23040, 17920, 16896, 19968, 18944,
	30208, 29184, 32256, 31232, 26112, 25088, 28160, 27136,
	11008, 10496, 12032, 11520, 8960, 8448, 9984, 9472,
	15104, 14592, 16128, 15616, 13056, 12544, 14080, 13568,
	344, 328, 376, 360, 280, 264, 312, 296,
	472, 456, 504, 488, 408, 392, 440, 424,
	88, 72, 120, 104, 24, 8, 56, 40,
	216, 200, 248, 232, 152, 136, 184, 168,
	1376, 1312, 1504, 1440, 1120, 1056, 1248, 1184,
	1888, 1824, 2016, 1952, 1632, 1568, 1760, 1696,
	688, 656, 752, 720, 560, 528, 624, 592,
	944, 912, 1008, 976, 816, 784, 880, 848,
}

// AlawDecode converts a single A-law byte to a linear PCM sample.
func AlawDecode(b byte) int16 {
	return alawDecodeTable[b]
}

// AlawEncode converts a linear PCM sample to an A-law byte.
func AlawEncode(pcm int16) byte {
	sample := int32(pcm)
	sign := uint8(0x80)
	if sample < 0 {
		sign = 0
		sample = -sample - 1
	}
	if sample > alawClip {
		sample = alawClip
	}

	var compressed uint8
	if sample >= 256 {
		exponent := uint8(7)
		for mask := int32(0x4000); (sample & mask) == 0; mask >>= 1 {
			exponent--
		}
		mantissa := uint8((sample >> (exponent + 3)) & 0x0F)
		compressed = (exponent << 4) | mantissa
	} else {
		compressed = uint8(sample >> 4)
	}

	return (sign | compressed) ^ 0x55
}

// AlawToPCM converts A-law audio to linear PCM samples.
func AlawToPCM(alaw []byte) []int16 {
	pcm := make([]int16, len(alaw))
	for i, b := range alaw {
		pcm[i] = AlawDecode(b)
	}
	return pcm
}

// PCMToAlaw converts linear PCM samples to A-law audio.
func PCMToAlaw(pcm []int16) []byte {
	alaw := make([]byte, len(pcm))
	for i, s := range pcm {
		alaw[i] = AlawEncode(s)
	}
	return alaw
}

// Codec names as they appear in carrier media descriptions.
const (
	CodecMulaw    = "mulaw"
	CodecAlaw     = "alaw"
	CodecLinear16 = "linear16"
)

// NormalizeCodecName maps codec name variants (PCMU, ulaw, pcm, ...) to the
// canonical names above.
func NormalizeCodecName(codec string) string {
	switch codec {
	case "mulaw", "ulaw", "PCMU":
		return CodecMulaw
	case "alaw", "PCMA":
		return CodecAlaw
	case "linear16", "pcm", "PCM":
		return CodecLinear16
	default:
		return codec
	}
}

// DecodeToPCM decodes audio bytes in the named codec to linear PCM samples.
func DecodeToPCM(data []byte, codec string) ([]int16, error) {
	switch NormalizeCodecName(codec) {
	case CodecMulaw:
		return MulawToPCM(data), nil
	case CodecAlaw:
		return AlawToPCM(data), nil
	case CodecLinear16:
		return BytesToPCM(data), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}
