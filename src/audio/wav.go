package audio

import (
	"bytes"
	"encoding/binary"
)

// WAV writes a RIFF/WAVE container around 16-bit mono PCM at the given sample
// rate. The transcription gateway uploads these directly.
func WAV(pcm []int16, sampleRate int) []byte {
	data := PCMToBytes(pcm)

	var buf bytes.Buffer
	byteRate := sampleRate * 2 // mono, 16-bit

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

// MulawToWAV decodes mu-law audio and wraps it in a WAV container.
func MulawToWAV(mulaw []byte, sampleRate int) []byte {
	return WAV(MulawToPCM(mulaw), sampleRate)
}
