package audio

import "testing"

func TestMulawDecodeKnownValues(t *testing.T) {
	cases := []struct {
		in   byte
		want int16
	}{
		{0x00, -32124},
		{0x7F, 0},
		{0x80, 32124},
		{0xFF, 0},
	}
	for _, c := range cases {
		if got := MulawDecode(c.in); got != c.want {
			t.Fatalf("MulawDecode(0x%02X) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestMulawRoundTrip(t *testing.T) {
	// round trip must stay within mu-law quantization error
	samples := []int16{0, 1, -1, 100, -100, 1000, -1000, 8000, -8000, 32000, -32000}
	for _, s := range samples {
		decoded := MulawDecode(MulawEncode(s))
		diff := int32(decoded) - int32(s)
		if diff < 0 {
			diff = -diff
		}
		// quantization steps grow with magnitude; allow the widest step
		if diff > 1024 {
			t.Errorf("sample %d round-tripped to %d (diff %d)", s, decoded, diff)
		}
	}
}

func TestMulawEncodeTableFixpoint(t *testing.T) {
	// every decode-table value must encode back to its own byte
	for b := 0; b < 256; b++ {
		// 0x7F and 0xFF both decode to 0; the encoder picks 0xFF for zero
		if b == 0x7F {
			continue
		}
		got := MulawEncode(mulawDecodeTable[b])
		if got != byte(b) {
			t.Errorf("encode(decode(0x%02X)) = 0x%02X", b, got)
		}
	}
}

func TestMulawSilenceIsLossless(t *testing.T) {
	silence := make([]int16, 160)
	encoded := PCMToMulaw(silence)
	decoded := MulawToPCM(encoded)
	for i, s := range decoded {
		if s != 0 {
			t.Fatalf("silence sample %d decoded to %d", i, s)
		}
	}
}

func TestAlawRoundTrip(t *testing.T) {
	for _, s := range []int16{0, 50, -50, 500, -500, 5000, -5000, 30000, -30000} {
		decoded := AlawDecode(AlawEncode(s))
		diff := int32(decoded) - int32(s)
		if diff < 0 {
			diff = -diff
		}
		if diff > 2048 {
			t.Errorf("sample %d round-tripped to %d (diff %d)", s, decoded, diff)
		}
	}
}

func TestPCMBytesRoundTrip(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToPCM(PCMToBytes(pcm))
	if len(got) != len(pcm) {
		t.Fatalf("length %d, want %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], pcm[i])
		}
	}
}

func TestBytesToPCMOddLength(t *testing.T) {
	// a truncated trailing byte is dropped, not an error
	got := BytesToPCM([]byte{0x01, 0x02, 0x03})
	if len(got) != 1 {
		t.Fatalf("got %d samples, want 1", len(got))
	}
}

func TestDecodeToPCM(t *testing.T) {
	data := []byte{0x7F, 0x7F}
	for _, codec := range []string{"mulaw", "ulaw", "PCMU"} {
		if _, err := DecodeToPCM(data, codec); err != nil {
			t.Errorf("codec %q: %v", codec, err)
		}
	}
	if _, err := DecodeToPCM(data, "opus"); err == nil {
		t.Error("expected error for unsupported codec")
	}
}
