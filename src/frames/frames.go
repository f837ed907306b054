package frames

import (
	"fmt"
	"sync/atomic"
)

var frameID int64

func nextID() int64 {
	return atomic.AddInt64(&frameID, 1)
}

// Frame is a unit of data or control flowing between the transport and the
// call session.
type Frame interface {
	ID() int64
	Name() string
}

// BaseFrame provides identity for all frame types.
type BaseFrame struct {
	id   int64
	name string
}

func NewBaseFrame(name string) BaseFrame {
	return BaseFrame{id: nextID(), name: name}
}

func (f *BaseFrame) ID() int64    { return f.id }
func (f *BaseFrame) Name() string { return f.name }

func (f *BaseFrame) String() string {
	return fmt.Sprintf("%s#%d", f.name, f.id)
}

// StartFrame opens a media stream. StreamID identifies the carrier stream;
// CallID and From come from the carrier's start payload when present.
type StartFrame struct {
	BaseFrame
	StreamID   string
	CallID     string
	From       string
	Codec      string
	SampleRate int
}

func NewStartFrame(streamID, callID, from, codec string, sampleRate int) *StartFrame {
	return &StartFrame{
		BaseFrame:  NewBaseFrame("StartFrame"),
		StreamID:   streamID,
		CallID:     callID,
		From:       from,
		Codec:      codec,
		SampleRate: sampleRate,
	}
}

// AudioFrame carries inbound caller audio in the stream codec (mu-law).
type AudioFrame struct {
	BaseFrame
	Audio      []byte
	SampleRate int
}

func NewAudioFrame(audio []byte, sampleRate int) *AudioFrame {
	return &AudioFrame{
		BaseFrame:  NewBaseFrame("AudioFrame"),
		Audio:      audio,
		SampleRate: sampleRate,
	}
}

// DTMFFrame carries a keypad digit pressed during the stream.
type DTMFFrame struct {
	BaseFrame
	Digit string
}

func NewDTMFFrame(digit string) *DTMFFrame {
	return &DTMFFrame{BaseFrame: NewBaseFrame("DTMFFrame"), Digit: digit}
}

// StopFrame closes a media stream.
type StopFrame struct {
	BaseFrame
	StreamID string
}

func NewStopFrame(streamID string) *StopFrame {
	return &StopFrame{BaseFrame: NewBaseFrame("StopFrame"), StreamID: streamID}
}

// PlayAudioFrame carries outbound bot audio to the caller, already in the
// stream codec.
type PlayAudioFrame struct {
	BaseFrame
	Audio       []byte
	ContentType string
	SampleRate  int
}

func NewPlayAudioFrame(audio []byte, contentType string, sampleRate int) *PlayAudioFrame {
	return &PlayAudioFrame{
		BaseFrame:   NewBaseFrame("PlayAudioFrame"),
		Audio:       audio,
		ContentType: contentType,
		SampleRate:  sampleRate,
	}
}
