package serializers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/square-key-labs/voxline/src/frames"
	"github.com/square-key-labs/voxline/src/services"
)

// Plivo wire shapes. Inbound messages carry an "event" discriminator; media
// payloads are base64 mu-law at 8 kHz.

type plivoMessage struct {
	Event    string      `json:"event"`
	StreamID string      `json:"streamId,omitempty"`
	CallID   string      `json:"callId,omitempty"`
	Digit    string      `json:"digit,omitempty"`
	Start    *plivoStart `json:"start,omitempty"`
	Media    *plivoMedia `json:"media,omitempty"`
}

type plivoStart struct {
	StreamID string `json:"streamId"`
	CallID   string `json:"callId"`
	From     string `json:"from,omitempty"`
}

type plivoMedia struct {
	ContentType string `json:"contentType,omitempty"`
	SampleRate  int    `json:"sampleRate,omitempty"`
	Payload     string `json:"payload"`
}

// PlivoSerializer implements the Plivo audio-stream protocol: inbound
// start/media/dtmf/stop events, outbound playAudio.
type PlivoSerializer struct {
	sampleRate int
}

func NewPlivoSerializer(sampleRate int) *PlivoSerializer {
	return &PlivoSerializer{sampleRate: sampleRate}
}

// Deserialize decodes one inbound Plivo message. Unknown events return
// (nil, nil); undecodable messages return MalformedEvent so the session can
// skip them without dropping the call.
func (s *PlivoSerializer) Deserialize(data []byte) (frames.Frame, error) {
	var msg plivoMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &services.MalformedEvent{Detail: "invalid json", Cause: err}
	}

	switch msg.Event {
	case "start":
		streamID, callID, from := msg.StreamID, msg.CallID, ""
		if msg.Start != nil {
			// nested fields win over top-level duplicates
			if msg.Start.StreamID != "" {
				streamID = msg.Start.StreamID
			}
			if msg.Start.CallID != "" {
				callID = msg.Start.CallID
			}
			from = msg.Start.From
		}
		return frames.NewStartFrame(streamID, callID, from, "mulaw", s.sampleRate), nil

	case "media":
		if msg.Media == nil || msg.Media.Payload == "" {
			return nil, nil
		}
		audio, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
		if err != nil {
			return nil, &services.MalformedEvent{Detail: "bad media payload", Cause: err}
		}
		return frames.NewAudioFrame(audio, s.sampleRate), nil

	case "dtmf":
		if msg.Digit == "" {
			return nil, &services.MalformedEvent{Detail: "dtmf without digit"}
		}
		return frames.NewDTMFFrame(msg.Digit), nil

	case "stop":
		return frames.NewStopFrame(msg.StreamID), nil

	case "":
		return nil, &services.MalformedEvent{Detail: "missing event field"}

	default:
		// other carrier events are not interesting
		return nil, nil
	}
}

// Serialize encodes an outbound frame. Only PlayAudioFrame has a wire
// representation in this protocol.
func (s *PlivoSerializer) Serialize(frame frames.Frame) ([]byte, error) {
	switch f := frame.(type) {
	case *frames.PlayAudioFrame:
		contentType := f.ContentType
		if contentType == "" {
			contentType = "audio/x-mulaw"
		}
		rate := f.SampleRate
		if rate == 0 {
			rate = s.sampleRate
		}
		msg := plivoMessage{
			Event: "playAudio",
			Media: &plivoMedia{
				ContentType: contentType,
				SampleRate:  rate,
				Payload:     base64.StdEncoding.EncodeToString(f.Audio),
			},
		}
		out, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("marshal playAudio: %w", err)
		}
		return out, nil
	default:
		return nil, nil
	}
}
