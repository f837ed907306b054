package serializers

import (
	"github.com/square-key-labs/voxline/src/frames"
)

// FrameSerializer converts between carrier wire messages and frames.
type FrameSerializer interface {
	// Serialize encodes an outbound frame to a wire message. A nil result
	// with nil error means the frame has no wire representation.
	Serialize(frame frames.Frame) ([]byte, error)

	// Deserialize decodes an inbound wire message to a frame. A nil result
	// with nil error means the message is not interesting (keepalives etc).
	Deserialize(data []byte) (frames.Frame, error)
}
