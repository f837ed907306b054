package services

import (
	"fmt"
	"time"
)

// The error taxonomy below distinguishes which collaborator failed so the
// session can log precisely and drop the turn without ending the call.

// TranscriptionError wraps a speech-to-text failure.
type TranscriptionError struct {
	Cause error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Cause)
}

func (e *TranscriptionError) Unwrap() error { return e.Cause }

// DialogueError wraps a dialogue engine failure.
type DialogueError struct {
	Cause error
}

func (e *DialogueError) Error() string {
	return fmt.Sprintf("dialogue failed: %v", e.Cause)
}

func (e *DialogueError) Unwrap() error { return e.Cause }

// SynthesisError wraps a text-to-speech failure.
type SynthesisError struct {
	Cause error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Cause)
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// AudioConversionError wraps a failure converting synthesized audio to the
// stream codec.
type AudioConversionError struct {
	Cause error
}

func (e *AudioConversionError) Error() string {
	return fmt.Sprintf("audio conversion failed: %v", e.Cause)
}

func (e *AudioConversionError) Unwrap() error { return e.Cause }

// UpstreamTimeout marks a provider call that exceeded its budget.
type UpstreamTimeout struct {
	Provider string
	Budget   time.Duration
}

func (e *UpstreamTimeout) Error() string {
	return fmt.Sprintf("%s did not respond within %s", e.Provider, e.Budget)
}

// MalformedEvent marks an inbound transport message that could not be
// decoded. The session skips the message and keeps running.
type MalformedEvent struct {
	Detail string
	Cause  error
}

func (e *MalformedEvent) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed event: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("malformed event: %s", e.Detail)
}

func (e *MalformedEvent) Unwrap() error { return e.Cause }
