package intent

import "strings"

// ExitSentinel is the marker the dialogue engine is prompted to emit when it
// judges the caller wants to end the call.
const ExitSentinel = "[EXIT_INTENT_DETECTED]"

// exitPhrases are clear end-of-call signals. Substring match against the
// cleaned transcript, overridden when the whole transcript is a bare
// acknowledgement.
var exitPhrases = []string{
	"goodbye", "bye", "bye bye", "good bye", "bye for now", "bye now",
	"that's all", "that's it", "nothing else", "no more questions",
	"i'm done", "all done", "we're done", "that's everything",
	"thank you bye", "thanks bye", "thank you goodbye", "thanks that's all",
	"thanks i'm done", "thank you that's it", "thanks i'm good now",
	"end call", "hang up", "disconnect", "end the call", "cut the call",
	"gotta go", "have to go", "need to go", "i'll let you go",
	"okay bye", "alright bye", "okay that's all", "alright that's it",
	"i think i'm done", "i think that's all", "i guess that's it",
	"nope that's all", "no that's it", "no i'm done",
}

// ackPhrases are bare acknowledgements that must never count as exit intent,
// even though some contain exit-phrase substrings.
var ackPhrases = map[string]bool{
	"thank you": true, "thanks": true, "thank you so much": true,
	"thanks a lot": true, "thanks so much": true,
	"okay": true, "ok": true, "got it": true, "alright": true, "cool": true,
	"great": true, "perfect": true, "awesome": true,
	"i see": true, "i understand": true, "understood": true,
	"makes sense": true, "that helps": true,
	"wonderful": true, "excellent": true, "fantastic": true, "amazing": true,
	"sure": true, "right": true,
}

// noResponses confirm "no more questions" during the goodbye flow. Matched
// as whole tokens at a word boundary, never as substrings, so "nope" cannot
// fire inside an unrelated word.
var noResponses = []string{
	"no", "nope", "no thanks", "nothing", "that's all", "i'm good",
	"no i'm good", "nope that's it", "no questions", "nothing else",
	"all good", "i'm fine", "no thank you",
}

// garbageWords are common Whisper hallucinations on silence or noise.
var garbageWords = map[string]bool{
	"you": true, "you.": true, "yeah": true, "hmm": true,
	"uh": true, "um": true, "": true,
}

// Clean normalizes a transcript for classification.
func Clean(transcript string) string {
	return strings.ToLower(strings.TrimSpace(transcript))
}

// IsGarbage reports whether a cleaned transcript is noise rather than
// caller speech.
func IsGarbage(clean string) bool {
	return garbageWords[clean] || len(clean) < 3
}

// IsAcknowledgement reports whether the cleaned transcript is exactly a bare
// acknowledgement.
func IsAcknowledgement(clean string) bool {
	return ackPhrases[clean]
}

// IsExit reports whether the cleaned transcript signals exit intent. A bare
// acknowledgement is never an exit.
func IsExit(clean string) bool {
	if IsAcknowledgement(clean) {
		return false
	}
	for _, phrase := range exitPhrases {
		if strings.Contains(clean, phrase) {
			return true
		}
	}
	return false
}

// IsNegativeConfirmation reports whether the cleaned transcript confirms the
// caller has no more questions. Each candidate must match the whole
// transcript or sit at a word boundary at either end.
func IsNegativeConfirmation(clean string) bool {
	stripped := strings.Trim(clean, ".,!?")
	for _, no := range noResponses {
		if stripped == no ||
			strings.HasPrefix(stripped, no+" ") ||
			strings.HasSuffix(stripped, " "+no) {
			return true
		}
	}
	return false
}

// HasExitSentinel reports whether a dialogue reply carries the exit marker.
func HasExitSentinel(reply string) bool {
	return strings.Contains(reply, ExitSentinel)
}

// StripExitSentinel removes the exit marker from a reply.
func StripExitSentinel(reply string) string {
	return strings.TrimSpace(strings.ReplaceAll(reply, ExitSentinel, ""))
}
