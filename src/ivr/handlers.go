package ivr

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/store"
)

const (
	menuPrompt   = "Press 1 for Sales. Press 2 for Support. Press 3 to speak with our AI assistant."
	streamFormat = "audio/x-mulaw;rate=8000"
)

// Handlers serves the carrier's webhook callbacks: the IVR entry point, the
// keypad menu, and direct-to-AI routing. Store integrations are optional;
// with a nil CallLog or SessionCache the IVR still answers calls.
type Handlers struct {
	baseURL  string
	callLog  *store.CallLog
	sessions *store.SessionCache
	log      *logger.Logger
}

func NewHandlers(baseURL string, callLog *store.CallLog, sessions *store.SessionCache) *Handlers {
	return &Handlers{
		baseURL:  strings.TrimRight(baseURL, "/"),
		callLog:  callLog,
		sessions: sessions,
		log:      logger.WithPrefix("IVR"),
	}
}

// Register mounts the webhook routes.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/voice/incoming", h.Incoming)
	mux.HandleFunc("/voice/menu", h.Menu)
	mux.HandleFunc("/voice/ai-direct", h.AIDirect)
	mux.HandleFunc("/voice/status", h.Status)
}

func (h *Handlers) wsURL() string {
	ws := strings.Replace(h.baseURL, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return ws + "/ws/audio"
}

// Incoming answers a new call: greeting plus the keypad menu. A call-log row
// and a caller session are created when the stores are wired.
func (h *Handlers) Incoming(w http.ResponseWriter, r *http.Request) {
	caller := r.FormValue("From")
	h.log.Info("incoming call from %s", caller)

	var callLogID int64
	if h.callLog != nil && caller != "" {
		id, err := h.callLog.Record(r.Context(), caller)
		if err != nil {
			h.log.Error("record call: %v", err)
		} else {
			callLogID = id
		}
	}
	if h.sessions != nil && caller != "" {
		if _, err := h.sessions.Create(r.Context(), caller, "greeting", callLogID); err != nil {
			h.log.Error("create session: %v", err)
		}
	}

	h.respond(w, Response{Children: []interface{}{
		Speak{Text: "Welcome to our AI-powered service."},
		GetDigits{
			Action:    h.baseURL + "/voice/menu",
			Method:    "POST",
			Timeout:   10,
			NumDigits: 1,
			Speak:     &Speak{Text: menuPrompt},
		},
		Speak{Text: "We didn't receive any input. Goodbye."},
	}})
}

// Menu routes keypad digits: 1 sales, 2 support, 3 AI assistant.
func (h *Handlers) Menu(w http.ResponseWriter, r *http.Request) {
	digits := r.FormValue("Digits")
	caller := r.FormValue("From")
	h.log.Info("menu digit %q from %s", digits, caller)

	switch digits {
	case "1":
		h.noteRouting(r, caller, "sales", store.StatusRoutedSales)
		h.respond(w, Response{Children: []interface{}{
			Speak{Text: "Connecting you to Sales. Please hold."},
		}})
	case "2":
		h.noteRouting(r, caller, "support", store.StatusRoutedSupport)
		h.respond(w, Response{Children: []interface{}{
			Speak{Text: "Connecting you to Support. Please hold."},
		}})
	case "3":
		h.noteRouting(r, caller, "ai", store.StatusRoutedAI)
		h.respond(w, Response{Children: []interface{}{
			Speak{Text: "Connecting you to our AI assistant. You can start speaking after the beep."},
			h.stream(),
		}})
	default:
		h.respond(w, Response{Children: []interface{}{
			Speak{Text: "Invalid option."},
			GetDigits{
				Action:    h.baseURL + "/voice/menu",
				Method:    "POST",
				Timeout:   10,
				NumDigits: 1,
				Speak:     &Speak{Text: menuPrompt},
			},
		}})
	}
}

// AIDirect bridges straight to the AI assistant, bypassing the menu.
func (h *Handlers) AIDirect(w http.ResponseWriter, r *http.Request) {
	caller := r.FormValue("From")
	h.log.Info("direct AI connection from %s", caller)
	h.noteRouting(r, caller, "ai", store.StatusRoutedAI)

	h.respond(w, Response{Children: []interface{}{
		Speak{Text: "Connecting you to our AI assistant."},
		h.stream(),
	}})
}

// Status receives the carrier's call status callbacks and completes the log
// row when the call ends.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	caller := r.FormValue("From")
	status := r.FormValue("CallStatus")
	h.log.Info("call status %q for %s", status, caller)

	if status == "completed" && caller != "" {
		if h.sessions != nil {
			if sess, err := h.sessions.Get(r.Context(), caller); err == nil {
				if h.callLog != nil && sess.CallLogID != 0 {
					if err := h.callLog.UpdateStatus(r.Context(), sess.CallLogID, store.StatusCompleted); err != nil {
						h.log.Error("complete call: %v", err)
					}
				}
				if err := h.sessions.Delete(r.Context(), caller); err != nil {
					h.log.Error("delete session: %v", err)
				}
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) stream() Stream {
	return Stream{
		StreamTimeout: 3600,
		KeepCallAlive: true,
		Bidirectional: true,
		ContentType:   streamFormat,
		URL:           h.wsURL(),
	}
}

// noteRouting advances the caller's session step and updates the call log.
func (h *Handlers) noteRouting(r *http.Request, caller, step, status string) {
	if caller == "" {
		return
	}
	if h.sessions != nil {
		sess, err := h.sessions.Advance(r.Context(), caller, step)
		if err != nil {
			h.log.Debug("advance session: %v", err)
			return
		}
		if h.callLog != nil && sess.CallLogID != 0 {
			if err := h.callLog.UpdateStatus(r.Context(), sess.CallLogID, status); err != nil {
				h.log.Error("update call status: %v", err)
			}
		}
	}
}

func (h *Handlers) respond(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("encode response: %v", err)
	}
}
