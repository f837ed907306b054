package transports

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/voxline/src/frames"
	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/serializers"
	"github.com/square-key-labs/voxline/src/session"
)

// SessionFactory builds a call session around the connection's sender.
type SessionFactory func(sender session.Sender) *session.Session

// WebSocketConfig configures the media-stream endpoint.
type WebSocketConfig struct {
	Path       string
	SampleRate int
	Serializer serializers.FrameSerializer
	NewSession SessionFactory
}

// WebSocketTransport accepts carrier media streams and runs one session per
// connection. The read loop feeds frames to the session in arrival order;
// outbound audio goes through the connection's write mutex.
type WebSocketTransport struct {
	path       string
	sampleRate int
	serializer serializers.FrameSerializer
	newSession SessionFactory
	upgrader   websocket.Upgrader
	log        *logger.Logger
}

func NewWebSocketTransport(config WebSocketConfig) *WebSocketTransport {
	if config.Path == "" {
		config.Path = "/ws/audio"
	}
	if config.Serializer == nil {
		panic("WebSocketTransport requires a serializer")
	}
	if config.NewSession == nil {
		panic("WebSocketTransport requires a session factory")
	}
	if config.SampleRate == 0 {
		config.SampleRate = 8000
	}
	return &WebSocketTransport{
		path:       config.Path,
		sampleRate: config.SampleRate,
		serializer: config.Serializer,
		newSession: config.NewSession,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.WithPrefix("Transport"),
	}
}

// Register mounts the websocket route on the shared mux.
func (t *WebSocketTransport) Register(mux *http.ServeMux) {
	mux.HandleFunc(t.path, t.handleWebSocket)
}

// Path returns the mounted websocket path.
func (t *WebSocketTransport) Path() string { return t.path }

func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Error("upgrade failed: %v", err)
		return
	}

	wsConn := &wsConnection{conn: conn, serializer: t.serializer, sampleRate: t.sampleRate}
	sess := t.newSession(wsConn)
	t.log.Info("connection established: %s", r.RemoteAddr)

	defer func() {
		sess.Stop()
		sess.Wait()
		conn.Close()
		t.log.Info("connection closed: %s", r.RemoteAddr)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.Warn("read error: %v", err)
			}
			return
		}

		frame, err := t.serializer.Deserialize(msg)
		if err != nil {
			// one bad message never drops the call
			t.log.Warn("skipping message: %v", err)
			continue
		}
		if frame == nil {
			continue
		}

		sess.HandleFrame(frame)

		if _, stopped := frame.(*frames.StopFrame); stopped {
			return
		}
	}
}

// wsConnection adapts a websocket connection to the session's Sender.
type wsConnection struct {
	conn       *websocket.Conn
	serializer serializers.FrameSerializer
	sampleRate int
	writeMu    sync.Mutex
	closeOnce  sync.Once
}

// SendAudio serializes a playAudio message for one mu-law chunk and writes
// it to the socket.
func (c *wsConnection) SendAudio(chunk []byte) error {
	frame := frames.NewPlayAudioFrame(chunk, "audio/x-mulaw", c.sampleRate)
	data, err := c.serializer.Serialize(frame)
	if err != nil {
		return fmt.Errorf("serialize audio: %w", err)
	}
	if data == nil {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the websocket down once.
func (c *wsConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
	})
	return err
}
