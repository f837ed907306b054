package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/square-key-labs/voxline/src/config"
	"github.com/square-key-labs/voxline/src/ivr"
	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/serializers"
	"github.com/square-key-labs/voxline/src/services"
	"github.com/square-key-labs/voxline/src/services/elevenlabs"
	"github.com/square-key-labs/voxline/src/services/gemini"
	"github.com/square-key-labs/voxline/src/services/openai"
	"github.com/square-key-labs/voxline/src/session"
	"github.com/square-key-labs/voxline/src/store"
	"github.com/square-key-labs/voxline/src/tools"
	"github.com/square-key-labs/voxline/src/transports"
	"github.com/square-key-labs/voxline/src/vad"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage is optional: the voice path works without it
	var callLog *store.CallLog
	if cfg.DatabaseURL != "" {
		callLog, err = store.NewCallLog(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("call log unavailable: %v", err)
			os.Exit(1)
		}
		defer callLog.Close()
	} else {
		logger.Warn("DATABASE_URL not set, call logging disabled")
	}

	var sessions *store.SessionCache
	if cfg.RedisURL != "" {
		sessions, err = store.NewSessionCache(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Error("session cache unavailable: %v", err)
			os.Exit(1)
		}
		defer sessions.Close()
	}

	transcriber := openai.NewSTTService(openai.STTConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.WhisperModel,
		Timeout: cfg.UpstreamTimeout,
	})

	var dialogue services.DialogueEngine
	switch cfg.DialogueProvider {
	case "gemini":
		dialogue = gemini.NewLLMService(gemini.LLMConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.UpstreamTimeout,
		})
	default:
		dialogue = openai.NewLLMService(openai.LLMConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.UpstreamTimeout,
		})
	}
	logger.Info("dialogue provider: %s", cfg.DialogueProvider)

	synthesizer := elevenlabs.NewTTSService(elevenlabs.TTSConfig{
		APIKey:  cfg.ElevenLabsAPIKey,
		VoiceID: cfg.ElevenLabsVoiceID,
		Model:   cfg.ElevenLabsModel,
		Timeout: cfg.UpstreamTimeout,
	})

	executor := tools.NewExecutor()

	params := session.Params{
		SampleRate:      cfg.SampleRate,
		ChunkBytes:      cfg.ChunkBytes,
		ChunkInterval:   cfg.ChunkInterval,
		EnergyThreshold: cfg.EnergyThreshold,
		Segmenter: vad.Params{
			MinUtteranceBytes: cfg.MinUtteranceBytes,
			MaxUtteranceBytes: cfg.MaxUtteranceBytes,
			SilenceToProcess:  cfg.SilenceToProcess,
			TrailingSilence:   cfg.TrailingSilence,
			Cooldown:          cfg.PostSpeechCooldown,
		},
		UpstreamTimeout: cfg.UpstreamTimeout,
	}

	transport := transports.NewWebSocketTransport(transports.WebSocketConfig{
		Path:       "/ws/audio",
		SampleRate: cfg.SampleRate,
		Serializer: serializers.NewPlivoSerializer(cfg.SampleRate),
		NewSession: func(sender session.Sender) *session.Session {
			return session.New(params, sender, transcriber, dialogue, synthesizer, executor)
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "voxline"})
	})
	transport.Register(mux)
	ivr.NewHandlers(cfg.PublicBaseURL, callLog, sessions).Register(mux)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown: %v", err)
		}
	}()

	logger.Info("listening on %s (media stream at %s)", cfg.Addr(), transport.Path())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server: %v", err)
		os.Exit(1)
	}
}
