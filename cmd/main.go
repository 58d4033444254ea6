package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	glog "github.com/labstack/gommon/log"

	"mirai/pkg/audiovisual"
	"mirai/pkg/auth"
	"mirai/pkg/config"
	"mirai/pkg/generation"
	"mirai/pkg/imaging"
	"mirai/pkg/inference"
	"mirai/pkg/media"
	"mirai/pkg/queue"
	"mirai/pkg/script"
	"mirai/pkg/server"
	"mirai/pkg/speech"
	"mirai/pkg/storage"
	"mirai/pkg/storage/file"
	"mirai/pkg/storage/sqlite"
	"mirai/pkg/story"
	"mirai/pkg/transcribe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	setLogLevel(cfg.LogLevel)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	// mirai token <user> prints a bearer token for local use.
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if len(os.Args) < 3 {
			log.Fatal("usage: mirai token <user-id>")
		}
		token, err := issuer.Issue(os.Args[2])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	inf, err := newInferencer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	gen, err := newImageGenerator(cfg)
	if err != nil {
		log.Fatal(err)
	}
	images := queue.New(gen, cfg.ImageWorkers, cfg.ImageQueue)
	images.Start()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	policy := generation.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}

	voices := speech.NewElevenLabs(cfg.ElevenLabsKey, speech.ElevenLabsOptions{
		BaseURL:       cfg.ElevenLabsBaseURL,
		Model:         cfg.ElevenLabsModel,
		NarratorVoice: cfg.NarratorVoice,
		CatalogTTL:    cfg.VoiceCatalogTTL,
	})

	producer := audiovisual.NewProducer(audiovisual.Deps{
		Speaker:     voices,
		Effects:     voices,
		Images:      images,
		Transcriber: transcribe.NewWhisper(cfg.OpenAIKey, cfg.TranscriptionModel),
		Inferencer:  inf,
		Editor:      media.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath),
	}, audiovisual.Config{
		Concurrency: cfg.Concurrency,
		Frame:       media.Frame{Width: cfg.ImageWidth, Height: cfg.ImageHeight, FPS: cfg.VideoFPS},
		Sound: audiovisual.SoundBounds{
			Min:           cfg.SoundMin,
			Max:           cfg.SoundMax,
			EffectMax:     cfg.SoundEffectMax,
			MaxEffects:    cfg.SoundMaxEffects,
			EffectVolume:  cfg.SoundEffectVolume,
			AmbientVolume: cfg.SoundAmbientVolume,
			FadeRatio:     cfg.SoundFadeRatio,
		},
		Policy: policy,
	})

	stories := story.NewService(store, script.NewAssembler(inf, policy), producer, cfg.DataDir, cfg.PublicBaseURL)

	srv := server.NewServer(stories, issuer)
	if cfg.LogLevel == "debug" {
		srv.Echo.Logger.SetLevel(glog.DEBUG)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("shutdown", "err", err)
		}
		images.Stop()
		if err := store.Close(); err != nil {
			log.Error("closing store", "err", err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
		done()
	}
	<-finishedShutDown
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func newInferencer(cfg config.Config) (inference.Inferencer, error) {
	switch strings.ToLower(cfg.TextProvider) {
	case "openai":
		openAI := inference.NewOpenAIInferencer(cfg.OpenAIKey, cfg.TextModel)
		if cfg.OpenAIBaseURL != "" {
			openAI.ChangeBaseURL(cfg.OpenAIBaseURL)
		}
		return openAI, nil
	case "grok":
		return inference.NewGrokInferencer(cfg.GrokKey, cfg.TextModel), nil
	case "moonshot":
		return inference.NewMoonshotInferencer(cfg.MoonshotKey, cfg.TextModel), nil
	case "gemini":
		return inference.NewGeminiInferencer(cfg.GeminiKey, cfg.TextModel)
	}
	return nil, fmt.Errorf("unknown TEXT_PROVIDER %q", cfg.TextProvider)
}

func newImageGenerator(cfg config.Config) (imaging.Generator, error) {
	switch strings.ToLower(cfg.ImageProvider) {
	case "openai":
		return imaging.NewOpenAI(cfg.OpenAIKey, cfg.ImageModel), nil
	case "gemini":
		return imaging.NewGemini(cfg.GeminiKey, cfg.ImageModel)
	}
	return nil, fmt.Errorf("unknown IMAGE_PROVIDER %q", cfg.ImageProvider)
}

func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case "file":
		return file.Open(filepath.Join(cfg.DataDir, "stories"))
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.SQLitePath)
	}
}
