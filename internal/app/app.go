package app

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"beast/internal/assistant"
	"beast/internal/audio"
	"beast/internal/browser"
	"beast/internal/catalog"
	"beast/internal/config"
	"beast/internal/ipc"
	"beast/internal/lookup"
	"beast/internal/metrics"
	"beast/internal/nlu"
	"beast/internal/notify"
	"beast/internal/ports"
	"beast/internal/proxy"
	"beast/internal/scheduler"
	"beast/internal/server"
	"beast/internal/tts"
	"beast/internal/tts/espeak"
	"beast/internal/ui"
	"beast/pkg/stt"
	"beast/pkg/stt/cloud"
)

// Params selects which parts of the stack a binary needs.
type Params struct {
	// Out receives console output: the printer voice and the console
	// presenter in text mode.
	Out io.Writer
	// Text runs without microphone, earcon or browser hub. Replies are
	// printed to Out.
	Text bool
	// Recognizer loads the configured speech recognizer.
	Recognizer bool
}

// App is the assembled assistant with its control surfaces.
type App struct {
	Config    config.Config
	Assistant *assistant.Assistant
	Hub       *ui.Hub
	Metrics   *metrics.Metrics

	typewriter *ui.Typewriter
	briefing   *scheduler.Briefing
	closers    []func()
}

// Build constructs every component described by cfg. On error the parts
// built so far are released.
func Build(cfg config.Config, p Params) (_ *App, err error) {
	a := &App{Config: cfg, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}
	log.Debug("Loaded http client", "proxy", cfg.Proxy != "")

	voice, err := a.voice(cfg, p)
	if err != nil {
		return nil, err
	}

	var recognizer ports.Recognizer
	if p.Recognizer {
		if recognizer, err = a.recognizer(cfg, httpClient); err != nil {
			return nil, err
		}
	}

	opts := assistant.Options{
		Dispatcher: nlu.New(nlu.Env{Catalog: cat}),
		Voice:      voice,
		Recognizer: recognizer,
		Opener:     opener(cfg),
		Metrics:    a.Metrics,
	}

	if p.Text {
		console, err := ui.NewConsole(p.Out, false)
		if err != nil {
			return nil, fmt.Errorf("console: %w", err)
		}
		opts.Presenter = console
	} else {
		mic := audio.NewMicrophone(vadConfig(cfg))
		if err := mic.Init(); err != nil {
			return nil, fmt.Errorf("init audio: %w", err)
		}
		a.closers = append(a.closers, mic.Terminate)
		opts.Microphone = mic
		log.Debug("Loaded microphone")

		opts.Earcon = notify.NewEarcon(cfg.Earcon).Play

		a.Hub = ui.NewHub(a.HandleUI)
		a.closers = append(a.closers, a.Hub.Close)
		a.typewriter = ui.NewTypewriter(a.Hub, cfg.RevealDelay)
		opts.Presenter = a.typewriter
	}

	if cfg.Duck {
		opts.Ducker = audio.NewDucker(audio.DuckConfig{
			SelfNames: []string{"beast", "espeak"},
			Factor:    cfg.DuckFactor,
			MinVolume: 5,
			Fade:      cfg.DuckFade,
		})
	}

	a.Assistant = assistant.New(opts)
	// Closed before the voice and recognizer it drives.
	a.closers = append(a.closers, a.Assistant.Close)

	topic := lookup.NewTopic(lookup.NewClient("wikipedia", httpClient), cfg.WikiURL, a.Assistant, opts.Presenter)
	headlines := lookup.NewHeadlines(lookup.NewClient("newsapi", httpClient), lookup.HeadlinesConfig{
		BaseURL: cfg.NewsURL,
		APIKey:  cfg.NewsAPIKey,
		Country: cfg.NewsCountry,
	}, a.Assistant, opts.Presenter)
	a.Assistant.UseLookups(topic, headlines)

	if cfg.BriefingCron != "" {
		a.briefing, err = scheduler.NewBriefing(cfg.BriefingCron, time.Local, headlines.Run)
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *App) voice(cfg config.Config, p Params) (ports.Voice, error) {
	if p.Text || cfg.Voice == config.VoiceConsole {
		return &tts.Printer{W: p.Out}, nil
	}
	if cfg.Voice == config.VoiceNone {
		return nil, nil
	}

	v, err := espeak.New(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("init espeak: %w", err)
	}
	a.closers = append(a.closers, v.Close)
	log.Debug("Loaded espeak", "lang", cfg.Language)

	return v, nil
}

func (a *App) recognizer(cfg config.Config, hc *http.Client) (ports.Recognizer, error) {
	switch cfg.Recognizer {
	case config.RecognizerWhisper:
		t, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{Language: cfg.Language})
		if err != nil {
			return nil, fmt.Errorf("init whisper: %w", err)
		}
		a.closers = append(a.closers, func() { t.Close() })
		log.Debug("Loaded whisper", "model", cfg.WhisperModel)
		return t, nil

	case config.RecognizerOpenAI:
		client := openai.NewClient(
			option.WithAPIKey(cfg.OpenAIAPIKey),
			option.WithHTTPClient(hc),
		)
		log.Debug("Loaded OpenAI recognizer")
		return cloud.New(client, cfg.Language), nil
	}

	return nil, nil
}

func opener(cfg config.Config) ports.Opener {
	if cfg.OpenPages {
		return browser.Opener{}
	}
	return browser.LogOpener{}
}

func vadConfig(cfg config.Config) audio.VADConfig {
	vad := audio.DefaultVADConfig()
	if cfg.MaxListen > 0 {
		vad.MaxLength = cfg.MaxListen
	}
	return vad
}

// Start arms the scheduled briefing, if any.
func (a *App) Start() {
	if a.briefing != nil {
		a.briefing.Start()
	}
}

// Handler is the HTTP surface: REST control, browser socket and metrics.
func (a *App) Handler() http.Handler {
	var ws http.Handler
	if a.Hub != nil {
		ws = a.Hub
	}
	return server.NewHandler(a.Assistant, ws, a.Metrics.Handler())
}

// HandleControl executes one message from the control socket.
func (a *App) HandleControl(msg ipc.ControlMessage) error {
	log.Debug("Control message", "cmd", msg.Cmd)

	switch msg.Cmd {
	case ipc.CmdTrigger:
		return a.Assistant.Toggle()
	case ipc.CmdStop:
		a.Assistant.StopListening()
	case ipc.CmdHush:
		a.Assistant.StopSpeaking()
	case ipc.CmdSay:
		a.Assistant.Say(msg.Text)
	case ipc.CmdCommand:
		a.Assistant.Handle(msg.Text)
	case ipc.CmdSuspend:
		a.Assistant.Suspend()
	default:
		return fmt.Errorf("unknown command %q", msg.Cmd)
	}

	return nil
}

// HandleUI executes one message sent by a browser page.
func (a *App) HandleUI(m ui.Message) {
	switch m.Kind {
	case ui.KindCommand:
		a.Assistant.Handle(m.Content)
	case ui.KindListen:
		if err := a.Assistant.Toggle(); err != nil {
			log.Warn("Listen request rejected", "err", err)
		}
	case ui.KindStop:
		a.Assistant.StopListening()
	case ui.KindHush:
		a.Assistant.StopSpeaking()
	default:
		log.Warn("Unknown ui message", "kind", m.Kind)
	}
}

// Settle waits for lookups, narrations and the typewriter to finish.
func (a *App) Settle(ctx context.Context) error {
	if err := a.Assistant.Settle(ctx); err != nil {
		return err
	}
	if a.typewriter != nil {
		a.typewriter.Wait()
	}
	return nil
}

// Close releases everything in reverse construction order.
func (a *App) Close() {
	if a.briefing != nil {
		a.briefing.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
