package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// ErrNoAudio is returned for an empty sample slice.
var ErrNoAudio = errors.New("no audio samples")

type Options struct {
	Language      string // "auto", "en", ...
	TranslateToEn bool
	Threads       int // <=0 means NumCPU
	InitialPrompt string
	BeamSize      int // 0 keeps greedy decoding
	SplitOnWord   bool
}

type Segment struct {
	Text     string
	StartSec float64
	EndSec   float64
}

type Result struct {
	Text     string
	Segments []Segment
	Language string // detected or forced
}

// Transcriber runs a local whisper.cpp model. The model is loaded once
// and inferences are serialized on it.
type Transcriber struct {
	opts Options

	mu    sync.Mutex
	model whisper.Model
}

func NewTranscriber(modelPath string, opts Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: empty model path")
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load %s: %w", modelPath, err)
	}

	return &Transcriber{opts: opts, model: model}, nil
}

func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return nil
	}
	err := t.model.Close()
	t.model = nil
	return err
}

// Transcribe implements the assistant's recognizer with the options
// given to NewTranscriber.
func (t *Transcriber) Transcribe(ctx context.Context, pcm16k []float32) (string, error) {
	res, err := t.TranscribePCM(ctx, pcm16k, t.opts)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// TranscribePCM expects mono 16 kHz samples in [-1, 1]. A canceled ctx
// stops the run before the encoder starts and between segments.
func (t *Transcriber) TranscribePCM(ctx context.Context, pcm16k []float32, opt Options) (Result, error) {
	if len(pcm16k) == 0 {
		return Result{}, ErrNoAudio
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return Result{}, errors.New("whisper: model closed")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("whisper: new context: %w", err)
	}
	if err := configure(wctx, opt); err != nil {
		return Result{}, err
	}

	proceed := func() bool { return ctx.Err() == nil }
	progress := func(p int) { log.Debug("Whisper progress", "percent", p) }

	if err := wctx.Process(pcm16k, proceed, nil, progress); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("whisper: process: %w", err)
	}

	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		s, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("whisper: next segment: %w", err)
		}
		res.Segments = append(res.Segments, Segment{
			Text:     s.Text,
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
		})
	}

	res.Text = JoinSegments(res.Segments)
	if res.Language = wctx.DetectedLanguage(); res.Language == "" {
		res.Language = wctx.Language()
	}

	return res, nil
}

func configure(wctx whisper.Context, opt Options) error {
	lang := opt.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return fmt.Errorf("whisper: language %q: %w", lang, err)
	}
	wctx.SetTranslate(opt.TranslateToEn)

	threads := opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))
	wctx.SetSplitOnWord(opt.SplitOnWord)

	if opt.BeamSize > 0 {
		wctx.SetBeamSize(opt.BeamSize)
	}
	if opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(opt.InitialPrompt)
	}
	return nil
}

// Non-speech annotations whisper emits for silence or noise.
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// JoinSegments concatenates segment texts, dropping annotations such as
// "[BLANK_AUDIO]" or "(music)".
func JoinSegments(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		text := strings.TrimSpace(annotationRe.ReplaceAllString(s.Text, ""))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
