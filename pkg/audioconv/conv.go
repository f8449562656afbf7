package audioconv

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TargetRate is the sample rate every decoder converts to.
const TargetRate = 16000

type Options struct {
	// MaxSamples truncates the output when > 0.
	MaxSamples int
}

type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
)

// clip is decoded audio at its native rate and channel layout.
type clip struct {
	samples  []float32 // interleaved
	rate     int
	channels int
}

// mono16k downmixes, resamples to TargetRate and truncates.
func (c clip) mono16k(opt Options) []float32 {
	out := downmix(c.samples, c.channels)
	out = resample(out, c.rate, TargetRate)
	if opt.MaxSamples > 0 && len(out) > opt.MaxSamples {
		out = out[:opt.MaxSamples]
	}
	return out
}

// FormatOf guesses the container from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".ogg", ".oga", ".opus":
		return FormatOgg
	}
	return FormatUnknown
}

// Sniff identifies the container from its leading bytes.
func Sniff(magic []byte) Format {
	switch {
	case len(magic) >= 4 && string(magic[:4]) == "RIFF":
		return FormatWAV
	case len(magic) >= 4 && string(magic[:4]) == "OggS":
		return FormatOgg
	case len(magic) >= 3 && string(magic[:3]) == "ID3":
		return FormatMP3
	case len(magic) >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		// bare MPEG frame sync
		return FormatMP3
	}
	return FormatUnknown
}

// ConvertFileToPCM16k decodes a wav, mp3 or ogg (vorbis or opus) file to
// mono float32 samples at 16 kHz. Files without a known extension are
// sniffed.
func ConvertFileToPCM16k(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format := FormatOf(path)
	if format == FormatUnknown {
		magic, _ := bufio.NewReader(f).Peek(4)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		format = Sniff(magic)
	}

	return Decode(ctx, f, format, opt)
}

// Decode converts r, holding audio in the given container, to mono 16 kHz.
func Decode(_ context.Context, r io.ReadSeeker, format Format, opt Options) ([]float32, error) {
	var (
		c   clip
		err error
	)

	switch format {
	case FormatWAV:
		c, err = readWAV(r)
	case FormatMP3:
		c, err = readMP3(r)
	case FormatOgg:
		c, err = readOgg(r)
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: wav, mp3, ogg vorbis/opus)", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	return c.mono16k(opt), nil
}
