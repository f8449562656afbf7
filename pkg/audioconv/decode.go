package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/pekim/opus"
)

const opusRate = 48000

func readWAV(r io.ReadSeeker) (clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return clip{}, errors.New("not a RIFF/WAVE file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return clip{}, errors.New("no samples")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	c := clip{
		samples:  intsToFloat(buf.Data, depth),
		rate:     int(dec.SampleRate),
		channels: int(dec.NumChans),
	}
	if buf.Format != nil {
		c.rate = buf.Format.SampleRate
		c.channels = buf.Format.NumChannels
	}
	if c.rate <= 0 {
		c.rate = 44100
	}
	return c, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func readMP3(r io.Reader) (clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return clip{}, err
	}
	pcm := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(pcm)*2]), binary.LittleEndian, pcm); err != nil {
		return clip{}, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return clip{samples: int16sToFloat(pcm), rate: rate, channels: 2}, nil
}

// readOgg tries vorbis first and falls back to opus.
func readOgg(r io.ReadSeeker) (clip, error) {
	c, vorbisErr := readVorbis(r)
	if vorbisErr == nil {
		return c, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return clip{}, err
	}

	c, opusErr := readOpus(r)
	if opusErr != nil {
		return clip{}, fmt.Errorf("neither vorbis (%v) nor opus: %w", vorbisErr, opusErr)
	}
	return c, nil
}

func readVorbis(r io.Reader) (clip, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return clip{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return clip{}, errors.New("invalid vorbis header")
	}
	return clip{samples: pcm, rate: format.SampleRate, channels: format.Channels}, nil
}

func readOpus(r io.ReadSeeker) (clip, error) {
	dec, err := opus.NewDecoder(r)
	if err != nil {
		return clip{}, err
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	var (
		out   []float32
		frame = make([]int16, opusRate/2*channels)
	)
	for {
		// n counts samples per channel.
		n, err := dec.Read(frame)
		if n > 0 {
			out = append(out, int16sToFloat(frame[:n*channels])...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return clip{}, err
		}
	}

	return clip{samples: out, rate: opusRate, channels: channels}, nil
}
