package audio

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// pactl is the slice of the PulseAudio CLI the ducker needs.
type pactl interface {
	listStreams(ctx context.Context) ([]streamInfo, error)
	setVolume(ctx context.Context, id int, percent int) error
}

type execPactl struct{}

func (execPactl) listStreams(ctx context.Context) ([]streamInfo, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (execPactl) setVolume(ctx context.Context, id int, percent int) error {
	volume := strconv.Itoa(clampVolume(percent)) + "%"
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), volume).Run()
}

var (
	sinkHeaderRe = regexp.MustCompile(`^Sink Input #(\S+)$`)
	percentRe    = regexp.MustCompile(`(\d+)\s*%`)
	appNameRe    = regexp.MustCompile(`^application\.name = "([^"]*)"`)
)

// parseSinkInputs extracts id, first channel volume and application name
// from the output of `pactl list sink-inputs`. Blocks with an invalid id
// or neither volume nor name are skipped.
func parseSinkInputs(text string) []streamInfo {
	var (
		res []streamInfo
		cur *streamInfo
	)
	flush := func() {
		if cur != nil && (cur.Volume != 0 || cur.AppName != "") {
			res = append(res, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if m := sinkHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			if id, err := strconv.Atoi(m[1]); err == nil {
				cur = &streamInfo{ID: id}
			}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Volume:"):
			if m := percentRe.FindStringSubmatch(line); m != nil && cur.Volume == 0 {
				cur.Volume, _ = strconv.Atoi(m[1])
			}
		case cur.AppName == "":
			if m := appNameRe.FindStringSubmatch(line); m != nil {
				cur.AppName = m[1]
			}
		}
	}
	flush()

	return res
}
