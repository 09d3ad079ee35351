package video

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// swapped in tests
var execCommand = exec.CommandContext

// Probe runs ffprobe against a file path or stream URL.
func Probe(ctx context.Context, ffprobePath, src string) (*Info, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	cmd := execCommand(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		src,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ErrSourceUnavailable, src, err)
	}

	info, err := parseProbe(out.Bytes())
	if err != nil {
		return nil, err
	}
	info.Path = src
	return info, nil
}

func parseProbe(data []byte) (*Info, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse ffprobe output")
	}
	probe := gjson.ParseBytes(data)

	info := &Info{}

	if secs := probe.Get("format.duration").Float(); secs > 0 {
		info.Duration = time.Duration(secs * float64(time.Second))
	}

	// first video stream wins
	video := probe.Get(`streams.#(codec_type=="video")`)
	if video.Exists() {
		info.Width = int(video.Get("width").Int())
		info.Height = int(video.Get("height").Int())
		info.Codec = video.Get("codec_name").String()
		info.Rotation = rotation(video)
		// ffmpeg autorotates while decoding, so frames come out transposed
		if info.Rotation == 90 || info.Rotation == 270 {
			info.Width, info.Height = info.Height, info.Width
		}
		info.FrameRate = parseRate(video.Get("r_frame_rate").String())
		if info.FrameRate == 0 {
			info.FrameRate = parseRate(video.Get("avg_frame_rate").String())
		}
	}

	info.HasAudio = probe.Get(`streams.#(codec_type=="audio")`).Exists()
	info.HasSubtitle = probe.Get(`streams.#(codec_type=="subtitle")`).Exists()

	return info, nil
}

// display rotation in degrees, normalised to [0, 360); newer ffprobe reports
// it in the display matrix side data, older builds in the rotate tag
func rotation(stream gjson.Result) int {
	deg := 0
	stream.Get("side_data_list").ForEach(func(_, sd gjson.Result) bool {
		if r := sd.Get("rotation"); r.Exists() {
			deg = int(r.Int())
			return false
		}
		return true
	})
	if deg == 0 {
		deg = int(stream.Get("tags.rotate").Int())
	}
	return ((deg % 360) + 360) % 360
}

// parses "30000/1001" or "25"; 0 when unknown
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
