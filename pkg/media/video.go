package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strconv"

	"github.com/SkyAerope/Brainpile/pkg/core"
)

// VideoMeta holds the probed dimensions and duration of a video's first
// video stream (EP stage 3).
type VideoMeta struct {
	Width           int
	Height          int
	DurationSeconds float64
	FileSize        int64
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// Probe shells out to ffprobe to recover the first video stream's
// dimensions and the container's duration (EP stage 3).
func Probe(ctx context.Context, data []byte) (VideoMeta, error) {
	tmp, err := writeTempVideo(data)
	if err != nil {
		return VideoMeta{}, err
	}
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height:format=duration",
		"-of", "json",
		tmp,
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return VideoMeta{}, &core.MediaDecodeError{Op: "media.Probe", Err: err}
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return VideoMeta{}, &core.MediaDecodeError{Op: "media.Probe", Err: err}
	}

	meta := VideoMeta{FileSize: int64(len(data))}
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			meta.Width, meta.Height = s.Width, s.Height
			break
		}
	}
	if duration, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		meta.DurationSeconds = duration
	}
	return meta, nil
}

// ExtractCoverFrame extracts a single JPEG frame at t=1s, falling back to
// the first frame if seeking to 1s fails (EP stage 3).
func ExtractCoverFrame(ctx context.Context, data []byte) ([]byte, error) {
	tmp, err := writeTempVideo(data)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	if frame, err := extractFrameAt(ctx, tmp, "00:00:01.000"); err == nil {
		return frame, nil
	}
	return extractFrameAt(ctx, tmp, "00:00:00.000")
}

func extractFrameAt(ctx context.Context, path, timestamp string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", timestamp,
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, &core.MediaDecodeError{Op: "media.ExtractCoverFrame", Err: err}
	}
	if stdout.Len() == 0 {
		return nil, &core.MediaDecodeError{Op: "media.ExtractCoverFrame", Err: errEmptyFrame}
	}
	return stdout.Bytes(), nil
}

var errEmptyFrame = errors.New("ffmpeg produced no frame data")

func writeTempVideo(data []byte) (string, error) {
	f, err := os.CreateTemp("", "brainpile-video-*.mp4")
	if err != nil {
		return "", &core.MediaDecodeError{Op: "media.writeTempVideo", Err: err}
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", &core.MediaDecodeError{Op: "media.writeTempVideo", Err: err}
	}
	return f.Name(), nil
}
