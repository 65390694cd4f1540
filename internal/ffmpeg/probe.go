package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// MediaInfo is the intrinsic metadata probed from a source file. It is
// captured once at upload time and cached on the registered source.
type MediaInfo struct {
	Duration float64 // seconds
	Width    int
	Height   int
	Format   string
	Size     int64
}

// ffprobeOutput maps the subset of ffprobe's JSON output we read.
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe runs ffprobe against the given path and extracts the duration,
// dimensions and container format of its video stream. It fails with a
// *ProbeError when the file is unreadable, the engine cannot parse it, or
// no video stream is present.
func (e *Engine) Probe(path string) (*MediaInfo, error) {
	cmd := exec.Command(e.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := run(cmd)
	if err != nil {
		return nil, &ProbeError{Path: path, Reason: "ffprobe failed", Err: err}
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, &ProbeError{Path: path, Reason: err.Error()}
	}
	return info, nil
}

func parseProbeOutput(data []byte) (*MediaInfo, error) {
	var probed ffprobeOutput
	if err := json.Unmarshal(data, &probed); err != nil {
		return nil, fmt.Errorf("unreadable probe output: %v", err)
	}

	info := &MediaInfo{Format: probed.Format.FormatName}
	if info.Format == "" {
		info.Format = "unknown"
	}

	if probed.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
			info.Duration = duration
		}
	}
	if probed.Format.Size != "" {
		if size, err := strconv.ParseInt(probed.Format.Size, 10, 64); err == nil {
			info.Size = size
		}
	}

	for _, stream := range probed.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			return info, nil
		}
	}
	return nil, fmt.Errorf("no video stream found")
}
