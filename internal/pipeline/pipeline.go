// Package pipeline compiles a sanitized operation set into the ordered
// filter and codec parameters handed to ffmpeg. Compilation is a pure
// function: same operations and source dimensions always produce the same
// spec, and out-of-range values are clamped or dropped, never rejected.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"videoforge/models"
)

// Spec is a compiled, engine-ready description of one transcode: the video
// and audio filter chains in evaluation order plus codec and rate-control
// parameters.
type Spec struct {
	VideoFilters []string
	AudioFilters []string
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
	Preset       string
	CRF          int
}

// HasAudio reports whether the output carries an audio track.
func (s Spec) HasAudio() bool {
	return s.AudioCodec != ""
}

// canonicalEffects fixes the order effect filters are applied in,
// regardless of the order they were requested.
var canonicalEffects = []string{"reverse", "blur", "sharpen", "brightness", "contrast"}

var effectFilters = map[string]string{
	"reverse":    "reverse",
	"blur":       "boxblur=5:1",
	"sharpen":    "unsharp=5:5:1.5:5:5:0",
	"brightness": "eq=brightness=0.1",
	"contrast":   "eq=contrast=1.2",
}

// Compile builds the filter pipeline for the given operations against a
// source of the given dimensions.
//
// Crop requests are clamped to the source frame; a crop that leaves no
// visible area is dropped entirely. A speed change outside what the atempo
// audio filter supports ([0.5,2.0]) is clamped on the audio side only, so
// audio and video rates intentionally diverge beyond that range — a known
// engine limitation, not something to paper over here.
func Compile(ops models.Operations, sourceWidth, sourceHeight int) Spec {
	spec := Spec{
		VideoFilters: []string{},
		AudioFilters: []string{},
	}

	if ops.Trim != nil {
		spec.VideoFilters = append(spec.VideoFilters,
			fmt.Sprintf("trim=start=%s:duration=%s", formatNum(ops.Trim.Start), formatNum(ops.Trim.Duration)))
	}

	if ops.Crop != nil {
		if filter, ok := cropFilter(*ops.Crop, sourceWidth, sourceHeight); ok {
			spec.VideoFilters = append(spec.VideoFilters, filter)
		}
	}

	if ops.Scale != nil {
		spec.VideoFilters = append(spec.VideoFilters,
			fmt.Sprintf("scale=%d:%d", ops.Scale.Width, ops.Scale.Height))
	}

	format := ops.Format
	if format == "" {
		format = models.FormatMP4
	}

	if ops.Speed != 0 && ops.Speed != 1 {
		spec.VideoFilters = append(spec.VideoFilters,
			fmt.Sprintf("setpts=%s*PTS", formatNum(1/ops.Speed)))
		if format != models.FormatGIF {
			spec.AudioFilters = append(spec.AudioFilters,
				fmt.Sprintf("atempo=%s", formatNum(clamp(ops.Speed, 0.5, 2.0))))
		}
	}

	requested := make(map[string]bool, len(ops.Effects))
	for _, effect := range ops.Effects {
		requested[effect] = true
	}
	for _, effect := range canonicalEffects {
		if requested[effect] {
			spec.VideoFilters = append(spec.VideoFilters, effectFilters[effect])
		}
	}

	spec.CRF, spec.Preset = resolveQuality(ops.Quality)

	switch format {
	case models.FormatWebM:
		spec.VideoCodec = "libvpx-vp9"
		spec.AudioCodec = "libopus"
		spec.AudioBitrate = "96k"
	case models.FormatGIF:
		spec.VideoCodec = "gif"
	default:
		spec.VideoCodec = "libx264"
		spec.AudioCodec = "aac"
		spec.AudioBitrate = "128k"
	}

	return spec
}

// cropFilter clamps the requested rectangle against the source frame.
// The second return value is false when nothing sensible remains.
func cropFilter(crop models.Crop, sourceWidth, sourceHeight int) (string, bool) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return "", false
	}
	if crop.X >= sourceWidth || crop.Y >= sourceHeight {
		return "", false
	}
	width := min(crop.Width, sourceWidth-crop.X)
	height := min(crop.Height, sourceHeight-crop.Y)
	if width <= 0 || height <= 0 {
		return "", false
	}
	return fmt.Sprintf("crop=%d:%d:%d:%d", width, height, crop.X, crop.Y), true
}

// resolveQuality maps a quality request onto ffmpeg rate control: named
// presets use fixed CRF/preset pairs, a numeric quality is taken as the CRF
// directly with the encoder preset pinned to medium.
func resolveQuality(q *models.Quality) (crf int, preset string) {
	if q == nil {
		return 23, "medium"
	}
	switch q.Preset {
	case "high":
		return 18, "slow"
	case "low":
		return 28, "fast"
	case "medium":
		return 23, "medium"
	}
	return int(q.CRF), "medium"
}

// Args renders the spec into the ffmpeg invocation for the given input and
// output paths. Progress is requested on stderr as key=value lines.
func Args(spec Spec, inputPath, outputPath string) []string {
	args := []string{"-y", "-i", inputPath}

	if len(spec.VideoFilters) > 0 {
		args = append(args, "-vf", strings.Join(spec.VideoFilters, ","))
	}
	if spec.HasAudio() && len(spec.AudioFilters) > 0 {
		args = append(args, "-af", strings.Join(spec.AudioFilters, ","))
	}

	args = append(args, "-c:v", spec.VideoCodec)
	if spec.VideoCodec != "gif" {
		// Rate-control options only apply to the x264/vp9 encoders.
		args = append(args, "-preset", spec.Preset, "-crf", strconv.Itoa(spec.CRF))
	}

	if spec.HasAudio() {
		args = append(args, "-c:a", spec.AudioCodec, "-b:a", spec.AudioBitrate)
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-progress", "pipe:2", "-nostats", outputPath)
	return args
}

// formatNum renders floats without trailing zeros (0.25, 2, 1.5).
func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
