// Package ffmpeg shells out to the ffmpeg/ffprobe binaries: probing source
// metadata and running compiled transcode pipelines while reporting progress.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"videoforge/internal/pipeline"
)

// Engine wraps the ffmpeg and ffprobe executables.
type Engine struct {
	FFmpegPath  string
	FFprobePath string
	Logger      *logrus.Logger
}

// NewEngine creates an Engine; empty paths fall back to binaries on PATH.
func NewEngine(ffmpegPath, ffprobePath string, logger *logrus.Logger) *Engine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Engine{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath, Logger: logger}
}

// Transcode runs the compiled pipeline against inputPath, writing the
// artifact to outputPath. onProgress receives rounded, non-decreasing
// percentages computed from ffmpeg's out_time against expectedSeconds
// (the predicted output duration). The call blocks until ffmpeg exits;
// a non-zero exit is returned as an *EngineError carrying the tail of
// the engine's stderr output.
func (e *Engine) Transcode(ctx context.Context, inputPath, outputPath string, spec pipeline.Spec, expectedSeconds float64, onProgress func(percent int)) error {
	args := pipeline.Args(spec, inputPath, outputPath)
	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &EngineError{Message: fmt.Sprintf("failed to attach to engine output: %v", err)}
	}

	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{
			"input":  inputPath,
			"output": outputPath,
			"args":   strings.Join(args, " "),
		}).Info("Starting ffmpeg process")
	}

	if err := cmd.Start(); err != nil {
		return &EngineError{Message: fmt.Sprintf("failed to start ffmpeg: %v", err)}
	}

	// ffmpeg interleaves its normal log output with -progress key=value
	// lines on stderr. Progress lines feed the percentage callback; the
	// rest is retained for the error message should the process fail.
	tail := newLineTail(20)
	lastPercent := 0

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, "=")
		if !found {
			tail.add(line)
			continue
		}

		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys report microseconds; ffmpeg emits each once per
			// progress interval.
			us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				continue
			}
			percent := percentOf(us, expectedSeconds)
			if percent > lastPercent {
				lastPercent = percent
				if onProgress != nil {
					onProgress(percent)
				}
			}
		case "progress", "frame", "fps", "bitrate", "total_size", "out_time",
			"dup_frames", "drop_frames", "speed", "stream_0_0_q":
			// Remaining progress keys are not needed for percentage tracking.
		default:
			tail.add(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		message := tail.String()
		if message == "" {
			message = err.Error()
		}
		return &EngineError{Message: message}
	}
	return nil
}

// percentOf converts an output timestamp in microseconds to a rounded
// percentage of the expected duration, clamped to [0,100].
func percentOf(outTimeUs int64, expectedSeconds float64) int {
	if expectedSeconds <= 0 {
		return 0
	}
	percent := int(math.Round(float64(outTimeUs) / 1e6 / expectedSeconds * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// lineTail keeps the last n non-empty lines seen, for error reporting.
type lineTail struct {
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, "\n")
}

// run executes a command and returns stdout, surfacing stderr in the error.
func run(cmd *exec.Cmd) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
