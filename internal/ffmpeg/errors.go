package ffmpeg

import "fmt"

// ProbeError reports a failure to read metadata from a source file.
type ProbeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// EngineError reports a transcode failure. Message carries the engine's own
// diagnostics verbatim; it ends up on the failed job record and is pushed to
// observers unchanged.
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string { return e.Message }
