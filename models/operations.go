package models

import "encoding/json"

// Output formats accepted by the processing API.
const (
	FormatMP4  = "mp4"
	FormatWebM = "webm"
	FormatGIF  = "gif"
)

// Effect tags accepted by the processing API.
var KnownEffects = []string{"reverse", "blur", "sharpen", "brightness", "contrast"}

// Quality is either a named preset (high, medium, low) or a raw CRF value
// in [0,51]. Exactly one of Preset and CRF is meaningful: Preset when
// non-empty, CRF otherwise.
type Quality struct {
	Preset string
	CRF    float64
}

// MarshalJSON preserves the client-facing union shape: a string for named
// presets, a number for raw CRF values.
func (q Quality) MarshalJSON() ([]byte, error) {
	if q.Preset != "" {
		return json.Marshal(q.Preset)
	}
	return json.Marshal(q.CRF)
}

// UnmarshalJSON accepts either form; values that fit neither leave the
// Quality zero-valued (callers go through SanitizeOperations anyway).
func (q *Quality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		q.Preset = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	q.CRF = n
	return nil
}

// Trim cuts the output to a window of the source timeline.
type Trim struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Crop selects a rectangle of the source frame. Width and height are
// clamped against the probed source dimensions when the filter pipeline
// is compiled, not here.
type Crop struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scale resizes the output frame to the requested dimensions.
type Scale struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Operations is a validated, bounded transformation request. Every field is
// optional; the zero value means "re-encode unchanged" (which still applies
// the default mp4 format and medium quality).
type Operations struct {
	Format  string   `json:"format,omitempty"`
	Quality *Quality `json:"quality,omitempty"`
	Trim    *Trim    `json:"trim,omitempty"`
	Crop    *Crop    `json:"crop,omitempty"`
	Scale   *Scale   `json:"scale,omitempty"`
	Speed   float64  `json:"speed,omitempty"`
	Effects []string `json:"effects,omitempty"`
}

// SanitizeOperations narrows a raw operations object into a well-typed
// Operations value. This is deliberately a sanitize, not a validate-or-reject:
// fields that do not type-check or violate their bounds are silently dropped,
// so the result is always usable. Changing this to return errors would change
// observable API behavior.
func SanitizeOperations(raw map[string]interface{}) Operations {
	var ops Operations
	if raw == nil {
		return ops
	}

	if format, ok := raw["format"].(string); ok {
		switch format {
		case FormatMP4, FormatWebM, FormatGIF:
			ops.Format = format
		}
	}

	switch quality := raw["quality"].(type) {
	case string:
		if quality == "high" || quality == "medium" || quality == "low" {
			ops.Quality = &Quality{Preset: quality}
		}
	case float64:
		if quality >= 0 && quality <= 51 {
			ops.Quality = &Quality{CRF: quality}
		}
	}

	if trim, ok := raw["trim"].(map[string]interface{}); ok {
		start, okStart := number(trim["start"])
		duration, okDur := number(trim["duration"])
		if okStart && okDur && start >= 0 && duration > 0 {
			ops.Trim = &Trim{Start: start, Duration: duration}
		}
	}

	if crop, ok := raw["crop"].(map[string]interface{}); ok {
		x, okX := number(crop["x"])
		y, okY := number(crop["y"])
		width, okW := number(crop["width"])
		height, okH := number(crop["height"])
		if okX && okY && okW && okH && x >= 0 && y >= 0 && width > 0 && height > 0 {
			ops.Crop = &Crop{X: int(x), Y: int(y), Width: int(width), Height: int(height)}
		}
	}

	if scale, ok := raw["scale"].(map[string]interface{}); ok {
		width, okW := number(scale["width"])
		height, okH := number(scale["height"])
		if okW && okH && width > 0 && height > 0 {
			ops.Scale = &Scale{Width: int(width), Height: int(height)}
		}
	}

	if speed, ok := number(raw["speed"]); ok && speed >= 0.25 && speed <= 4 {
		ops.Speed = speed
	}

	if effects, ok := raw["effects"].([]interface{}); ok {
		seen := make(map[string]bool)
		for _, e := range effects {
			tag, ok := e.(string)
			if !ok || seen[tag] || !knownEffect(tag) {
				continue
			}
			seen[tag] = true
			ops.Effects = append(ops.Effects, tag)
		}
	}

	return ops
}

func knownEffect(tag string) bool {
	for _, known := range KnownEffects {
		if tag == known {
			return true
		}
	}
	return false
}

// number extracts a float64 from a decoded JSON value.
func number(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
