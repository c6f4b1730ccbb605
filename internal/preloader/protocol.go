package preloader

import (
	"encoding/json"
	"fmt"
)

// Commands sent to the preloader over its stdin.
const (
	cmdGetImageInfo = "get_image_info"
	cmdPreload      = "preload"
)

// Event types received from the preloader over its stdout.
const (
	typeResult   = "result"
	typeError    = "error"
	typeProgress = "progress"
	typeSpinner  = "spinner"
)

// A single command sent to the preloader.
type request struct {
	Command    string `json:"command"`
	Parameters any    `json:"parameters,omitempty"`
}

// Parameters of the preload command.
type preloadParams struct {
	AppID       int    `json:"app_id"`
	Commit      string `json:"commit"`
	SplashImage string `json:"splash_image,omitempty"` // In-container path, set when a splash image was copied in.
}

// Payload of a result event. The result body is command-specific.
type resultEvent struct {
	Result json.RawMessage `json:"result"`
}

// Payload of an error event.
type errorEvent struct {
	Message string `json:"message"`
}

// Payload of a progress event.
type progressEvent struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

// Payload of a spinner event.
type spinnerEvent struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

// Image information reported by the preloader after opening the disk image.
type imageInfo struct {
	DeviceType        string   `json:"device_type"`
	Arch              string   `json:"arch"`
	PreloadedBuilds   []string `json:"preloaded_builds"`
	SupervisorVersion string   `json:"supervisor_version"`
}

// Encodes a command as a single newline-terminated protocol line.
func encodeRequest(command string, params any) ([]byte, error) {
	data, err := json.Marshal(request{Command: command, Parameters: params})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decodes the envelope of one protocol line, returning the event type and
// the raw line for payload decoding once the type is known.
func decodeLine(line []byte) (string, json.RawMessage, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &env); err != nil {
		return "", nil, fmt.Errorf("malformed protocol line: %w", err)
	}
	return env.Type, json.RawMessage(line), nil
}

// Decodes a raw protocol line into a typed payload.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("malformed %T payload: %w", payload, err)
	}
	return payload, nil
}
