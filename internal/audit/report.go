// Package audit filters npm audit reports against a list of accepted
// advisories and decides whether the remaining findings block the build.
package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedReport is returned when the audit tool's output cannot be
// decoded as a report.
var ErrMalformedReport = errors.New("audit failed to return valid json")

// Resolution is a single advisory resolution inside an action.
// A decoded Resolution keeps the bytes it was read from and encodes back
// to them, so fields not modeled here survive printing.
type Resolution struct {
	ID       int    `json:"id"`
	Path     string `json:"path,omitempty"`
	Dev      bool   `json:"dev"`
	Optional bool   `json:"optional"`
	Bundled  bool   `json:"bundled"`

	raw json.RawMessage
}

// resolutionFields has Resolution's fields without its methods.
type resolutionFields Resolution

// UnmarshalJSON implements json.Unmarshaler.
func (r *Resolution) UnmarshalJSON(data []byte) error {
	var fields resolutionFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = Resolution(fields)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON implements json.Marshaler. Resolutions built in code are
// encoded from their fields.
func (r Resolution) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resolutionFields(r)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Action is a remediation unit grouping advisory resolutions.
// Resolves is nil when the report omitted the field.
type Action struct {
	Action   string       `json:"action,omitempty"`
	Module   string       `json:"module,omitempty"`
	Target   string       `json:"target,omitempty"`
	Resolves []Resolution `json:"resolves"`
}

// Report is the subset of `npm audit --json` output consumed here.
type Report struct {
	Actions []Action `json:"actions"`
}

// ParseReport decodes raw audit output. Anything but a JSON object at the
// top level, including null, is malformed.
func ParseReport(data []byte) (*Report, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedReport)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	return &report, nil
}
