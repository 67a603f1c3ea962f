package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
// Generated source files and viewer pages embed JSON verbatim, so HTML escaping
// would corrupt them.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex tries to unmarshal JSON bytes into v with best effort:
// 1) direct unmarshal, 2) unwrap-and-retry. Figma plugin payloads cross the
// plugin bridge as postMessage strings and sometimes arrive wrapped in an
// extra layer of string quoting.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	unwrapped, err := unwrapQuoted(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(unwrapped, v)
}

// unwrapQuoted peels up to two layers of "JSON string containing JSON"
// wrapping and returns the innermost document.
func unwrapQuoted(raw []byte) ([]byte, error) {
	cur := raw
	for i := 0; i < 2; i++ {
		var s string
		if err := json.Unmarshal(cur, &s); err != nil {
			break
		}
		cur = []byte(s)
	}
	var probe any
	if err := json.Unmarshal(cur, &probe); err != nil {
		return nil, errors.New("jsonutil: cannot parse JSON payload")
	}
	return cur, nil
}
