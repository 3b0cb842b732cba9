// Package jsonutil encodes JSON without HTML escaping. Generated artifacts are
// full of shell operators (&&, <, >) that should stay readable in results.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"io"
)

// Encode writes v to w followed by a newline. A non-empty indent pretty-prints.
func Encode(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

// MarshalNoEscape encodes v like json.Marshal but keeps <, > and & as is.
func MarshalNoEscape(v any) ([]byte, error) {
	return marshal(v, "")
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, indent string) ([]byte, error) {
	return marshal(v, indent)
}

func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, indent); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
