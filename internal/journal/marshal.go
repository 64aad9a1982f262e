package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalAttrs converts console attributes to JSON TEXT. Map keys are
// sorted by encoding/json; values that cannot be encoded are stored as their
// fmt rendering so that a stray func or channel never drops an entry.
func marshalAttrs(attrs map[string]any) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	clean := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if _, err := json.Marshal(v); err != nil {
			clean[k] = fmt.Sprint(v)
			continue
		}
		clean[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(clean); err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalAttrs parses attribute JSON. Numbers stay json.Number so large
// integers survive the round trip.
func unmarshalAttrs(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return attrs, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
