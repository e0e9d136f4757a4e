package storage

import (
	"encoding/json"
	"fmt"
)

// Params carries free-form settings for the script attached to an asset.
type Params map[string]json.RawMessage

// Set stores v under key after marshalling it to JSON.
func (p *Params) Set(key string, v any) error {
	if *p == nil {
		*p = Params{}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal param %q: %w", key, err)
	}

	(*p)[key] = json.RawMessage(b)
	return nil
}

// Get unmarshals the value at key into out. It returns false, nil when the
// key is absent.
func (p Params) Get(key string, out any) (bool, error) {
	raw, ok := p[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("unmarshal param %q: %w", key, err)
	}
	return true, nil
}

// Int returns the integer at key, or def when it is absent or malformed.
func (p Params) Int(key string, def int64) int64 {
	var v int64
	ok, err := p.Get(key, &v)
	if !ok || err != nil {
		return def
	}
	return v
}
