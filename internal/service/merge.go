package service

import (
	"encoding/json"
	"strings"
)

// patch is a PUT body decoded key by key. Keys the server owns are removed
// on decode so they can never overwrite stored values.
type patch map[string]json.RawMessage

func decodePatch(body []byte) (patch, error) {
	var p patch
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, invalid("invalid request body: %v", err)
	}
	if p == nil {
		return nil, invalid("request body must be a JSON object")
	}
	for k := range p {
		switch {
		case k == "_id", k == "creado_en", k == "actualizado_en", k == "password_hash":
			delete(p, k)
		case strings.HasSuffix(k, "_encrypted"):
			delete(p, k)
		}
	}
	return p, nil
}

// takeString removes key and returns its string value. Absent, null and
// empty values all report ok=false.
func (p patch) takeString(key string) (string, bool, error) {
	raw, ok := p[key]
	if !ok {
		return "", false, nil
	}
	delete(p, key)
	if string(raw) == "null" {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, invalid("%s must be a string", key)
	}
	return s, s != "", nil
}

// applyTo overlays the remaining keys onto dst. Unknown keys are ignored.
func (p patch) applyTo(dst any) error {
	if len(p) == 0 {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return invalid("invalid request body: %v", err)
	}
	return nil
}
