package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Accepted input layouts, most specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a UTC instant that also accepts plain dates and local
// datetimes from form inputs.
type Timestamp struct {
	time.Time
}

// Now returns the current instant truncated to microseconds
func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Microsecond)}
}

// At wraps t as a Timestamp
func At(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

// ParseTimestamp parses s using the accepted layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid date %q", s)
}

// MarshalJSON encodes the timestamp as RFC3339, or null when zero
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON decodes any accepted layout
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalBSONValue stores the timestamp as a BSON datetime
func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t.IsZero() {
		return bson.MarshalValue(nil)
	}
	return bson.MarshalValue(t.UTC())
}

// UnmarshalBSONValue reads a BSON datetime or null
func (t *Timestamp) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	if typ == bsontype.Null || typ == bsontype.Undefined {
		*t = Timestamp{}
		return nil
	}
	raw := bson.RawValue{Type: typ, Value: data}
	dt, ok := raw.DateTimeOK()
	if !ok {
		return fmt.Errorf("cannot decode %s into Timestamp", typ)
	}
	*t = Timestamp{time.UnixMilli(dt).UTC()}
	return nil
}

// Display renders the timestamp the way reports and exports show dates
func (t Timestamp) Display() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02/01/2006 15:04")
}

// DisplayDate renders only the date part
func (t Timestamp) DisplayDate() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02/01/2006")
}
