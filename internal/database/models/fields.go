package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidField is wrapped by every custom field validation failure
var ErrInvalidField = errors.New("invalid field")

// FieldKind tags the variant held by a FieldValue
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindBoolean
	KindDate
)

func (k FieldKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// FieldValue is one custom attribute value: text, number, boolean or date
type FieldValue struct {
	kind FieldKind
	text string
	num  float64
	b    bool
	date time.Time
}

// TextValue returns a text value
func TextValue(s string) FieldValue { return FieldValue{kind: KindText, text: s} }

// NumberValue returns a number value
func NumberValue(n float64) FieldValue { return FieldValue{kind: KindNumber, num: n} }

// BoolValue returns a boolean value
func BoolValue(b bool) FieldValue { return FieldValue{kind: KindBoolean, b: b} }

// DateValue returns a date value
func DateValue(t time.Time) FieldValue { return FieldValue{kind: KindDate, date: t.UTC()} }

// Kind returns the variant tag
func (v FieldValue) Kind() FieldKind { return v.kind }

// Number returns the numeric value and whether v is a number
func (v FieldValue) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// Bool returns the boolean value and whether v is a boolean
func (v FieldValue) Bool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Date returns the date value and whether v is a date
func (v FieldValue) Date() (time.Time, bool) { return v.date, v.kind == KindDate }

// IsEmpty reports whether v is an empty text value
func (v FieldValue) IsEmpty() bool {
	return v.kind == KindText && strings.TrimSpace(v.text) == ""
}

// String renders the value for display
func (v FieldValue) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBoolean:
		if v.b {
			return "Sí"
		}
		return "No"
	case KindDate:
		return formatFieldDate(v.date)
	default:
		return v.text
	}
}

// MarshalJSON encodes the value with its natural JSON type
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBoolean:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(formatFieldDate(v.date))
	default:
		return json.Marshal(v.text)
	}
}

func formatFieldDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// decodeFieldValue infers the variant from a raw JSON token. The second
// result is false for null.
func decodeFieldValue(raw json.RawMessage) (FieldValue, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return FieldValue{}, false, nil
	}
	switch raw[0] {
	case 'n':
		return FieldValue{}, false, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return FieldValue{}, false, err
		}
		return TextValue(s), true, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return FieldValue{}, false, err
		}
		return BoolValue(b), true, nil
	case '{', '[':
		// nested structures are kept verbatim as text
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return FieldValue{}, false, err
		}
		return TextValue(buf.String()), true, nil
	default:
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return FieldValue{}, false, err
		}
		return NumberValue(n), true, nil
	}
}

// Fields is an ordered map of custom attribute names to typed values. The
// zero value is an empty map ready to use.
type Fields struct {
	keys []string
	vals map[string]FieldValue
}

// NewFields builds a Fields from alternating key/value pairs
func NewFields(pairs ...any) Fields {
	var f Fields
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case FieldValue:
			f.Set(key, v)
		case string:
			f.Set(key, TextValue(v))
		case bool:
			f.Set(key, BoolValue(v))
		case int:
			f.Set(key, NumberValue(float64(v)))
		case float64:
			f.Set(key, NumberValue(v))
		case time.Time:
			f.Set(key, DateValue(v))
		}
	}
	return f
}

// Set adds or replaces a value, keeping the original position of existing keys
func (f *Fields) Set(key string, v FieldValue) {
	if f.vals == nil {
		f.vals = make(map[string]FieldValue)
	}
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

// Get returns the value stored under key
func (f Fields) Get(key string) (FieldValue, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Delete removes key
func (f *Fields) Delete(key string) {
	if _, ok := f.vals[key]; !ok {
		return
	}
	delete(f.vals, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of entries
func (f Fields) Len() int {
	return len(f.keys)
}

// MarshalJSON encodes the map as a JSON object in key order
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order. Null entries
// are dropped.
func (f *Fields) UnmarshalJSON(data []byte) error {
	*f = Fields{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected an object", ErrInvalidField)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected a key", ErrInvalidField)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
		}
		v, present, err := decodeFieldValue(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidField, key, err)
		}
		if present {
			f.Set(key, v)
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return nil
}

// MarshalBSON encodes the map as an ordered BSON document
func (f Fields) MarshalBSON() ([]byte, error) {
	doc := make(bson.D, 0, len(f.keys))
	for _, k := range f.keys {
		v := f.vals[k]
		var val any
		switch v.kind {
		case KindNumber:
			val = v.num
		case KindBoolean:
			val = v.b
		case KindDate:
			val = primitive.NewDateTimeFromTime(v.date)
		default:
			val = v.text
		}
		doc = append(doc, bson.E{Key: k, Value: val})
	}
	return bson.Marshal(doc)
}

// UnmarshalBSON decodes an ordered BSON document
func (f *Fields) UnmarshalBSON(data []byte) error {
	*f = Fields{}
	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	for _, el := range elems {
		val := el.Value()
		switch val.Type {
		case bsontype.String:
			f.Set(el.Key(), TextValue(val.StringValue()))
		case bsontype.Boolean:
			f.Set(el.Key(), BoolValue(val.Boolean()))
		case bsontype.Double:
			f.Set(el.Key(), NumberValue(val.Double()))
		case bsontype.Int32:
			f.Set(el.Key(), NumberValue(float64(val.Int32())))
		case bsontype.Int64:
			f.Set(el.Key(), NumberValue(float64(val.Int64())))
		case bsontype.DateTime:
			f.Set(el.Key(), DateValue(val.Time()))
		case bsontype.Null, bsontype.Undefined:
		default:
			f.Set(el.Key(), TextValue(val.String()))
		}
	}
	return nil
}

// FieldType is the declared type of a configurable field
type FieldType string

const (
	FieldTexto    FieldType = "texto"
	FieldNumero   FieldType = "numero"
	FieldFecha    FieldType = "fecha"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case FieldTexto, FieldNumero, FieldFecha, FieldSelect, FieldCheckbox:
		return true
	}
	return false
}

// FieldDescriptor describes one deployment-configurable field
type FieldDescriptor struct {
	Nombre      string    `json:"nombre" bson:"nombre"`
	Tipo        FieldType `json:"tipo" bson:"tipo"`
	Requerido   bool      `json:"requerido" bson:"requerido"`
	Descripcion string    `json:"descripcion,omitempty" bson:"descripcion,omitempty"`
	Opciones    []string  `json:"opciones,omitempty" bson:"opciones,omitempty"`
}

// Validate checks a single descriptor
func (d FieldDescriptor) Validate() error {
	if strings.TrimSpace(d.Nombre) == "" {
		return fmt.Errorf("%w: el nombre del campo es requerido", ErrInvalidField)
	}
	if !d.Tipo.Valid() {
		return fmt.Errorf("%w: tipo de campo inválido %q para %s", ErrInvalidField, d.Tipo, d.Nombre)
	}
	if d.Tipo == FieldSelect {
		hasOption := false
		for _, o := range d.Opciones {
			if strings.TrimSpace(o) != "" {
				hasOption = true
				break
			}
		}
		if !hasOption {
			return fmt.Errorf("%w: el campo select %s requiere opciones", ErrInvalidField, d.Nombre)
		}
	}
	return nil
}

// ValidateDescriptors checks every descriptor and rejects duplicate names
func ValidateDescriptors(descs []FieldDescriptor) error {
	seen := make(map[string]bool, len(descs))
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Nombre] {
			return fmt.Errorf("%w: campo duplicado %s", ErrInvalidField, d.Nombre)
		}
		seen[d.Nombre] = true
	}
	return nil
}

// Conform coerces every value to the kind its descriptor declares and
// enforces required fields. Keys without a descriptor are kept when
// allowUnknown is set and rejected otherwise.
func (f Fields) Conform(schema []FieldDescriptor, allowUnknown bool) (Fields, error) {
	byName := make(map[string]FieldDescriptor, len(schema))
	for _, d := range schema {
		byName[d.Nombre] = d
	}

	var out Fields
	for _, k := range f.keys {
		v := f.vals[k]
		d, known := byName[k]
		if !known {
			if !allowUnknown {
				return Fields{}, fmt.Errorf("%w: campo desconocido %s", ErrInvalidField, k)
			}
			out.Set(k, v)
			continue
		}
		if v.IsEmpty() && d.Tipo != FieldTexto {
			// empty form inputs mean absent
			continue
		}
		cv, err := coerce(v, d)
		if err != nil {
			return Fields{}, err
		}
		out.Set(k, cv)
	}

	for _, d := range schema {
		if !d.Requerido {
			continue
		}
		v, ok := out.Get(d.Nombre)
		if !ok || v.IsEmpty() {
			return Fields{}, fmt.Errorf("%w: el campo %s es requerido", ErrInvalidField, d.Nombre)
		}
	}

	return out, nil
}

// Interpret coerces values against schema where possible, leaving anything
// that does not fit untouched. It never fails and is used on read.
func (f Fields) Interpret(schema []FieldDescriptor) Fields {
	byName := make(map[string]FieldDescriptor, len(schema))
	for _, d := range schema {
		byName[d.Nombre] = d
	}

	var out Fields
	for _, k := range f.keys {
		v := f.vals[k]
		if d, ok := byName[k]; ok {
			if cv, err := coerce(v, d); err == nil {
				v = cv
			}
		}
		out.Set(k, v)
	}
	return out
}

func coerce(v FieldValue, d FieldDescriptor) (FieldValue, error) {
	switch d.Tipo {
	case FieldNumero:
		switch v.kind {
		case KindNumber:
			return v, nil
		case KindText:
			n, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
			if err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
				return NumberValue(n), nil
			}
		}
		return FieldValue{}, fmt.Errorf("%w: %s debe ser numérico", ErrInvalidField, d.Nombre)

	case FieldFecha:
		switch v.kind {
		case KindDate:
			return v, nil
		case KindText:
			if ts, err := ParseTimestamp(v.text); err == nil {
				return DateValue(ts.Time), nil
			}
		}
		return FieldValue{}, fmt.Errorf("%w: %s debe ser una fecha", ErrInvalidField, d.Nombre)

	case FieldCheckbox:
		switch v.kind {
		case KindBoolean:
			return v, nil
		case KindNumber:
			if v.num == 0 || v.num == 1 {
				return BoolValue(v.num == 1), nil
			}
		case KindText:
			switch strings.ToLower(strings.TrimSpace(v.text)) {
			case "true", "1", "si", "sí", "on":
				return BoolValue(true), nil
			case "false", "0", "no", "off":
				return BoolValue(false), nil
			}
		}
		return FieldValue{}, fmt.Errorf("%w: %s debe ser verdadero o falso", ErrInvalidField, d.Nombre)

	case FieldSelect:
		s := v.String()
		if v.kind == KindText {
			s = strings.TrimSpace(v.text)
		}
		for _, o := range d.Opciones {
			if strings.TrimSpace(o) == s {
				return TextValue(s), nil
			}
		}
		return FieldValue{}, fmt.Errorf("%w: %s no admite el valor %q", ErrInvalidField, d.Nombre, s)

	default:
		if v.kind == KindText {
			return v, nil
		}
		return TextValue(v.String()), nil
	}
}
