package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Wire-shape suffixes for encrypted fields inside a flattened record.
const (
	// EncryptedSuffix marks the key holding a field's EncryptedValue.
	EncryptedSuffix = "_encrypted"
	// EncryptedMarkerSuffix marks the boolean flag accompanying an encrypted field.
	EncryptedMarkerSuffix = "_is_encrypted"
)

// FieldKind discriminates the variants of a FieldValue.
type FieldKind int

const (
	// KindNull is an absent or null field value. Null fields pass through
	// encryption untouched and are never encrypted.
	KindNull FieldKind = iota
	// KindPlain is an unencrypted string value.
	KindPlain
	// KindEncrypted is an encrypted field value.
	KindEncrypted
)

// FieldValue is the tagged value of one record field: null, a plain string,
// or an EncryptedValue. Records never hold open-ended dynamic values.
type FieldValue struct {
	kind      FieldKind
	plain     string
	encrypted *EncryptedValue
}

// NullField returns the null field value.
func NullField() FieldValue {
	return FieldValue{kind: KindNull}
}

// PlainField returns a plain string field value.
func PlainField(value string) FieldValue {
	return FieldValue{kind: KindPlain, plain: value}
}

// EncryptedField returns an encrypted field value.
func EncryptedField(value *EncryptedValue) FieldValue {
	return FieldValue{kind: KindEncrypted, encrypted: value}
}

// Kind returns the variant of the field value.
func (f FieldValue) Kind() FieldKind { return f.kind }

// IsEncrypted reports whether the field holds an encrypted value.
func (f FieldValue) IsEncrypted() bool { return f.kind == KindEncrypted }

// Plain returns the plain string value. Empty for null and encrypted fields.
func (f FieldValue) Plain() string { return f.plain }

// Encrypted returns the encrypted value, or nil for null and plain fields.
func (f FieldValue) Encrypted() *EncryptedValue { return f.encrypted }

// Record is an ordered mapping from field name to FieldValue. It represents
// both plaintext records (all fields plain) and encrypted records (PHI fields
// replaced by EncryptedValues). Field order is preserved across the JSON
// round-trip so a decrypt-then-re-encrypt cycle keeps the original shape.
//
// Records are owned by the caller once returned; the core keeps no reference.
type Record struct {
	names  []string
	fields map[string]FieldValue
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{fields: make(map[string]FieldValue)}
}

// Set stores a field value, appending the name on first insertion and
// replacing the value in place on re-insertion.
func (r *Record) Set(name string, value FieldValue) {
	if _, exists := r.fields[name]; !exists {
		r.names = append(r.names, name)
	}
	r.fields[name] = value
}

// SetPlain stores a plain string field.
func (r *Record) SetPlain(name, value string) {
	r.Set(name, PlainField(value))
}

// Get returns the value of a field and whether the field exists.
func (r *Record) Get(name string) (FieldValue, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Names returns the field names in insertion order.
func (r *Record) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	return len(r.names)
}

// HasEncryptedFields reports whether any field in the record is encrypted.
func (r *Record) HasEncryptedFields() bool {
	for _, v := range r.fields {
		if v.IsEncrypted() {
			return true
		}
	}
	return false
}

// MarshalJSON flattens the record into the wire shape: plain fields keep
// their name and value, encrypted fields emit a <name>_encrypted object and
// a <name>_is_encrypted=true marker. Field order is preserved.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeKey := func(key string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		encoded, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		buf.WriteByte(':')
		return nil
	}

	for _, name := range r.names {
		value := r.fields[name]
		switch value.kind {
		case KindNull:
			if err := writeKey(name); err != nil {
				return nil, err
			}
			buf.WriteString("null")
		case KindPlain:
			if err := writeKey(name); err != nil {
				return nil, err
			}
			encoded, err := json.Marshal(value.plain)
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
		case KindEncrypted:
			if err := writeKey(name + EncryptedSuffix); err != nil {
				return nil, err
			}
			encoded, err := json.Marshal(value.encrypted)
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
			if err := writeKey(name + EncryptedMarkerSuffix); err != nil {
				return nil, err
			}
			buf.WriteString("true")
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON folds the flat wire shape back into a record, pairing
// <name>_encrypted objects with their <name>_is_encrypted markers and
// preserving the order keys appear on the wire.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.names = nil
	r.fields = make(map[string]FieldValue)

	dec := json.NewDecoder(bytes.NewReader(data))

	// Opening brace
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrInvalidEncryptedValue
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return ErrInvalidEncryptedValue
		}

		switch {
		case strings.HasSuffix(key, EncryptedMarkerSuffix):
			// Marker flags carry no payload beyond confirming the pair.
			var marker bool
			if err := dec.Decode(&marker); err != nil {
				return err
			}
		case strings.HasSuffix(key, EncryptedSuffix):
			var ev EncryptedValue
			if err := dec.Decode(&ev); err != nil {
				return err
			}
			r.Set(strings.TrimSuffix(key, EncryptedSuffix), EncryptedField(&ev))
		default:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return err
			}
			if string(raw) == "null" {
				r.Set(key, NullField())
				continue
			}
			var plain string
			if err := json.Unmarshal(raw, &plain); err != nil {
				return err
			}
			r.Set(key, PlainField(plain))
		}
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
