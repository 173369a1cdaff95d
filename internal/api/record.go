package api

import (
	"bytes"
	"encoding/json"

	"github.com/tosurnament/dashboard/internal/field"
)

// Record is a backend resource kept as decoded JSON. The dashboard edits a
// few known keys and passes everything else back untouched.
type Record map[string]any

func (r Record) String(key string) string {
	return field.Stringify(r[key])
}

// ID is the backend id of the record.
func (r Record) ID() string {
	return r.String("id")
}

func (r Record) Record(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	}
	return nil
}

func (r Record) Records(key string) []Record {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, Record(m))
		}
	}
	return records
}

// Clone copies the top level keys, nested values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy lacking the given keys.
func (r Record) Without(keys ...string) Record {
	out := r.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := decode(data, &m); err != nil {
		return err
	}
	*r = m
	return nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
