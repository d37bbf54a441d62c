package tabular

import (
	"bytes"
	"encoding/json"

	"codeapi/internal/model"
)

// Field is one named value of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered set of fields. Records are not bound to a schema; two
// records in the same export may carry different keys.
type Record []Field

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record as a JSON object keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CodeRecord exposes a code as an exportable row.
func CodeRecord(c model.Code) Record {
	return Record{
		{Key: "value", Value: c.Value},
		{Key: "desc", Value: c.Desc},
		{Key: "providers", Value: c.Providers},
	}
}

// CodeRecords adapts a page of codes to records.
func CodeRecords(codes []model.Code) []Record {
	out := make([]Record, len(codes))
	for i, c := range codes {
		out[i] = CodeRecord(c)
	}
	return out
}
