package models

import (
	"bytes"
	"encoding/json"
	"io"

	"Gin_postgres_redis_inventory_tool/apperr"
)

// Optional is one field of a PATCH body. Set is false when the key was
// absent, Null is true when the key was present with a JSON null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Ptr is the column value: nil for null, the value otherwise.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}


// DecodeStrict reads exactly one JSON object into v, rejecting unknown keys.
func DecodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return apperr.Invalidf("request body is empty")
		}
		return apperr.Invalidf("invalid request body: %v", err)
	}
	if dec.More() {
		return apperr.Invalidf("invalid request body: trailing data")
	}
	return nil
}
