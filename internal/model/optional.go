package model

import "encoding/json"

// OptionalInt64 distinguishes an absent JSON field from an explicit null.
// The decoder only invokes UnmarshalJSON for keys present in the body, so
// Set reports presence and Valid reports non-null.
type OptionalInt64 struct {
	Set   bool
	Valid bool
	Value int64
}

func (o *OptionalInt64) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		return nil
	}
	o.Valid = true
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns the value as a pointer, nil when null or absent. Handy for
// SQL parameters, where a nil pointer binds as NULL.
func (o OptionalInt64) Ptr() *int64 {
	if !o.Set || !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
