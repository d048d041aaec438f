package types

import "encoding/json"

// Optional distinguishes an absent JSON field from an explicit null, which is
// what lets a PUT body clear a nullable column with "field": null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true

	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	return json.Unmarshal(data, &o.Value)
}
