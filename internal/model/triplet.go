package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TripletFields is the number of fields every Triplet carries.
const TripletFields = 3

// ErrTripletShape is returned when decoding a triplet that does not have
// exactly three string fields.
var ErrTripletShape = errors.New("triplet must have exactly 3 fields")

// Triplet is one result extracted from a listing element on a crawled page.
// The zero value is a valid, empty triplet. Fields are unexported so a
// Triplet cannot be changed after the parser creates it.
type Triplet struct {
	label    string
	value    string
	metadata string
}

// NewTriplet creates a Triplet from its three fields.
//
// For a user listing page, label is the entry title, value is the absolute
// permalink, and metadata is the community the entry was posted in.
func NewTriplet(label, value, metadata string) Triplet {
	return Triplet{label: label, value: value, metadata: metadata}
}

// Label returns the first field.
func (t Triplet) Label() string { return t.label }

// Value returns the second field.
func (t Triplet) Value() string { return t.value }

// Metadata returns the third field.
func (t Triplet) Metadata() string { return t.metadata }

// Fields returns the three fields in order.
func (t Triplet) Fields() [TripletFields]string {
	return [TripletFields]string{t.label, t.value, t.metadata}
}

// Len always returns TripletFields.
func (t Triplet) Len() int { return TripletFields }

// String returns a compact human-readable form.
func (t Triplet) String() string {
	return fmt.Sprintf("(%q, %q, %q)", t.label, t.value, t.metadata)
}

// MarshalJSON encodes the triplet as a three-element JSON array.
func (t Triplet) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Fields())
}

// UnmarshalJSON decodes a three-element JSON array of strings.
func (t *Triplet) UnmarshalJSON(data []byte) error {
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != TripletFields {
		return fmt.Errorf("%w: got %d", ErrTripletShape, len(fields))
	}
	*t = NewTriplet(fields[0], fields[1], fields[2])
	return nil
}
