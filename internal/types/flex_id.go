package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexID is an optional row id that can be unmarshaled from a JSON number,
// a numeric JSON string, or null. Set tells an explicit null apart from an
// absent field.
type FlexID struct {
	ID    uint64
	Valid bool
	Set   bool
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	f.Set = true
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		f.ID, f.Valid = 0, false
		return nil
	}

	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		f.ID, f.Valid = n, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			f.ID, f.Valid = 0, false
			return nil
		}
		val, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("FlexID: invalid id string %q: %w", s, err)
		}
		f.ID, f.Valid = val, true
		return nil
	}

	return fmt.Errorf("FlexID: unexpected type, expected number, string or null")
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.ID)
}

// Ptr returns the id as a pointer, nil when null or absent
func (f FlexID) Ptr() *uint64 {
	if !f.Valid {
		return nil
	}
	id := f.ID
	return &id
}

// NewFlexID returns a valid FlexID
func NewFlexID(id uint64) FlexID {
	return FlexID{ID: id, Valid: true, Set: true}
}
