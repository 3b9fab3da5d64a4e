package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BCGPosition places one product on the BCG matrix.
// MarketShare is a fraction in [0,1]; GrowthRate is already a percentage.
type BCGPosition struct {
	MarketShare *float64 `json:"market_share"`
	GrowthRate  *float64 `json:"growth_rate"`
}

// BCGEntry is one product of the matrix.
type BCGEntry struct {
	Product  string
	Position BCGPosition
}

// BCGMatrix maps product names to positions and keeps the order in which
// products appear in the JSON object.
type BCGMatrix []BCGEntry

// Len returns the number of products.
func (m BCGMatrix) Len() int { return len(m) }

// Get looks a product up by name.
func (m BCGMatrix) Get(product string) (BCGPosition, bool) {
	for _, e := range m {
		if e.Product == product {
			return e.Position, true
		}
	}
	return BCGPosition{}, false
}

// UnmarshalJSON decodes a JSON object while recording key order.
// null decodes to an empty matrix.
func (m *BCGMatrix) UnmarshalJSON(data []byte) error {
	*m = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("bcg_matrix: expected object, got %v", tok)
	}

	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("bcg_matrix: expected key, got %v", tok)
		}
		var pos BCGPosition
		if err := dec.Decode(&pos); err != nil {
			return fmt.Errorf("bcg_matrix[%s]: %w", key, err)
		}
		// Duplicate keys keep the first position and the last value, like a JS object.
		if i, dup := index[key]; dup {
			(*m)[i].Position = pos
			continue
		}
		index[key] = len(*m)
		*m = append(*m, BCGEntry{Product: key, Position: pos})
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the matrix back into an object in the recorded order.
func (m BCGMatrix) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Product)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Position)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
