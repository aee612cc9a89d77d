// Package canonicaljson re-serializes JSON values into a normalized
// form so that two documents compare equal regardless of key order or
// insignificant whitespace, without altering any value.
package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// Marshal encodes v deterministically: object keys sorted, no extra
// whitespace. encoding/json already sorts map keys, so normalization is
// a decode round trip.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return Normalize(raw)
}

// Normalize rewrites raw JSON into canonical form. Numbers decode as
// json.Number so their text survives byte-for-byte; integers past
// 2^53 must not be rounded through float64 on the way to storage.
func Normalize(raw []byte) ([]byte, error) {
	v, err := decodeNumeric(raw)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode: %w", err)
	}
	return out, nil
}

// Equal reports whether a and b encode the same JSON value. Numbers
// compare by value, not by spelling, so "0.70" equals "0.7" while a
// 19-digit integer still compares exactly. Malformed input on either
// side compares unequal.
func Equal(a, b []byte) bool {
	va, err := decodeNumeric(a)
	if err != nil {
		return false
	}
	vb, err := decodeNumeric(b)
	if err != nil {
		return false
	}
	return valueEqual(va, vb)
}

func decodeNumeric(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func valueEqual(a, b interface{}) bool {
	switch va := a.(type) {
	case map[string]interface{}:
		vb, ok := b.(map[string]interface{})
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, av := range va {
			bv, ok := vb[k]
			if !ok || !valueEqual(av, bv) {
				return false
			}
		}
		return true
	case []interface{}:
		vb, ok := b.([]interface{})
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !valueEqual(va[i], vb[i]) {
				return false
			}
		}
		return true
	case json.Number:
		vb, ok := b.(json.Number)
		if !ok {
			return false
		}
		return numberEqual(va, vb)
	default:
		return a == b
	}
}

func numberEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ra, okA := new(big.Rat).SetString(a.String())
	rb, okB := new(big.Rat).SetString(b.String())
	if !okA || !okB {
		return false
	}
	return ra.Cmp(rb) == 0
}
