package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingQuantity is returned by Quantity.Float64 when no reading is present.
var ErrMissingQuantity = errors.New("missing value")

// Quantity is a numeric reading that may be encoded as a JSON number or as a
// numeric string. The zero value is an absent reading. The original text is
// preserved so values round-trip through storage unchanged.
type Quantity struct {
	raw    string
	quoted bool
	set    bool
}

// QuantityOf returns a present reading for v.
func QuantityOf(v float64) Quantity {
	return Quantity{raw: strconv.FormatFloat(v, 'f', -1, 64), set: true}
}

// ParseQuantity wraps raw text as a present reading without validating it.
func ParseQuantity(raw string) Quantity {
	return Quantity{raw: raw, set: true}
}

// IsSet reports whether a reading is present.
func (q Quantity) IsSet() bool { return q.set }

// Raw returns the original text and whether a reading is present.
func (q Quantity) Raw() (string, bool) { return q.raw, q.set }

func (q Quantity) String() string { return q.raw }

// Float64 parses the reading. Non-finite values are rejected.
func (q Quantity) Float64() (float64, error) {
	if !q.set {
		return 0, ErrMissingQuantity
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(q.raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", q.raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", q.raw)
	}
	return v, nil
}

// Float64Or returns the parsed reading, or def when it is absent or invalid.
func (q Quantity) Float64Or(def float64) float64 {
	v, err := q.Float64()
	if err != nil {
		return def
	}
	return v
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*q = Quantity{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*q = Quantity{raw: str, quoted: true, set: true}
		return nil
	}
	// Anything else (numbers, but also booleans or objects from a malformed
	// payload) is kept verbatim and rejected later by Float64.
	*q = Quantity{raw: s, set: true}
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.set {
		return []byte("null"), nil
	}
	if q.quoted || !json.Valid([]byte(q.raw)) {
		return json.Marshal(q.raw)
	}
	return []byte(q.raw), nil
}
