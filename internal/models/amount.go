package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type amountKind uint8

const (
	amountString amountKind = iota
	amountNumber
	amountRaw
)

// Amount is a decimal value kept in the textual form it was entered or stored
// in. Stored collections may hold either JSON strings or numbers, and a value
// that does not parse is carried along rather than rejected.
type Amount struct {
	text string
	kind amountKind
}

// NewAmount wraps user-entered text.
func NewAmount(s string) Amount {
	return Amount{text: strings.TrimSpace(s)}
}

func (a Amount) String() string {
	return a.text
}

// Decimal parses the amount. ok is false when the text is not numeric.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	if a.kind == amountRaw || a.text == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(a.text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Value returns the numeric amount, or zero when it is not numeric.
func (a Amount) Value() decimal.Decimal {
	d, _ := a.Decimal()
	return d
}

// MarshalJSON writes the amount back in the form it was read.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case amountNumber, amountRaw:
		if a.text != "" {
			return []byte(a.text), nil
		}
	}
	return json.Marshal(a.text)
}

// UnmarshalJSON accepts a string, a number or any other scalar token.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount{text: s, kind: amountString}
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*a = Amount{text: n.String(), kind: amountNumber}
	default:
		*a = Amount{text: string(b), kind: amountRaw}
	}
	return nil
}
