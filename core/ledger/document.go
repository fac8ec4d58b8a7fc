package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DocumentError reports a malformed field met while decoding a ledger document.
type DocumentError struct {
	Field string // e.g. "March.amount"
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// MarshalJSON encodes the ledger in its document shape:
// {"January": {...}, ..., "December": {...}, "Additional": {...}}.
func (l YearLedger) MarshalJSON() ([]byte, error) {
	doc := make(map[string]map[string]interface{}, len(l.Months)+1)
	adj := l.Kind.AdjustmentField()
	for _, m := range Months {
		c := l.Month(m)
		doc[m.String()] = map[string]interface{}{
			"amount":  c.Amount,
			adj:       c.Adjustment,
			"paid":    c.Paid,
			"remarks": c.Remarks,
		}
	}
	doc[AdditionalKey] = map[string]interface{}{
		"amount":      l.Additional.Amount,
		adj:           l.Additional.Adjustment,
		"paid":        l.Additional.Paid,
		"remarks":     l.Additional.Remarks,
		"description": l.Additional.Description,
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a ledger document, normalizing loosely typed values:
// amounts may be numbers or numeric strings, paid may be a bool or "true"/"false",
// absent months and fields are zero. The receiver's Kind picks the adjustment
// field; the other kind's field name is accepted as a fallback.
func (l *YearLedger) UnmarshalJSON(data []byte) error {
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "decoding ledger document")
	}

	kind := l.Kind
	out := YearLedger{Kind: kind}
	for _, m := range Months {
		raw, ok := lookupFold(doc, m.String())
		if !ok {
			continue
		}
		c, err := decodeCell(m.String(), kind, raw)
		if err != nil {
			return err
		}
		c.Description = ""
		out.SetMonth(m, c)
	}
	if raw, ok := lookupFold(doc, AdditionalKey); ok {
		c, err := decodeCell(AdditionalKey, kind, raw)
		if err != nil {
			return err
		}
		out.Additional = c
	}
	*l = out
	return nil
}

func lookupFold(doc map[string]map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	if v, ok := doc[key]; ok {
		return v, true
	}
	for k, v := range doc {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func decodeCell(name string, kind Kind, raw map[string]json.RawMessage) (Cell, error) {
	var (
		c   Cell
		err error
	)
	if c.Amount, err = decodeAmount(raw["amount"]); err != nil {
		return Cell{}, &DocumentError{Field: name + ".amount", Err: err}
	}

	adjField := kind.AdjustmentField()
	adjRaw, ok := raw[adjField]
	if !ok {
		other := Fee
		if kind == Fee {
			other = Salary
		}
		adjField = other.AdjustmentField()
		adjRaw = raw[adjField]
	}
	if c.Adjustment, err = decodeAmount(adjRaw); err != nil {
		return Cell{}, &DocumentError{Field: name + "." + adjField, Err: err}
	}

	if c.Paid, err = decodeBool(raw["paid"]); err != nil {
		return Cell{}, &DocumentError{Field: name + ".paid", Err: err}
	}
	if c.Remarks, err = decodeString(raw["remarks"]); err != nil {
		return Cell{}, &DocumentError{Field: name + ".remarks", Err: err}
	}
	if c.Description, err = decodeString(raw["description"]); err != nil {
		return Cell{}, &DocumentError{Field: name + ".description", Err: err}
	}
	return c, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if isNull(raw) {
		return decimal.Zero, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	return decimal.NewFromString(n.String())
}

func decodeBool(raw json.RawMessage) (bool, error) {
	if isNull(raw) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, errors.New("not a boolean")
	}
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func decodeString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("not a string")
	}
	return n.String(), nil
}

// DecodeDocument decodes a stored document of kind.
func DecodeDocument(kind Kind, data []byte) (YearLedger, error) {
	l := YearLedger{Kind: kind}
	if err := json.Unmarshal(data, &l); err != nil {
		return YearLedger{}, err
	}
	return l, nil
}
