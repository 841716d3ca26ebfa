package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrDecimal = errors.New("invalid decimal")

// Budget columns hold up to 10 digits, 2 of them after the point.
const (
	MaxDigits     = 10
	DecimalPlaces = 2
)

// Cents is a fixed-point amount with DecimalPlaces digits after the point.
// It marshals as a JSON string ("5000.00") and accepts strings or numbers.
type Cents int64

func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrDecimal)
	}
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrDecimal, s)
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: no digits", ErrDecimal)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrDecimal, s)
	}
	if len(frac) > DecimalPlaces {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrDecimal, DecimalPlaces)
	}
	whole = strings.TrimLeft(whole, "0")
	if len(whole) > MaxDigits-DecimalPlaces {
		return 0, fmt.Errorf("%w: more than %d digits before the decimal point", ErrDecimal, MaxDigits-DecimalPlaces)
	}
	frac += strings.Repeat("0", DecimalPlaces-len(frac))

	v, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecimal, err)
	}
	if neg {
		v = -v
	}
	return Cents(v), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) Float() float64 { return float64(c) / 100 }

func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
