package textcodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/asciivid/internal/glyph"
)

type ValueKind uint8

const (
	Blank ValueKind = iota
	Gray
	Color
)

// Value is one serialized cell: the blank marker "", a bare luminance number
// or an [r,g,b] triple. No value serializes to a two element array, which is
// what keeps run tokens unambiguous.
type Value struct {
	Kind ValueKind
	RGB  glyph.RGB
}

func BlankValue() Value { return Value{} }

func GrayValue(v uint8) Value { return Value{Kind: Gray, RGB: glyph.RGB{R: v, G: v, B: v}} }

func ColorValue(c glyph.RGB) Value { return Value{Kind: Color, RGB: c} }

// ValueOf serializes a cell. Gray colours collapse to a single number.
func ValueOf(c glyph.Cell) Value {
	if c.IsEmpty() {
		return BlankValue()
	}
	if c.Color.IsGray() {
		return GrayValue(c.Color.R)
	}
	return ColorValue(c.Color)
}

func (v Value) IsBlank() bool { return v.Kind == Blank }

func (v Value) String() string {
	switch v.Kind {
	case Gray:
		return strconv.Itoa(int(v.RGB.R))
	case Color:
		return fmt.Sprintf("[%d,%d,%d]", v.RGB.R, v.RGB.G, v.RGB.B)
	default:
		return `""`
	}
}

func (v Value) appendJSON(b []byte) []byte {
	switch v.Kind {
	case Gray:
		return strconv.AppendUint(b, uint64(v.RGB.R), 10)
	case Color:
		b = append(b, '[')
		b = strconv.AppendUint(b, uint64(v.RGB.R), 10)
		b = append(b, ',')
		b = strconv.AppendUint(b, uint64(v.RGB.G), 10)
		b = append(b, ',')
		b = strconv.AppendUint(b, uint64(v.RGB.B), 10)
		return append(b, ']')
	default:
		return append(b, '"', '"')
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := parseValue(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// parseValue accepts only the three literal shapes. null is read as blank.
func parseValue(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return BlankValue(), nil
	case string:
		if x != "" {
			return Value{}, fmt.Errorf("unexpected string cell %q", x)
		}
		return BlankValue(), nil
	case json.Number:
		n, err := channel(x)
		if err != nil {
			return Value{}, err
		}
		return GrayValue(n), nil
	case []any:
		if len(x) != 3 {
			return Value{}, fmt.Errorf("colour cell must have 3 channels, got %d", len(x))
		}
		var c [3]uint8
		for i, e := range x {
			num, ok := e.(json.Number)
			if !ok {
				return Value{}, fmt.Errorf("colour channel %d is not a number", i)
			}
			n, err := channel(num)
			if err != nil {
				return Value{}, err
			}
			c[i] = n
		}
		return ColorValue(glyph.RGB{R: c[0], G: c[1], B: c[2]}), nil
	}
	return Value{}, fmt.Errorf("unexpected cell %v", raw)
}

func channel(n json.Number) (uint8, error) {
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 || f > 255 {
		return 0, fmt.Errorf("channel value %s outside 0..255", n)
	}
	return uint8(f), nil
}
