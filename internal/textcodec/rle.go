package textcodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Token is a run when Count >= 2, otherwise a bare literal.
type Token struct {
	Count int
	Value Value
}

func (t Token) IsRun() bool { return t.Count >= 2 }

// Encode groups maximal runs of equal values.
func Encode(values []Value) []Token {
	tokens := make([]Token, 0, len(values)/2+1)
	for i := 0; i < len(values); {
		n := 1
		for i+n < len(values) && values[i+n] == values[i] {
			n++
		}
		tokens = append(tokens, Token{Count: n, Value: values[i]})
		i += n
	}
	return tokens
}

// Decode expands tokens back into the flat value sequence.
func Decode(tokens []Token) []Value {
	size := 0
	for _, t := range tokens {
		size += max(t.Count, 1)
	}
	out := make([]Value, 0, size)
	for _, t := range tokens {
		for k := 0; k < max(t.Count, 1); k++ {
			out = append(out, t.Value)
		}
	}
	return out
}

// MarshalTokens writes the line form: [count,value] for runs and the bare
// value otherwise.
func MarshalTokens(tokens []Token) []byte {
	b := make([]byte, 0, len(tokens)*6+2)
	b = append(b, '[')
	for i, t := range tokens {
		if i > 0 {
			b = append(b, ',')
		}
		if t.IsRun() {
			b = append(b, '[')
			b = strconv.AppendInt(b, int64(t.Count), 10)
			b = append(b, ',')
			b = t.Value.appendJSON(b)
			b = append(b, ']')
			continue
		}
		b = t.Value.appendJSON(b)
	}
	return append(b, ']')
}

// EncodeLine run-length encodes values straight to the line form.
func EncodeLine(values []Value) []byte {
	return MarshalTokens(Encode(values))
}

// isRun is the exact decoding rule: a two element array whose first element
// is a number greater than 1 and whose second is "", a number or an array of
// three. Everything else is a literal.
func isRun(item any) bool {
	arr, ok := item.([]any)
	if !ok || len(arr) != 2 {
		return false
	}
	first, ok := arr[0].(json.Number)
	if !ok {
		return false
	}
	f, err := first.Float64()
	if err != nil || !(f > 1) {
		return false
	}
	switch second := arr[1].(type) {
	case string:
		return second == ""
	case json.Number:
		return true
	case []any:
		return len(second) == 3
	}
	return false
}

func parseTokens(items []any, limit int) ([]Token, error) {
	tokens := make([]Token, 0, len(items))
	total := 0
	for i, item := range items {
		var t Token
		if isRun(item) {
			arr := item.([]any)
			f, _ := arr[0].(json.Number).Float64()
			if f != math.Trunc(f) || f > math.MaxInt32 {
				return nil, fmt.Errorf("token %d: run length %v is not a count", i, arr[0])
			}
			v, err := parseValue(arr[1])
			if err != nil {
				return nil, fmt.Errorf("token %d: %w", i, err)
			}
			t = Token{Count: int(f), Value: v}
		} else {
			v, err := parseValue(item)
			if err != nil {
				return nil, fmt.Errorf("token %d: %w", i, err)
			}
			t = Token{Count: 1, Value: v}
		}
		total += t.Count
		if limit > 0 && total > limit {
			return nil, fmt.Errorf("token %d: expands past %d cells", i, limit)
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

func unmarshalArray(line []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeLine parses one run-length encoded line. A positive limit bounds the
// expanded length so a hostile count cannot exhaust memory.
func DecodeLine(line []byte, limit int) ([]Value, error) {
	items, err := unmarshalArray(line)
	if err != nil {
		return nil, err
	}
	tokens, err := parseTokens(items, limit)
	if err != nil {
		return nil, err
	}
	return Decode(tokens), nil
}
