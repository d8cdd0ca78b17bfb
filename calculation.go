package wasmhtmx

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotObject is returned when a calculation body is neither a JSON object nor an array.
var ErrNotObject = errors.New("body is not a JSON object")

// Calculation is a computation result reported by the browser-side WASM module.
// Fields are kept exactly as the client sent them, absent ones are unset.
type Calculation struct {
	Result Value `json:"result" form:"result"`
	Num1   Value `json:"num1" form:"num1"`
	Num2   Value `json:"num2" form:"num2"`

	ReceivedAt time.Time `json:"-" form:"-"`
}

// UnmarshalJSON accepts objects and arrays only. An array carries no fields.
func (c *Calculation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '[':
		*c = Calculation{}
		return nil
	case len(data) == 0 || data[0] != '{':
		return ErrNotObject
	}

	type plain Calculation
	return json.Unmarshal(data, (*plain)(c))
}

// Expression formats the calculation as "num1 + num2 = result".
func (c *Calculation) Expression() string {
	return c.Num1.String() + " + " + c.Num2.String() + " = " + c.Result.String()
}

// Value is a JSON value received from a client. The zero Value is unset.
type Value struct {
	raw json.RawMessage
}

// ValueOf returns the Value holding v encoded as JSON.
func ValueOf(v any) Value {
	raw, err := json.Marshal(v)
	if err != nil {
		return Value{}
	}
	return Value{raw: raw}
}

// UnmarshalJSON keeps a copy of data.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = bytes.Clone(data)
	return nil
}

// UnmarshalParam stores a form value as a string.
func (v *Value) UnmarshalParam(param string) error {
	*v = ValueOf(param)
	return nil
}

// MarshalJSON writes the value as received, null when unset.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.raw == nil {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsSet reports whether the client sent the field.
func (v Value) IsSet() bool {
	return v.raw != nil
}

// Float returns the value when it is a JSON number.
func (v Value) Float() (float64, bool) {
	n, ok := v.decode().(json.Number)
	if !ok {
		return 0, false
	}
	return parseNumber(n), true
}

// Truthy reports whether a browser would treat the value as true.
func (v Value) Truthy() bool {
	if !v.IsSet() {
		return false
	}
	switch x := v.decode().(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f := parseNumber(x)
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

// String prints the value the way a browser interpolates it into a string.
// An unset value prints as "undefined".
func (v Value) String() string {
	if !v.IsSet() {
		return "undefined"
	}
	return jsString(v.decode())
}

func (v Value) decode() any {
	dec := json.NewDecoder(bytes.NewReader(v.raw))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return string(v.raw)
	}
	return x
}

// ValueTypeFunc lets validator check Value fields: "required" holds for truthy values.
func ValueTypeFunc(field reflect.Value) interface{} {
	if v, ok := field.Interface().(Value); ok {
		return v.Truthy()
	}
	return nil
}

func jsString(x any) string {
	switch x := x.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case json.Number:
		return FormatNumber(parseNumber(x))
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = jsString(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// parseNumber overflows to ±Inf like a browser does.
func parseNumber(n json.Number) float64 {
	f, _ := strconv.ParseFloat(n.String(), 64)
	return f
}

// FormatNumber prints f in its shortest round-tripping form, the way a browser
// prints a number.
func FormatNumber(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21, math.Abs(f) < 1e-6:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
