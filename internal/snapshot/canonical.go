package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/skelpose/internal/pose"
)

// floatPrecision is the grid every float is rounded to before rendering.
const floatPrecision = 1e6

// object is a JSON object whose keys are written in canonical order.
type object map[string]any

// MarshalCanonical renders s as canonical JSON.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats are rounded to 1e-6 and written without exponent; -0 becomes 0
//  5. NaN and Inf are rejected
func MarshalCanonical(s Snapshot) ([]byte, error) {
	bones := make([]any, len(s.Bones))
	for i, b := range s.Bones {
		bones[i] = object{
			"name":    b.Name,
			"world":   affineObject(b.World),
			"applied": transformObject(b.Applied),
		}
	}
	out, err := marshalValue(object{
		"skeleton": s.Skeleton,
		"frame":    s.Frame,
		"bones":    bones,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %q frame %d: %w", s.Skeleton, s.Frame, err)
	}
	return out, nil
}

func affineObject(m pose.Affine) object {
	return object{"a": m.A, "b": m.B, "c": m.C, "d": m.D, "x": m.X, "y": m.Y}
}

func transformObject(t pose.Transform) object {
	return object{
		"x":        t.X,
		"y":        t.Y,
		"rotation": t.Rotation,
		"scaleX":   t.ScaleX,
		"scaleY":   t.ScaleY,
		"shearX":   t.ShearX,
		"shearY":   t.ShearY,
	}
}

// MarshalValue renders v as canonical JSON. v may be built from strings,
// float64, int, int64, bool, []any and map[string]any.
func MarshalValue(v any) ([]byte, error) {
	return marshalValue(v)
}

func marshalValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalString(val)
	case float64:
		return marshalFloat(val)
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case bool:
		return strconv.AppendBool(nil, val), nil
	case []any:
		return marshalArray(val)
	case object:
		return marshalObject(val)
	case map[string]any:
		return marshalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v", f)
	}
	f = math.Round(f*floatPrecision) / floatPrecision
	if f == 0 {
		f = 0 // drops the sign of -0
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// marshalString writes an NFC-normalized JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func marshalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj object) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareUTF16 orders strings by UTF-16 code units, which differs from Go's
// byte order for characters above U+FFFF.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Unmarshal parses canonical snapshot JSON.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
