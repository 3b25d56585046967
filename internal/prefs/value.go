package prefs

import "fmt"

// Kind identifies which variant of a Value is active.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindDouble
	KindBool
	KindObject
	KindBlob
	KindURL
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBool:    "bool",
	KindObject:  "object",
	KindBlob:    "blob",
	KindURL:     "url",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind returns the Kind named s, as produced by Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if k != int(KindInvalid) && name == s {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// Value is the single storage representation shared by every ValueStore and
// MemoryCache. Exactly one variant is active, selected by Kind. The zero
// Value is invalid.
type Value struct {
	kind Kind
	num  int64   // KindInt, KindBool (0/1)
	real float64 // KindFloat, KindDouble
	obj  any     // KindObject, normalized plist
	blob []byte  // KindBlob
	str  string  // KindURL
}

func IntValue(v int64) Value { return Value{kind: KindInt, num: v} }

// FloatValue holds a single precision float. It is kept widened, which is
// exact for every float32.
func FloatValue(v float32) Value { return Value{kind: KindFloat, real: float64(v)} }

func DoubleValue(v float64) Value { return Value{kind: KindDouble, real: v} }

func BoolValue(v bool) Value {
	var n int64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// ObjectValue holds a property-list object. The object is stored as given;
// callers that need the canonical form run it through NormalizePlist first.
func ObjectValue(v any) Value { return Value{kind: KindObject, obj: v} }

func BlobValue(b []byte) Value { return Value{kind: KindBlob, blob: b} }

// URLValue holds the canonical string form of a URL.
func URLValue(s string) Value { return Value{kind: KindURL, str: s} }

func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds any variant.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) Int() (int64, bool) { return v.num, v.kind == KindInt }

func (v Value) Float() (float32, bool) { return float32(v.real), v.kind == KindFloat }

func (v Value) Double() (float64, bool) { return v.real, v.kind == KindDouble }

func (v Value) Bool() (bool, bool) { return v.num != 0, v.kind == KindBool }

func (v Value) Object() (any, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

func (v Value) Blob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return v.blob, true
}

func (v Value) URL() (string, bool) {
	if v.kind != KindURL {
		return "", false
	}
	return v.str, true
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("int(%d)", v.num)
	case KindFloat:
		return fmt.Sprintf("float(%g)", float32(v.real))
	case KindDouble:
		return fmt.Sprintf("double(%g)", v.real)
	case KindBool:
		return fmt.Sprintf("bool(%t)", v.num != 0)
	case KindObject:
		return fmt.Sprintf("object(%v)", v.obj)
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.blob))
	case KindURL:
		return fmt.Sprintf("url(%s)", v.str)
	}
	return "invalid"
}
