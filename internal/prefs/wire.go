package prefs

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// envelope is the CBOR layout of a Value. Integer keys keep records small.
type envelope struct {
	Kind   Kind    `cbor:"1,keyasint"`
	Num    int64   `cbor:"2,keyasint,omitempty"`
	Real   float64 `cbor:"3,keyasint,omitempty"`
	Object any     `cbor:"4,keyasint"`
	Blob   []byte  `cbor:"5,keyasint"`
	Str    string  `cbor:"6,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:    cbor.SortCanonical,
		Time:    cbor.TimeRFC3339Nano,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// MarshalValue encodes v for a durable store. Object values are normalized
// on the way out; a payload that is not a property list yields ErrNotPlist.
func MarshalValue(v Value) ([]byte, error) {
	env := envelope{Kind: v.kind, Num: v.num, Real: v.real, Blob: v.blob, Str: v.str}
	switch v.kind {
	case KindInvalid:
		return nil, errors.New("prefs: marshal invalid value")
	case KindObject:
		obj, err := NormalizePlist(v.obj)
		if err != nil {
			return nil, err
		}
		env.Object = obj
	}
	return encMode.Marshal(env)
}

// UnmarshalValue decodes a record produced by MarshalValue. Every failure
// wraps ErrCorrupt.
func UnmarshalValue(b []byte) (Value, error) {
	var env envelope
	if err := decMode.Unmarshal(b, &env); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	v := Value{kind: env.Kind, num: env.Num, real: env.Real, blob: env.Blob, str: env.Str}
	switch env.Kind {
	case KindInt, KindFloat, KindDouble, KindBool, KindBlob, KindURL:
	case KindObject:
		obj, err := NormalizePlist(env.Object)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		v.obj = obj
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %d", ErrCorrupt, env.Kind)
	}
	return v, nil
}
