package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"nodegraph/internal/domain"
)

// ValueCodec converts a property port value to and from its inline text
// payload.
type ValueCodec interface {
	EncodeValue(v any) (string, error)
	DecodeValue(s string) (any, error)
}

type valueCodecFuncs struct {
	encode func(v any) (string, error)
	decode func(s string) (any, error)
}

func (f valueCodecFuncs) EncodeValue(v any) (string, error) { return f.encode(v) }
func (f valueCodecFuncs) DecodeValue(s string) (any, error) { return f.decode(s) }

// valueCodecs is keyed by value type tag. Values reaching encode have
// already been normalized by domain.ValueType.Check.
var valueCodecs = map[domain.ValueType]ValueCodec{
	domain.ValueBool: valueCodecFuncs{
		encode: func(v any) (string, error) { return strconv.FormatBool(v.(bool)), nil },
		decode: func(s string) (any, error) { return strconv.ParseBool(s) },
	},
	domain.ValueInt: valueCodecFuncs{
		encode: func(v any) (string, error) { return strconv.FormatInt(v.(int64), 10), nil },
		decode: func(s string) (any, error) { return strconv.ParseInt(s, 10, 64) },
	},
	domain.ValueFloat: valueCodecFuncs{
		encode: func(v any) (string, error) { return strconv.FormatFloat(v.(float64), 'g', -1, 64), nil },
		decode: func(s string) (any, error) { return strconv.ParseFloat(s, 64) },
	},
	domain.ValueString: valueCodecFuncs{
		encode: func(v any) (string, error) { return v.(string), nil },
		decode: func(s string) (any, error) { return s, nil },
	},
	domain.ValueAny: valueCodecFuncs{
		encode: func(v any) (string, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
		decode: func(s string) (any, error) {
			var v any
			if err := json.Unmarshal([]byte(s), &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	},
}

// EncodeValue renders a value using the codec for its type tag.
func EncodeValue(vt domain.ValueType, v any) (string, error) {
	vc, ok := valueCodecs[vt]
	if !ok {
		return "", fmt.Errorf("no value codec for type %q", vt)
	}
	normalized, err := vt.Check(v)
	if err != nil {
		return "", err
	}
	s, err := vc.EncodeValue(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s value: %w", vt, err)
	}
	return s, nil
}

// DecodeValue parses a payload using the codec for its type tag.
func DecodeValue(vt domain.ValueType, s string) (any, error) {
	vc, ok := valueCodecs[vt]
	if !ok {
		return nil, fmt.Errorf("no value codec for type %q", vt)
	}
	v, err := vc.DecodeValue(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s value %q: %w", vt, s, err)
	}
	return v, nil
}
