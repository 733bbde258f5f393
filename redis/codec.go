package redis

import (
	"encoding/json"
	"fmt"
)

// Codec converts values to and from the bytes stored in Redis. Keys and hash
// fields never go through a Codec.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// JSONCodec stores values as JSON documents. It is the default.
type JSONCodec struct{}

func (j JSONCodec) Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, serializationError("json encode", err)
	}
	return data, nil
}

func (j JSONCodec) Decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return serializationError("json decode", err)
	}
	return nil
}

// StringCodec stores strings and byte slices verbatim.
type StringCodec struct{}

func (s StringCodec) Encode(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return []byte(val), nil
	case []byte:
		return append([]byte(nil), val...), nil
	case fmt.Stringer:
		return []byte(val.String()), nil
	default:
		return nil, fmt.Errorf("%w: string codec cannot encode %T", ErrSerialization, v)
	}
}

func (s StringCodec) Decode(data []byte, v interface{}) error {
	switch dst := v.(type) {
	case *string:
		*dst = string(data)
	case *[]byte:
		*dst = append((*dst)[:0], data...)
	default:
		return fmt.Errorf("%w: string codec cannot decode into %T", ErrSerialization, v)
	}
	return nil
}
