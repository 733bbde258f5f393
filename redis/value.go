package redis

import "fmt"

// Shape identifies which Redis data type a value is stored as.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeString
	ShapeHash
	ShapeList
	ShapeSet
	ShapeZSet
)

func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeHash:
		return "hash"
	case ShapeList:
		return "list"
	case ShapeSet:
		return "set"
	case ShapeZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// ParseShape maps the reply of the TYPE command to a Shape.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "string":
		return ShapeString, nil
	case "hash":
		return ShapeHash, nil
	case "list":
		return ShapeList, nil
	case "set":
		return ShapeSet, nil
	case "zset":
		return ShapeZSet, nil
	case "none":
		return ShapeUnknown, ErrNotFound
	default:
		return ShapeUnknown, fmt.Errorf("%w: unsupported redis type %q", ErrSerialization, name)
	}
}

// Scored is an ordered-set member with its score.
type Scored[T any] struct {
	Member T
	Score  float64
}

// Value is a tagged union over the supported shapes. Only the field selected
// by Shape is meaningful.
type Value[T any] struct {
	Shape  Shape
	Scalar T
	Hash   map[string]T
	List   []T
	Set    []T
	ZSet   []Scored[T]
}

func ScalarValue[T any](v T) Value[T] { return Value[T]{Shape: ShapeString, Scalar: v} }

func HashValue[T any](m map[string]T) Value[T] { return Value[T]{Shape: ShapeHash, Hash: m} }

func ListValue[T any](items ...T) Value[T] { return Value[T]{Shape: ShapeList, List: items} }

func SetValue[T any](members ...T) Value[T] { return Value[T]{Shape: ShapeSet, Set: members} }

func ZSetValue[T any](members ...Scored[T]) Value[T] { return Value[T]{Shape: ShapeZSet, ZSet: members} }

// ScoredBytes is an encoded ordered-set member.
type ScoredBytes struct {
	Member []byte
	Score  float64
}

// Payload is the wire form of a Value: the same union with every element
// encoded. Hash fields stay raw strings.
type Payload struct {
	Shape  Shape
	Scalar []byte
	Hash   map[string][]byte
	List   [][]byte
	Set    [][]byte
	ZSet   []ScoredBytes
}

// EncodeValue encodes every element of v with codec.
func EncodeValue[T any](codec Codec, v Value[T]) (Payload, error) {
	p := Payload{Shape: v.Shape}
	var err error

	switch v.Shape {
	case ShapeString:
		p.Scalar, err = codec.Encode(v.Scalar)
	case ShapeHash:
		p.Hash = make(map[string][]byte, len(v.Hash))
		for field, item := range v.Hash {
			if p.Hash[field], err = codec.Encode(item); err != nil {
				break
			}
		}
	case ShapeList:
		p.List, err = encodeAll(codec, v.List)
	case ShapeSet:
		p.Set, err = encodeAll(codec, v.Set)
	case ShapeZSet:
		p.ZSet = make([]ScoredBytes, len(v.ZSet))
		for i, m := range v.ZSet {
			if p.ZSet[i].Member, err = codec.Encode(m.Member); err != nil {
				break
			}
			p.ZSet[i].Score = m.Score
		}
	default:
		return Payload{}, fmt.Errorf("%w: cannot encode shape %s", ErrSerialization, v.Shape)
	}

	if err != nil {
		return Payload{}, serializationError("encode "+v.Shape.String(), err)
	}
	return p, nil
}

// DecodeValue decodes p using p.Shape as the shape hint.
func DecodeValue[T any](codec Codec, p Payload) (Value[T], error) {
	v := Value[T]{Shape: p.Shape}
	var err error

	switch p.Shape {
	case ShapeString:
		err = codec.Decode(p.Scalar, &v.Scalar)
	case ShapeHash:
		v.Hash = make(map[string]T, len(p.Hash))
		for field, data := range p.Hash {
			var item T
			if err = codec.Decode(data, &item); err != nil {
				break
			}
			v.Hash[field] = item
		}
	case ShapeList:
		v.List, err = decodeAll[T](codec, p.List)
	case ShapeSet:
		v.Set, err = decodeAll[T](codec, p.Set)
	case ShapeZSet:
		v.ZSet = make([]Scored[T], len(p.ZSet))
		for i, m := range p.ZSet {
			if err = codec.Decode(m.Member, &v.ZSet[i].Member); err != nil {
				break
			}
			v.ZSet[i].Score = m.Score
		}
	default:
		return Value[T]{}, fmt.Errorf("%w: cannot decode shape %s", ErrSerialization, p.Shape)
	}

	if err != nil {
		return Value[T]{}, serializationError("decode "+p.Shape.String(), err)
	}
	return v, nil
}

func encodeAll[T any](codec Codec, items []T) ([][]byte, error) {
	out := make([][]byte, len(items))
	for i, item := range items {
		data, err := codec.Encode(item)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func decodeAll[T any](codec Codec, items [][]byte) ([]T, error) {
	out := make([]T, len(items))
	for i, data := range items {
		if err := codec.Decode(data, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
