package splash

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Flat binary encoding for seeds over the protobuf wire format, so a link
// layer can ship journal drains between instances without knowledge of tree
// internals. Every record is independently deserializable.
//
// SeedList: 1 seed (repeated message)
// Seed:     1 task (varint), 2 path (string), 3 arg (repeated message),
//           4 timestamp (varint, unix nanos)
// Value:    1 name (string), 2 type (varint), then one of
//           3 integer (varint, zigzag), 4 real (fixed64), 5 string,
//           6 boolean (varint), 7 entry (repeated message), 8 buffer (bytes)

const (
	seedListFieldSeed = 1

	seedFieldTask      = 1
	seedFieldPath      = 2
	seedFieldArg       = 3
	seedFieldTimestamp = 4

	valueFieldName    = 1
	valueFieldType    = 2
	valueFieldInteger = 3
	valueFieldReal    = 4
	valueFieldString  = 5
	valueFieldBoolean = 6
	valueFieldEntry   = 7
	valueFieldBuffer  = 8
)

func EncodeSeedList(seeds []*Seed) []byte {
	b := []byte{}
	for _, seed := range seeds {
		b = protowire.AppendTag(b, seedListFieldSeed, protowire.BytesType)
		b = protowire.AppendBytes(b, EncodeSeed(seed))
	}
	return b
}

func DecodeSeedList(b []byte) ([]*Seed, error) {
	seeds := []*Seed{}
	for 0 < len(b) {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		if num == seedListFieldSeed && typ == protowire.BytesType {
			seedBytes, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			seed, err := DecodeSeed(seedBytes)
			if err != nil {
				return nil, err
			}
			seeds = append(seeds, seed)
		} else {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return seeds, nil
}

func RequireDecodeSeedList(b []byte) []*Seed {
	seeds, err := DecodeSeedList(b)
	if err != nil {
		panic(err)
	}
	return seeds
}

func EncodeSeed(seed *Seed) []byte {
	b := []byte{}
	b = protowire.AppendTag(b, seedFieldTask, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(seed.Task))
	b = protowire.AppendTag(b, seedFieldPath, protowire.BytesType)
	b = protowire.AppendString(b, seed.Path)
	for _, arg := range seed.Args {
		b = protowire.AppendTag(b, seedFieldArg, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeValue(arg))
	}
	b = protowire.AppendTag(b, seedFieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(seed.Timestamp.UnixNano()))
	return b
}

func DecodeSeed(b []byte) (*Seed, error) {
	seed := &Seed{}
	for 0 < len(b) {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == seedFieldTask && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			if TaskAddSubtree < Task(v) {
				return nil, fmt.Errorf("Unknown seed task: %d", v)
			}
			seed.Task = Task(v)
		case num == seedFieldPath && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			seed.Path = v
		case num == seedFieldArg && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			arg, err := decodeValue(v)
			if err != nil {
				return nil, err
			}
			seed.Args = append(seed.Args, arg)
		case num == seedFieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			seed.Timestamp = time.Unix(0, int64(v))
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return seed, nil
}

func encodeValue(value Value) []byte {
	b := []byte{}
	if value.name != "" {
		b = protowire.AppendTag(b, valueFieldName, protowire.BytesType)
		b = protowire.AppendString(b, value.name)
	}
	b = protowire.AppendTag(b, valueFieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(value.valueType))
	switch value.valueType {
	case ValueTypeInteger:
		b = protowire.AppendTag(b, valueFieldInteger, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(value.integerData))
	case ValueTypeReal:
		b = protowire.AppendTag(b, valueFieldReal, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(value.realData))
	case ValueTypeString:
		b = protowire.AppendTag(b, valueFieldString, protowire.BytesType)
		b = protowire.AppendString(b, value.stringData)
	case ValueTypeBoolean:
		b = protowire.AppendTag(b, valueFieldBoolean, protowire.VarintType)
		if value.booleanData {
			b = protowire.AppendVarint(b, 1)
		} else {
			b = protowire.AppendVarint(b, 0)
		}
	case ValueTypeValues:
		for _, entry := range value.valuesData {
			b = protowire.AppendTag(b, valueFieldEntry, protowire.BytesType)
			b = protowire.AppendBytes(b, encodeValue(entry))
		}
	case ValueTypeBuffer:
		b = protowire.AppendTag(b, valueFieldBuffer, protowire.BytesType)
		b = protowire.AppendBytes(b, value.bufferData)
	default:
		panic(fmt.Errorf("Unknown value type: %d", value.valueType))
	}
	return b
}

func decodeValue(b []byte) (Value, error) {
	value := Value{}
	for 0 < len(b) {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Value{}, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == valueFieldName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			value.name = v
		case num == valueFieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			if ValueTypeBuffer < ValueType(v) {
				return Value{}, fmt.Errorf("Unknown value type: %d", v)
			}
			value.valueType = ValueType(v)
		case num == valueFieldInteger && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			value.integerData = protowire.DecodeZigZag(v)
		case num == valueFieldReal && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			value.realData = math.Float64frombits(v)
		case num == valueFieldString && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			value.stringData = v
		case num == valueFieldBoolean && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			value.booleanData = v != 0
		case num == valueFieldEntry && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			entry, err := decodeValue(v)
			if err != nil {
				return Value{}, err
			}
			value.valuesData = append(value.valuesData, entry)
		case num == valueFieldBuffer && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
			value.bufferData = append([]byte{}, v...)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Value{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return value, nil
}
