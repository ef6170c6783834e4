package splash

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type ValueType uint8

const (
	ValueTypeInteger ValueType = iota
	ValueTypeReal
	ValueTypeString
	ValueTypeBoolean
	ValueTypeValues
	ValueTypeBuffer
)

func (self ValueType) String() string {
	switch self {
	case ValueTypeInteger:
		return "integer"
	case ValueTypeReal:
		return "real"
	case ValueTypeString:
		return "string"
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeValues:
		return "values"
	case ValueTypeBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(self))
	}
}

type Values []Value

func (self Values) Equal(other Values) bool {
	if len(self) != len(other) {
		return false
	}
	for i := range self {
		if !self[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Value is a tagged scalar-or-sequence payload. A value is immutable once
// constructed; entries may carry a name to support mapping-like payloads.
type Value struct {
	name      string
	valueType ValueType

	integerData int64
	realData    float64
	stringData  string
	booleanData bool
	valuesData  Values
	bufferData  []byte
}

func IntegerValue(v int64) Value {
	return Value{
		valueType:   ValueTypeInteger,
		integerData: v,
	}
}

func RealValue(v float64) Value {
	return Value{
		valueType: ValueTypeReal,
		realData:  v,
	}
}

func StringValue(v string) Value {
	return Value{
		valueType:  ValueTypeString,
		stringData: v,
	}
}

func BooleanValue(v bool) Value {
	return Value{
		valueType:   ValueTypeBoolean,
		booleanData: v,
	}
}

func ValuesValue(v Values) Value {
	return Value{
		valueType:  ValueTypeValues,
		valuesData: slices.Clone(v),
	}
}

func BufferValue(v []byte) Value {
	return Value{
		valueType:  ValueTypeBuffer,
		bufferData: bytes.Clone(v),
	}
}

func NamedValue(name string, value Value) Value {
	value.name = name
	return value
}

// ToValue coerces a Go scalar into a Value.
// An unsupported type is a contract violation.
func ToValue(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case Values:
		return ValuesValue(x)
	case int:
		return IntegerValue(int64(x))
	case int32:
		return IntegerValue(int64(x))
	case int64:
		return IntegerValue(x)
	case uint:
		return IntegerValue(int64(x))
	case uint32:
		return IntegerValue(int64(x))
	case uint64:
		return IntegerValue(int64(x))
	case float32:
		return RealValue(float64(x))
	case float64:
		return RealValue(x)
	case string:
		return StringValue(x)
	case bool:
		return BooleanValue(x)
	case []byte:
		return BufferValue(x)
	default:
		panic(fmt.Errorf("Cannot convert %T to a value", v))
	}
}

func NewValues(items ...any) Values {
	values := make(Values, 0, len(items))
	for _, item := range items {
		values = append(values, ToValue(item))
	}
	return values
}

// ListValue is shorthand for a sequence value built from Go scalars.
func ListValue(items ...any) Value {
	return Value{
		valueType:  ValueTypeValues,
		valuesData: NewValues(items...),
	}
}

func (self Value) Type() ValueType {
	return self.valueType
}

func (self Value) Name() string {
	return self.name
}

func (self Value) Named() bool {
	return self.name != ""
}

func (self Value) Equal(other Value) bool {
	if self.valueType != other.valueType {
		return false
	}
	if self.name != other.name {
		return false
	}
	switch self.valueType {
	case ValueTypeInteger:
		return self.integerData == other.integerData
	case ValueTypeReal:
		return self.realData == other.realData
	case ValueTypeString:
		return self.stringData == other.stringData
	case ValueTypeBoolean:
		return self.booleanData == other.booleanData
	case ValueTypeValues:
		return self.valuesData.Equal(other.valuesData)
	case ValueTypeBuffer:
		return bytes.Equal(self.bufferData, other.bufferData)
	default:
		panic(fmt.Errorf("Unknown value type: %d", self.valueType))
	}
}

func (self Value) AsInteger() int64 {
	switch self.valueType {
	case ValueTypeInteger:
		return self.integerData
	case ValueTypeReal:
		return int64(self.realData)
	case ValueTypeString:
		v, err := strconv.ParseFloat(self.stringData, 64)
		if err != nil {
			return 0
		}
		return int64(v)
	case ValueTypeBoolean:
		if self.booleanData {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (self Value) AsReal() float64 {
	switch self.valueType {
	case ValueTypeInteger:
		return float64(self.integerData)
	case ValueTypeReal:
		return self.realData
	case ValueTypeString:
		v, err := strconv.ParseFloat(self.stringData, 64)
		if err != nil {
			return 0
		}
		return v
	case ValueTypeBoolean:
		if self.booleanData {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (self Value) AsString() string {
	switch self.valueType {
	case ValueTypeInteger:
		return strconv.FormatInt(self.integerData, 10)
	case ValueTypeReal:
		return strconv.FormatFloat(self.realData, 'g', -1, 64)
	case ValueTypeString:
		return self.stringData
	case ValueTypeBoolean:
		return strconv.FormatBool(self.booleanData)
	case ValueTypeValues:
		parts := []string{}
		for _, value := range self.valuesData {
			parts = append(parts, value.AsString())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueTypeBuffer:
		return fmt.Sprintf("(%d bytes)", len(self.bufferData))
	default:
		return ""
	}
}

func (self Value) AsBoolean() bool {
	switch self.valueType {
	case ValueTypeInteger:
		return self.integerData != 0
	case ValueTypeReal:
		return self.realData != 0
	case ValueTypeString:
		v, err := strconv.ParseBool(self.stringData)
		if err != nil {
			return false
		}
		return v
	case ValueTypeBoolean:
		return self.booleanData
	default:
		return false
	}
}

// AsValues wraps a scalar into a one-element sequence.
func (self Value) AsValues() Values {
	if self.valueType == ValueTypeValues {
		return slices.Clone(self.valuesData)
	}
	return Values{self}
}

func (self Value) AsBuffer() []byte {
	if self.valueType == ValueTypeBuffer {
		return bytes.Clone(self.bufferData)
	}
	return nil
}

// Size returns the number of elements for sequences and buffers, else 1.
func (self Value) Size() int {
	switch self.valueType {
	case ValueTypeValues:
		return len(self.valuesData)
	case ValueTypeBuffer:
		return len(self.bufferData)
	default:
		return 1
	}
}

func (self Value) String() string {
	return self.AsString()
}
