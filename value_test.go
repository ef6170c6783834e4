package splash

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestValueEquality(t *testing.T) {
	a := ListValue(1.0, "I've got a flying machine", false)
	b := ListValue(1.0, "I've got a flying machine", false)
	assert.Equal(t, true, a.Equal(b))

	assert.Equal(t, false, a.Equal(ListValue(1.0, "I've got a flying machine", true)))
	assert.Equal(t, false, a.Equal(ListValue(1.0, "I've got a flying machine")))
	assert.Equal(t, false, IntegerValue(1).Equal(RealValue(1)))
	assert.Equal(t, false, IntegerValue(1).Equal(StringValue("1")))

	// entry names are part of equality
	assert.Equal(t, false, NamedValue("width", IntegerValue(2)).Equal(IntegerValue(2)))
	assert.Equal(t, true, NamedValue("width", IntegerValue(2)).Equal(NamedValue("width", IntegerValue(2))))

	// nested sequences compare deeply
	nested := ValuesValue(Values{
		NamedValue("position", ListValue(1.0, 2.0, 3.0)),
		NamedValue("visible", BooleanValue(true)),
	})
	assert.Equal(t, true, nested.Equal(ValuesValue(Values{
		NamedValue("position", ListValue(1.0, 2.0, 3.0)),
		NamedValue("visible", BooleanValue(true)),
	})))

	assert.Equal(t, true, BufferValue([]byte{1, 2, 3}).Equal(BufferValue([]byte{1, 2, 3})))
	assert.Equal(t, false, BufferValue([]byte{1, 2, 3}).Equal(BufferValue([]byte{1, 2})))
}

func TestValueCoercion(t *testing.T) {
	assert.Equal(t, ValueTypeInteger, ToValue(7).Type())
	assert.Equal(t, ValueTypeReal, ToValue(7.5).Type())
	assert.Equal(t, ValueTypeString, ToValue("x").Type())
	assert.Equal(t, ValueTypeBoolean, ToValue(true).Type())
	assert.Equal(t, ValueTypeBuffer, ToValue([]byte{1}).Type())
	assert.Equal(t, ValueTypeValues, ToValue(NewValues(1, 2)).Type())

	// a value passes through untouched
	v := NamedValue("n", IntegerValue(3))
	assert.Equal(t, true, ToValue(v).Equal(v))
}

func TestValueConversions(t *testing.T) {
	assert.Equal(t, int64(3), RealValue(3.7).AsInteger())
	assert.Equal(t, int64(12), StringValue("12.9").AsInteger())
	assert.Equal(t, int64(0), StringValue("not a number").AsInteger())
	assert.Equal(t, 2.5, StringValue("2.5").AsReal())
	assert.Equal(t, 1.0, BooleanValue(true).AsReal())

	assert.Equal(t, "42", IntegerValue(42).AsString())
	assert.Equal(t, "true", BooleanValue(true).AsString())
	assert.Equal(t, "[1, x]", ListValue(1, "x").AsString())

	assert.Equal(t, true, IntegerValue(1).AsBoolean())
	assert.Equal(t, false, IntegerValue(0).AsBoolean())
	assert.Equal(t, true, StringValue("true").AsBoolean())
	assert.Equal(t, false, StringValue("whatever").AsBoolean())

	// a scalar wraps into a one-element sequence
	wrapped := StringValue("solo").AsValues()
	assert.Equal(t, 1, len(wrapped))
	assert.Equal(t, true, wrapped[0].Equal(StringValue("solo")))

	assert.Equal(t, []byte{9, 8}, BufferValue([]byte{9, 8}).AsBuffer())
	assert.Equal(t, 0, len(IntegerValue(1).AsBuffer()))
}

func TestValueSize(t *testing.T) {
	assert.Equal(t, 1, IntegerValue(5).Size())
	assert.Equal(t, 3, ListValue(1, 2, 3).Size())
	assert.Equal(t, 2, BufferValue([]byte{0, 1}).Size())
}

func TestValueImmutability(t *testing.T) {
	buf := []byte{1, 2, 3}
	v := BufferValue(buf)
	buf[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, v.AsBuffer())

	items := Values{IntegerValue(1)}
	seq := ValuesValue(items)
	items[0] = IntegerValue(2)
	assert.Equal(t, true, seq.Equal(ValuesValue(Values{IntegerValue(1)})))
}
