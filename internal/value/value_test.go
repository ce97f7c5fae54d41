package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_Accessors_RoundTrip(t *testing.T) {
	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	i, ok := Int(7).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int32(7), i)

	l, ok := Long(1 << 40).AsLong()
	assert.True(t, ok)
	assert.Equal(t, int64(1<<40), l)

	d, ok := Double(3.5).AsDouble()
	assert.True(t, ok)
	assert.Equal(t, 3.5, d)

	s, ok := String("hi").AsString()
	assert.True(t, ok)
	assert.Equal(t, "hi", s)

	now := time.Now()
	tv, ok := Date(now).AsDate()
	assert.True(t, ok)
	assert.Equal(t, now, tv)
}

func TestValue_WrongAccessorReturnsNotOK(t *testing.T) {
	_, ok := Int(1).AsString()
	assert.False(t, ok)
}

func TestValue_IsNull(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.True(t, (*Value)(nil).IsNull())
	assert.False(t, String("x").IsNull())
}

func TestValue_Get_FallbackChain(t *testing.T) {
	obj := Object(map[string]*Value{
		"name": String("direct"),
		"_hidden": String("underscore-stripped-not-present"),
		"Id":      String("fallback-id"),
	})

	assert.Equal(t, "direct", mustString(t, obj.Get("name")))

	// "_hidden" itself matches directly before the underscore-stripped fallback applies.
	assert.Equal(t, "underscore-stripped-not-present", mustString(t, obj.Get("_hidden")))

	// Neither "missing" nor "issing" exist, so the chain falls through to "Id".
	assert.Equal(t, "fallback-id", mustString(t, obj.Get("missing")))
}

func TestValue_Get_UnderscoreStrippedFallback(t *testing.T) {
	obj := Object(map[string]*Value{
		"hidden": String("stripped-match"),
	})

	assert.Equal(t, "stripped-match", mustString(t, obj.Get("_hidden")))
}

func TestValue_Get_NotAnObjectReturnsNil(t *testing.T) {
	assert.Nil(t, String("x").Get("name"))
}

func mustString(t *testing.T, v *Value) string {
	t.Helper()
	s, ok := v.AsString()
	if !ok {
		t.Fatalf("expected string value, got kind %v", v.Kind())
	}
	return s
}
