package metadata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type category string

func TestFilterMatches(t *testing.T) {
	doc := Document{
		"category": String("tech"),
		"year":     Int(2024),
		"rating":   Float(4.5),
		"draft":    Bool(false),
		"title":    String("Go generics in practice"),
		"tags":     Array([]Value{String("go"), String("db")}),
		"nothing":  Null(),
		"score":    Float(math.NaN()),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"EqString", Eq("category", "tech"), true},
		{"EqNamedString", Eq("category", category("tech")), true},
		{"EqMiss", Eq("category", "sports"), false},
		{"EqIntAsFloat", Eq("year", 2024.0), true},
		{"EqUint", Eq("year", uint16(2024)), true},
		{"Ne", Ne("category", "sports"), true},
		{"NeMissingField", Ne("author", "x"), false},
		{"Gt", Gt("year", 2023), true},
		{"GtEqual", Gt("year", 2024), false},
		{"Gte", Gte("year", 2024), true},
		{"Lt", Lt("rating", 5), true},
		{"Lte", Lte("rating", 4.5), true},
		{"GtString", Gt("category", 1), false},
		{"In", In("category", "sports", "tech"), true},
		{"InMiss", In("category", "sports", "news"), false},
		{"Contains", Contains("title", "generics"), true},
		{"ContainsMiss", Contains("title", "rust"), false},
		{"Bool", Eq("draft", false), true},
		{"Array", Eq("tags", []string{"go", "db"}), true},
		{"Null", Eq("nothing", nil), true},
		{"Missing", Eq("author", "x"), false},
		{"Unconvertible", Eq("category", struct{}{}), false},
		{"NaNUnordered", Lt("score", 0), false},
		{"NaNEqualsNaN", Eq("score", math.NaN()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}

func TestFilterSet(t *testing.T) {
	doc := Document{"category": String("tech"), "year": Int(2020)}

	assert.True(t, NewFilterSet(Eq("category", "tech"), Lt("year", 2021)).Matches(doc))
	assert.False(t, NewFilterSet(Eq("category", "tech"), Gt("year", 2021)).Matches(doc))
	assert.True(t, NewFilterSet().Matches(doc))

	var nilSet *FilterSet
	assert.True(t, nilSet.Matches(doc))
	assert.Nil(t, nilSet.Keys())

	fs := NewFilterSet(Eq("a", 1), Gt("b", 2), Lt("a", 5))
	assert.Equal(t, []string{"a", "b"}, fs.Keys())
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(int8(-3))
	require.NoError(t, err)
	assert.Equal(t, Int(-3), v)

	v, err = FromAny(float32(1.5))
	require.NoError(t, err)
	assert.Equal(t, Float(1.5), v)

	v, err = FromAny([]int{1, 2})
	require.NoError(t, err)
	arr, ok := v.AsArray()
	require.True(t, ok)
	assert.Len(t, arr, 2)

	s := "ptr"
	v, err = FromAny(&s)
	require.NoError(t, err)
	str, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "ptr", str)

	var nilPtr *string
	v, err = FromAny(nilPtr)
	require.NoError(t, err)
	assert.Equal(t, KindNull, v.Kind)

	_, err = FromAny(^uint64(0))
	require.Error(t, err)

	_, err = FromAny(map[string]int{})
	require.Error(t, err)

	doc, err := DocumentFromAny(map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	assert.Equal(t, Int(1), doc["a"])
}

func TestValueKey(t *testing.T) {
	assert.Equal(t, Int(3).Key(), Float(3).Key())
	assert.NotEqual(t, Float(3.5).Key(), Int(3).Key())
	assert.Equal(t, "s:x", String("x").Key())
	assert.Equal(t, "b:1", Bool(true).Key())
	assert.Equal(t, "null", Null().Key())
	assert.Equal(t, "a:", Array(nil).Key())
	assert.Equal(t, "invalid", Value{}.Key())
	assert.Equal(t, Float(0).Key(), Float(math.Copysign(0, -1)).Key())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "invalid", Kind(99).String())
}
