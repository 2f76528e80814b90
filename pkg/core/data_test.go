package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{name: "nil", input: nil, wantOK: false},
		{name: "int64", input: int64(42), want: 42, wantOK: true},
		{name: "float", input: 2.5, want: 2.5, wantOK: true},
		{name: "numeric string", input: " 12.5 ", want: 12.5, wantOK: true},
		{name: "empty string", input: "", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "bool true", input: true, want: 1, wantOK: true},
		{name: "bytes", input: []byte("7"), want: 7, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestValueKey(t *testing.T) {
	assert.Equal(t, ValueKey(int64(1)), ValueKey(1.0), "numeric types compare by value")
	assert.Equal(t, ValueKey(1), ValueKey(int64(1)))
	assert.NotEqual(t, ValueKey(1), ValueKey("1"), "a number never equals its string form")
	assert.NotEqual(t, ValueKey(nil), ValueKey(""))
	assert.Equal(t, ValueKey([]byte("x")), ValueKey("x"))
	assert.NotEqual(t, ValueKey(true), ValueKey("true"))
}

func TestIsBlankAndTruthy(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank(""))
	assert.False(t, IsBlank(0))
	assert.False(t, IsBlank(" "))

	assert.False(t, Truthy(0))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(""))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy(3.2))
}

func TestDisplayString(t *testing.T) {
	assert.Equal(t, "100", DisplayString(100.0))
	assert.Equal(t, "1.5", DisplayString(1.5))
	assert.Equal(t, "abc", DisplayString("abc"))
	assert.Equal(t, "null", DisplayString(nil))
	assert.Equal(t, "true", DisplayString(true))
}

func TestNormalizeNumbers(t *testing.T) {
	row := Row{
		"id":    json.Number("7"),
		"price": json.Number("2.50"),
		"tags":  []any{json.Number("1"), "x"},
		"name":  "ada",
	}
	NormalizeNumbers(row)

	assert.Equal(t, int64(7), row["id"])
	assert.Equal(t, 2.5, row["price"])
	assert.Equal(t, []any{int64(1), "x"}, row["tags"])
	assert.Equal(t, "ada", row["name"])
	assert.Nil(t, NormalizeNumbers(nil))
}
