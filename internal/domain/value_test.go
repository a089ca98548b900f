package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTypeAssignableFrom(t *testing.T) {
	tests := []struct {
		dst, src ValueType
		want     bool
	}{
		{ValueInt, ValueInt, true},
		{ValueFloat, ValueInt, true},
		{ValueInt, ValueFloat, false},
		{ValueAny, ValueString, true},
		{ValueString, ValueAny, false},
		{ValueBool, ValueString, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.dst)+"<-"+string(tt.src), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dst.AssignableFrom(tt.src))
		})
	}
}

func TestValueTypeCheck(t *testing.T) {
	t.Run("normalizes integers", func(t *testing.T) {
		v, err := ValueInt.Check(7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})

	t.Run("float accepts int", func(t *testing.T) {
		v, err := ValueFloat.Check(int32(3))
		require.NoError(t, err)
		assert.Equal(t, float64(3), v)
	})

	t.Run("nil yields zero value", func(t *testing.T) {
		v, err := ValueString.Check(nil)
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})

	t.Run("rejects mismatched type", func(t *testing.T) {
		_, err := ValueBool.Check("yes")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("any passes through", func(t *testing.T) {
		v, err := ValueAny.Check([]int{1})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, v)
	})
}

func TestParseValueType(t *testing.T) {
	vt, err := ParseValueType("float")
	require.NoError(t, err)
	assert.Equal(t, ValueFloat, vt)

	_, err = ParseValueType("decimal")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
