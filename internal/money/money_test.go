package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  int64
	}{
		{name: "two decimals", price: 189.90, want: 18990},
		{name: "half cent rounds up", price: 219.905, want: 21991},
		{name: "below half rounds down", price: 10.004, want: 1000},
		{name: "whole", price: 5, want: 500},
		{name: "binary unfriendly", price: 0.29, want: 29},
		{name: "zero", price: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinor(tt.price))
		})
	}
}

func TestLineTotal(t *testing.T) {
	total := LineTotal(199.90, 2)
	assert.Equal(t, int64(39980), Minor(total))

	sum := decimal.Zero.Add(LineTotal(0.1, 3)).Add(LineTotal(0.2, 1))
	assert.Equal(t, int64(50), Minor(sum))
}

func TestFromMinor(t *testing.T) {
	assert.True(t, FromMinor(18990).Equal(decimal.RequireFromString("189.90")))
}
