package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Flower Pots")
	require.NoError(t, err)
	assert.Equal(t, CategoryFlowerPots, c)

	_, err = ParseCategory("flower pots")
	assert.Error(t, err)
}

func TestDiscountPercent(t *testing.T) {
	tests := []struct {
		name     string
		original string
		price    string
		want     int
	}{
		{"quarter off", "200.00", "150.00", 25},
		{"rounded", "120", "100", 17},
		{"no discount", "50", "50", 0},
		{"zero original", "0", "0", 0},
		{"garbage", "abc", "10", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{OriginalPrice: tt.original, Price: tt.price}
			assert.Equal(t, tt.want, p.DiscountPercent())
		})
	}
}
