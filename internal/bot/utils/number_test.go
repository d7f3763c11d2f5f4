package utils_test

import (
	"testing"

	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{name: "small number", n: 123, want: "123"},
		{name: "thousands", n: 1234, want: "1.2K"},
		{name: "millions", n: 1234567, want: "1.2M"},
		{name: "billions", n: 1234567890, want: "1.2B"},
		{name: "zero", n: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.FormatNumber(tt.n))
		})
	}
}

func TestFormatCoins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "zero", n: 0, want: "0 💰"},
		{name: "hundreds", n: 999, want: "999 💰"},
		{name: "thousands", n: 1000, want: "1,000 💰"},
		{name: "millions", n: 1234567, want: "1,234,567 💰"},
		{name: "negative", n: -12345, want: "-12,345 💰"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.FormatCoins(tt.n))
		})
	}
}
