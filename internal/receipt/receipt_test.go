package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name   string
		year   int
		issued int
		want   string
	}{
		{name: "first of the year", year: 2024, issued: 0, want: "80G/2024/0001"},
		{name: "seventh", year: 2024, issued: 6, want: "80G/2024/0007"},
		{name: "fills padding", year: 2025, issued: 9998, want: "80G/2025/9999"},
		{name: "past padding width", year: 2025, issued: 9999, want: "80G/2025/10000"},
		{name: "well past padding width", year: 2026, issued: 123455, want: "80G/2026/123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.year, tt.issued))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "80G/2024/0042", Format(2024, 42))
	assert.Equal(t, Format(2030, 1), Next(2030, 0))
}
