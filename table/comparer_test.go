package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytewiseComparer_Compare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "less", a: "apple", b: "banana", expected: -1},
		{name: "greater", a: "banana", b: "apple", expected: 1},
		{name: "equal", a: "same", b: "same", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultComparer.Compare([]byte(tt.a), []byte(tt.b))
			switch tt.expected {
			case -1:
				assert.Negative(t, got)
			case 1:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestFindShortestSeparator(t *testing.T) {
	tests := []struct {
		name        string
		start       string
		limit       string
		expectEqual bool // if true, expect start unchanged
	}{
		{name: "diverges and can shorten", start: "abc1", limit: "abe", expectEqual: false},
		{name: "start is prefix of limit", start: "ab", limit: "abcdef", expectEqual: true},
		{name: "no shortening possible (0xff boundary)", start: string([]byte{0x61, 0xff}), limit: string([]byte{0x61, 0xff, 0x01}), expectEqual: true},
		{name: "equal strings", start: "same", limit: "same", expectEqual: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sep := DefaultComparer.FindShortestSeparator([]byte(tt.start), []byte(tt.limit))
			assert.GreaterOrEqual(t, DefaultComparer.Compare(sep, []byte(tt.start)), 0)
			if tt.start == tt.limit {
				// No key is strictly below limit and >= start; start comes back as is.
				assert.Zero(t, DefaultComparer.Compare(sep, []byte(tt.limit)))
			} else {
				assert.Negative(t, DefaultComparer.Compare(sep, []byte(tt.limit)))
			}
			if tt.expectEqual {
				assert.Equal(t, tt.start, string(sep))
			} else {
				assert.LessOrEqual(t, len(sep), len(tt.start))
			}
		})
	}
}

func TestFindShortSuccessor(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "ordinary key", key: "abc", expected: "b"},
		{name: "all 0xff", key: string([]byte{0xff, 0xff}), expected: string([]byte{0xff, 0xff})},
		{name: "trailing 0xff", key: string([]byte{'a', 0xff}), expected: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultComparer.FindShortSuccessor([]byte(tt.key))
			assert.Equal(t, tt.expected, string(got))
			assert.GreaterOrEqual(t, DefaultComparer.Compare(got, []byte(tt.key)), 0)
		})
	}
}
