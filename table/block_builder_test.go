package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockBuilder_EmptyAndReset(t *testing.T) {
	b := newBlockBuilder(16)
	assert.True(t, b.Empty())

	b.Add([]byte("key1"), []byte("value1"))
	assert.False(t, b.Empty())

	b.Reset()
	assert.True(t, b.Empty())
}

func TestBlockBuilder_AddAndRoundTrip(t *testing.T) {
	tests := []struct {
		name            string
		restartInterval int
		entries         [][2]string
	}{
		{
			name:            "single entry",
			restartInterval: 16,
			entries:         [][2]string{{"alpha", "1"}},
		},
		{
			name:            "shared prefixes within one restart run",
			restartInterval: 16,
			entries: [][2]string{
				{"key0001", "v1"},
				{"key0002", "v2"},
				{"key0003", "v3"},
			},
		},
		{
			name:            "restart interval of 1 forces a new anchor every entry",
			restartInterval: 1,
			entries: [][2]string{
				{"aaa", "1"},
				{"aab", "2"},
				{"aac", "3"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBlockBuilder(tt.restartInterval)
			for _, e := range tt.entries {
				b.Add([]byte(e[0]), []byte(e[1]))
			}
			payload := b.Finish()

			it, err := newBlockIter(payload)
			assert.NoError(t, err)

			var got [][2]string
			for it.SeekToFirst(); it.Valid(); it.Next() {
				got = append(got, [2]string{string(it.Key()), string(it.Value())})
			}
			assert.NoError(t, it.Error())
			assert.Equal(t, tt.entries, got)
		})
	}
}

func TestBlockBuilder_CurrentSizeEstimateGrows(t *testing.T) {
	b := newBlockBuilder(16)
	initial := b.CurrentSizeEstimate()
	b.Add([]byte("key"), []byte("value"))
	assert.Greater(t, b.CurrentSizeEstimate(), initial)
}

func TestBlockIter_Seek(t *testing.T) {
	b := newBlockBuilder(2)
	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		b.Add([]byte(k), []byte("v-"+k))
	}
	payload := b.Finish()

	it, err := newBlockIter(payload)
	assert.NoError(t, err)

	it.Seek(DefaultComparer, []byte("c"))
	assert.True(t, it.Valid())
	assert.Equal(t, "c", string(it.Key()))

	it.Seek(DefaultComparer, []byte("aa"))
	assert.True(t, it.Valid())
	assert.Equal(t, "b", string(it.Key()))
}
