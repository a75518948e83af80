package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"1", 1},
		{"3", 3},
		{" 2 ", 2},
		{"0", 1},
		{"-4", 1},
		{"abc", 1},
		{"2.5", 1},
		{"last", 1},
		{"99999999999999999999", math.MaxInt},
		{"-99999999999999999999", 1},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.raw))
		})
	}
}

func TestNew_Clamping(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		requested int
		wantNum   int
		wantPages int
		wantLen   int
	}{
		{"empty set has one page", 0, 1, 1, 1, 0},
		{"empty set clamps", 0, 5, 1, 1, 0},
		{"first of two", 13, 1, 1, 2, 10},
		{"second of two", 13, 2, 2, 2, 3},
		{"beyond range clamps to last", 13, 9, 2, 2, 3},
		{"exact multiple", 20, 2, 2, 2, 10},
		{"twenty three third page", 23, 3, 3, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.total, DefaultPageSize, tt.requested)
			assert.Equal(t, tt.wantNum, p.Number)
			assert.Equal(t, tt.wantPages, p.NumPages)
			assert.Equal(t, tt.wantLen, p.Len())
		})
	}
}

func TestPagesCoverEveryRowOnce(t *testing.T) {
	for total := int64(0); total <= 45; total++ {
		seen := 0
		first := New(total, DefaultPageSize, 1)
		for k := 1; k <= first.NumPages; k++ {
			p := New(total, DefaultPageSize, k)
			assert.Equal(t, seen, p.Offset(), "total=%d page=%d", total, k)
			want := int(total) - (k-1)*DefaultPageSize
			if want > DefaultPageSize {
				want = DefaultPageSize
			}
			if want < 0 {
				want = 0
			}
			assert.Equal(t, want, p.Len(), "total=%d page=%d", total, k)
			seen += p.Len()
		}
		assert.Equal(t, int(total), seen)
	}
}

func TestNeighbours(t *testing.T) {
	p := FromQuery(35, DefaultPageSize, "2")
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.PreviousNumber())
	assert.Equal(t, 3, p.NextNumber())

	last := FromQuery(35, DefaultPageSize, "99")
	assert.Equal(t, 4, last.Number)
	assert.False(t, last.HasNext())
	assert.Equal(t, 4, last.NextNumber())

	only := FromQuery(5, DefaultPageSize, "")
	assert.False(t, only.HasOtherPages())
}

func TestWindow(t *testing.T) {
	p := New(100, DefaultPageSize, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, p.Window(5))

	p = New(100, DefaultPageSize, 10)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, p.Window(5))

	p = New(100, DefaultPageSize, 5)
	assert.Equal(t, []int{3, 4, 5, 6, 7}, p.Window(5))

	p = New(15, DefaultPageSize, 1)
	assert.Equal(t, []int{1, 2}, p.Window(5))
}

func TestFromQuery_OverflowingPageClampsToLast(t *testing.T) {
	p := FromQuery(23, 10, "99999999999999999999")
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, 3, p.Len())
}
