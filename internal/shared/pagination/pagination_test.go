package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"defaults when empty", "", "", 1, 50},
		{"valid values kept", "3", "20", 3, 20},
		{"non-numeric falls back", "abc", "xyz", 1, 50},
		{"zero page becomes 1", "0", "10", 1, 10},
		{"negative page becomes 1", "-4", "10", 1, 10},
		{"zero limit uses default", "1", "0", 1, 50},
		{"negative limit clamps to 1", "1", "-5", 1, 1},
		{"limit over max clamps to 100", "1", "1000", 1, 100},
		{"limit at max kept", "1", "100", 1, 100},
		{"whitespace trimmed", " 2 ", " 7 ", 2, 7},
		{"fraction reads the integer part", "1.5", "20.9", 1, 20},
		{"trailing garbage ignored", "10abc", "15rows", 10, 15},
		{"leading plus sign", "+3", "+5", 3, 5},
		{"sign without digits falls back", "-", "+", 1, 50},
		{"page beyond max clamps", "5000000", "10", MaxPage, 10},
		{"page overflowing int clamps", "99999999999999999999999", "10", MaxPage, 10},
		{"negative overflow becomes 1", "-99999999999999999999999", "10", 1, 10},
		{"limit overflowing int clamps", "1", "99999999999999999999999", 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.GreaterOrEqual(t, got.Page, 1)
			assert.GreaterOrEqual(t, got.Limit, 1)
			assert.LessOrEqual(t, got.Limit, MaxLimit)
			assert.LessOrEqual(t, got.Page, MaxPage)
			assert.GreaterOrEqual(t, got.Offset(), 0)
		})
	}
}

func TestParams_Offset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Params{Page: 1, Limit: 50}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())

	largest := Normalize("99999999999999999999999", "1000")
	assert.Equal(t, (MaxPage-1)*MaxLimit, largest.Offset())
}

func TestNewMeta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		params    Params
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"empty result", Params{Page: 1, Limit: 50}, 0, 0, false, false},
		{"exact multiple", Params{Page: 1, Limit: 10}, 30, 3, true, false},
		{"ceiling division", Params{Page: 2, Limit: 10}, 31, 4, true, true},
		{"last page", Params{Page: 4, Limit: 10}, 31, 4, false, true},
		{"page beyond total", Params{Page: 9, Limit: 10}, 31, 4, false, true},
		{"single record", Params{Page: 1, Limit: 1}, 1, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeta(tt.params, tt.total)
			assert.Equal(t, tt.wantPages, m.TotalPages)
			assert.Equal(t, tt.wantNext, m.HasNext)
			assert.Equal(t, tt.wantPrev, m.HasPrev)
			assert.Equal(t, tt.total, m.TotalRecords)
			assert.Equal(t, tt.params.Page, m.Page)
			assert.Equal(t, tt.params.Limit, m.Limit)
		})
	}
}

func TestNormalizeWithDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Params{Page: 1, Limit: 20}, NormalizeWithDefault("", "", 20))
	assert.Equal(t, Params{Page: 2, Limit: 20}, NormalizeWithDefault("2", "0", 20))
	assert.Equal(t, Params{Page: 1, Limit: 100}, NormalizeWithDefault("1", "250", 20))
}
