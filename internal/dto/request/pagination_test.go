package request

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageFromQuery(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		query      url.Values
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", url.Values{}, 1, DefaultPerPage, 0},
		{"explicit", url.Values{"page": {"3"}, "per_page": {"25"}}, 3, 25, 50},
		{"per page capped", url.Values{"page": {"2"}, "per_page": {"500"}}, 2, MaxPerPage, MaxPerPage},
		{"garbage falls back", url.Values{"page": {"-1"}, "per_page": {"x"}}, 1, DefaultPerPage, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := PageFromQuery(tc.query)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantLimit, p.Limit())
			assert.Equal(t, tc.wantOffset, p.Offset())
		})
	}
}

func TestPaginatedRequestZeroValue(t *testing.T) {
	t.Parallel()

	var p PaginatedRequest
	assert.Equal(t, DefaultPerPage, p.Limit())
	assert.Equal(t, 0, p.Offset())
}
