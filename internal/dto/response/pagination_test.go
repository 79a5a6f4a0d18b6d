package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResponse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		page      int
		perPage   int
		total     int64
		wantPages int
		wantNext  bool
	}{
		{"empty", 1, 10, 0, 0, false},
		{"partial last page", 1, 10, 11, 2, true},
		{"on last page", 2, 10, 11, 2, false},
		{"exact fit", 2, 5, 10, 2, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp := NewPaginatedResponse[int](nil, tc.page, tc.perPage, tc.total)
			assert.NotNil(t, resp.Data)
			assert.Equal(t, tc.wantPages, resp.Pagination.TotalPages)
			assert.Equal(t, tc.wantNext, resp.Pagination.HasNext)
		})
	}
}
