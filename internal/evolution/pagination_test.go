package evolution

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int) []PeriodChange {
	s := make([]PeriodChange, n)
	for i := range s {
		s[i] = PeriodChange{Period: fmt.Sprintf("p%d", i)}
	}
	return s
}

func TestPaginateFirstPage(t *testing.T) {
	page := Paginate(series(30), 1, 12)

	assert.Equal(t, 30, page.Count)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 12, page.PageSize)
	require.Len(t, page.Results, 12)
	assert.Equal(t, "p0", page.Results[0].Period)
	assert.Equal(t, "p11", page.Results[11].Period)
}

func TestPaginateLastPartialPage(t *testing.T) {
	page := Paginate(series(30), 3, 12)

	require.Len(t, page.Results, 6)
	assert.Equal(t, "p24", page.Results[0].Period)
	assert.Equal(t, "p29", page.Results[5].Period)
}

func TestPaginateOutOfRange(t *testing.T) {
	page := Paginate(series(5), 4, 12)

	assert.Equal(t, 5, page.Count)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestPaginateDefaults(t *testing.T) {
	page := Paginate(series(3), 0, 0)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Results, 3)
}

func TestPaginateClampsPageSize(t *testing.T) {
	page := Paginate(series(5), 1, 1000)
	assert.Equal(t, MaxPageSize, page.PageSize)
}
