package evolution

// Default window matches monthly reporting: one year per page
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Page is one window of an evolution series
type Page struct {
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Results  []PeriodChange `json:"results"`
}

// Paginate slices a series into a fixed-size window. Pages are 1-based;
// out-of-range pages yield an empty result set, not an error.
func Paginate(series []PeriodChange, page, pageSize int) *Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	start := (page - 1) * pageSize
	end := start + pageSize

	results := []PeriodChange{}
	if start < len(series) {
		if end > len(series) {
			end = len(series)
		}
		results = series[start:end]
	}

	return &Page{
		Count:    len(series),
		Page:     page,
		PageSize: pageSize,
		Results:  results,
	}
}
