package missing

// PageSize is the number of days shown per page.
const PageSize = 20

// Page is one slice of a ScanRange result.
type Page struct {
	Days   []Day `json:"days"`
	Number int   `json:"page"`
	Pages  int   `json:"pages"`
	Total  int   `json:"total"`
}

// Paginate returns page number n (1-based) of days. Out of range pages are
// clamped to the first or last page.
func Paginate(days []Day, n int) Page {
	pages := len(days) / PageSize
	if len(days)%PageSize != 0 {
		pages++
	}
	if n > pages {
		n = pages
	}
	if n < 1 {
		n = 1
	}

	from := (n - 1) * PageSize
	to := from + PageSize
	if to > len(days) {
		to = len(days)
	}
	if from > to {
		from = to
	}
	return Page{Days: days[from:to], Number: n, Pages: pages, Total: len(days)}
}
