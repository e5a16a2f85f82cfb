package store

import (
	"math"
	"strconv"
	"strings"
)

// Page is an explicit skip/limit window over the natural order.
type Page struct {
	Skip  int64
	Limit int64
}

// NewPage applies pagination only when both values are usable page numbers.
// Zero, NaN, infinite or negative input yields nil, meaning the whole collection,
// and so does a window whose skip would not fit in an int64.
func NewPage(pageSize, currentPage float64) *Page {
	if !usable(pageSize) || !usable(currentPage) || currentPage < 1 {
		return nil
	}
	if pageSize >= math.MaxInt64 || currentPage >= math.MaxInt64 {
		return nil
	}
	size := int64(pageSize)
	current := int64(currentPage)
	if size <= 0 || current-1 > math.MaxInt64/size {
		return nil
	}
	return &Page{Skip: size * (current - 1), Limit: size}
}

// ParsePage reads the raw query values; unparsable input counts as NaN.
func ParsePage(pageSize, currentPage string) *Page {
	return NewPage(parseNumber(pageSize), parseNumber(currentPage))
}

func usable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseNumber(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
