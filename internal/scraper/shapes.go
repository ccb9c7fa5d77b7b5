package scraper

import (
	"fmt"
	"net/url"
)

// Shape is one conventional pagination parameter layout. Workday tenants
// and their proxies disagree on which one they accept, so both probing and
// deep paging walk the candidate list in order.
type Shape struct {
	Name   string
	Params func(offset, limit, page int) url.Values
}

func offsetLimitShape() Shape {
	return Shape{
		Name: "offset/limit",
		Params: func(offset, limit, _ int) url.Values {
			return url.Values{
				"offset": {fmt.Sprintf("%d", offset)},
				"limit":  {fmt.Sprintf("%d", limit)},
			}
		},
	}
}

func fromSizeShape() Shape {
	return Shape{
		Name: "from/size",
		Params: func(offset, limit, _ int) url.Values {
			return url.Values{
				"from": {fmt.Sprintf("%d", offset)},
				"size": {fmt.Sprintf("%d", limit)},
			}
		},
	}
}

func pagePageSizeShape() Shape {
	return Shape{
		Name: "page/pageSize",
		Params: func(_, limit, page int) url.Values {
			return url.Values{
				"page":     {fmt.Sprintf("%d", page)},
				"pageSize": {fmt.Sprintf("%d", limit)},
			}
		},
	}
}

func startCountShape() Shape {
	return Shape{
		Name: "start/count",
		Params: func(offset, limit, _ int) url.Values {
			return url.Values{
				"start": {fmt.Sprintf("%d", offset)},
				"count": {fmt.Sprintf("%d", limit)},
			}
		},
	}
}

func bareShape() Shape {
	return Shape{
		Name:   "none",
		Params: func(_, _, _ int) url.Values { return url.Values{} },
	}
}

// ProbeShapes are tried, in order, when classifying a candidate endpoint.
func ProbeShapes() []Shape {
	return []Shape{offsetLimitShape(), fromSizeShape(), pagePageSizeShape(), bareShape()}
}

// PageShapes are tried, in order, on every page fetch. The shape that
// succeeded during probing is moved to the front by the pagination driver.
func PageShapes() []Shape {
	return []Shape{offsetLimitShape(), fromSizeShape(), pagePageSizeShape(), startCountShape()}
}
