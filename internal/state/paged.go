package state

import (
	"maps"
	"slices"

	"github.com/desertthunder/sptx/internal/models"
)

// Paged is a listing assembled from pages keyed by page token.
//
// Context names what is being listed (a playlist ID, "saved", ...). Putting a
// page for a different context discards the old pages.
type Paged[T any] struct {
	Context string
	Pages   map[string]models.Page[T]
	Order   []string
	Total   int
	Loading bool
}

// Put replaces the page with the same token, or appends it.
func (p *Paged[T]) Put(context string, page models.Page[T]) {
	if p.Context != context || p.Pages == nil {
		p.Reset(context)
	}
	if _, ok := p.Pages[page.Token]; !ok {
		p.Order = append(p.Order, page.Token)
	}
	p.Pages[page.Token] = page
	p.Total = page.Total
	p.Loading = false
}

// Reset empties the listing and switches it to context.
func (p *Paged[T]) Reset(context string) {
	p.Context = context
	p.Pages = make(map[string]models.Page[T])
	p.Order = nil
	p.Total = 0
	p.Loading = false
}

// Items concatenates the pages in arrival order.
func (p Paged[T]) Items() []T {
	var out []T
	for _, token := range p.Order {
		out = append(out, p.Pages[token].Items...)
	}
	return out
}

// Len counts loaded items.
func (p Paged[T]) Len() int {
	n := 0
	for _, page := range p.Pages {
		n += len(page.Items)
	}
	return n
}

// At returns the i-th loaded item.
func (p Paged[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 {
		return zero, false
	}
	for _, token := range p.Order {
		items := p.Pages[token].Items
		if i < len(items) {
			return items[i], true
		}
		i -= len(items)
	}
	return zero, false
}

// Next returns the token of the page after the last loaded one, empty when done.
func (p Paged[T]) Next() string {
	if len(p.Order) == 0 {
		return ""
	}
	return p.Pages[p.Order[len(p.Order)-1]].Next
}

// HasMore reports whether another page can be requested.
func (p Paged[T]) HasMore() bool {
	return p.Next() != "" && !p.Loading
}

// Clone returns a copy sharing no maps or slices with p.
func (p Paged[T]) Clone() Paged[T] {
	out := p
	out.Order = slices.Clone(p.Order)
	if p.Pages != nil {
		out.Pages = maps.Clone(p.Pages)
		for token, page := range out.Pages {
			page.Items = slices.Clone(page.Items)
			out.Pages[token] = page
		}
	}
	return out
}
