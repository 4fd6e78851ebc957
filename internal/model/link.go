package model

// Link is a reference from a catalog listing page to a product detail page.
type Link struct {
	// Name is the visible anchor text on the catalog page.
	Name string `json:"name"`

	// URL is the absolute URL of the product detail page.
	// It is the identity of the link.
	URL string `json:"url"`
}

// LinkTable is an ordered mapping from detail URL to display name.
// Iteration order is discovery order and a URL is never stored twice.
//
// A LinkTable is not safe for concurrent mutation. During a crawl it is owned
// by exactly one Spider; after the crawl it is only read.
type LinkTable struct {
	order []string
	names map[string]string
}

// NewLinkTable returns an empty LinkTable.
func NewLinkTable() *LinkTable {
	return &LinkTable{
		order: make([]string, 0),
		names: make(map[string]string),
	}
}

// Add stores the link if its URL is not yet known.
// It reports whether the link was new. Existing entries are never overwritten.
func (t *LinkTable) Add(link Link) bool {
	if t.names == nil {
		t.names = make(map[string]string)
	}
	if _, ok := t.names[link.URL]; ok {
		return false
	}
	t.names[link.URL] = link.Name
	t.order = append(t.order, link.URL)
	return true
}

// Merge adds every link and returns how many of them were new.
func (t *LinkTable) Merge(links []Link) int {
	added := 0
	for _, link := range links {
		if t.Add(link) {
			added++
		}
	}
	return added
}

// Has reports whether the URL is in the table.
// The read-only methods treat a nil table as empty.
func (t *LinkTable) Has(url string) bool {
	if t == nil {
		return false
	}
	_, ok := t.names[url]
	return ok
}

// Name returns the display name stored for the URL.
func (t *LinkTable) Name(url string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.names[url]
	return name, ok
}

// Len returns the number of unique URLs in the table.
func (t *LinkTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Links returns the entries in discovery order.
// The returned slice is a copy and may be modified by the caller.
func (t *LinkTable) Links() []Link {
	if t == nil {
		return []Link{}
	}
	links := make([]Link, 0, len(t.order))
	for _, url := range t.order {
		links = append(links, Link{Name: t.names[url], URL: url})
	}
	return links
}
