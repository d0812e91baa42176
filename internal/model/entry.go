package model

// Entry is the domain model for a todo entry.
type Entry struct {
	Text string `json:"text" yaml:"text"`
	Done bool   `json:"done" yaml:"done"`
	ID   int    `json:"id" yaml:"id"`
}

// Collection is the ordered list of entries. Insertion order is display order.
//
// Methods never modify the receiver; each returns a fresh slice.
type Collection []Entry

// Seed is the collection used when nothing has been persisted yet.
func Seed() Collection {
	return Collection{
		{Text: "Get milk", Done: false, ID: 1},
		{Text: "Learn react", Done: false, ID: 2},
		{Text: "Go home", Done: false, ID: 3},
	}
}

// Clone returns a copy that shares no backing array with c.
// A nil collection clones to an empty, non-nil one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Append returns c with e added at the end.
func (c Collection) Append(e Entry) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, c...)
	return append(out, e)
}

// WithDone marks every entry with the given id as done.
// Entries are matched by id, not position; no match yields an equal copy.
func (c Collection) WithDone(id int) Collection {
	out := make(Collection, len(c))
	for i, e := range c {
		if e.ID == id {
			e.Done = true
		}
		out[i] = e
	}
	return out
}

// Without drops every entry with the given id, keeping relative order.
func (c Collection) Without(id int) Collection {
	out := make(Collection, 0, len(c))
	for _, e := range c {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether some entry carries id.
func (c Collection) Has(id int) bool {
	for _, e := range c {
		if e.ID == id {
			return true
		}
	}
	return false
}

// MaxID is the largest id in c, or 0 for an empty collection.
func (c Collection) MaxID() int {
	max := 0
	for _, e := range c {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}

// Stats counts done and pending entries (used for headers).
func (c Collection) Stats() (done, pending int) {
	for _, e := range c {
		if e.Done {
			done++
		} else {
			pending++
		}
	}
	return
}
