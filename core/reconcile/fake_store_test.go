package reconcile

import (
	"context"
	"errors"
	"sort"
	"strconv"
)

type fakeParent struct{ id string }

func (p *fakeParent) Identifier() string { return p.id }

type fakeChild struct {
	id       string
	parentID string
	attrs    map[string]any
	errs     FieldErrors
}

func (c *fakeChild) Identifier() string  { return c.id }
func (c *fakeChild) Errors() FieldErrors { return c.errs }
func (c *fakeChild) HasErrors() bool     { return len(c.errs) > 0 }

func (c *fakeChild) name() string {
	s, _ := c.attrs["name"].(string)
	return s
}

// fakeStore keeps owned children (relation "members") and a universe of
// linkable children (relation "cities") in memory and records every mutation.
type fakeStore struct {
	nextID   int
	children map[string]*fakeChild
	links    map[string]bool

	deleted  []string
	saved    []string
	linked   []string
	unlinked []string
	flags    []bool
	refresh  int

	deleteErr error
	rejectAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 100, children: map[string]*fakeChild{}, links: map[string]bool{}}
}

func (s *fakeStore) own(parent, id, name string) *fakeChild {
	c := &fakeChild{id: id, parentID: parent, attrs: map[string]any{"name": name}}
	s.children[id] = c
	return c
}

func (s *fakeStore) universe(ids ...string) {
	for _, id := range ids {
		s.children[id] = &fakeChild{id: id, attrs: map[string]any{"name": "city " + id}}
	}
}

func (s *fakeStore) link(ids ...string) {
	for _, id := range ids {
		s.links[id] = true
	}
}

func (s *fakeStore) persistedNames(parent string) map[string]string {
	out := map[string]string{}
	for id, c := range s.children {
		if c.parentID == parent {
			out[id] = c.name()
		}
	}
	return out
}

type fakeQuery struct {
	source  func() []Child
	ids     []string
	ordered bool
	err     error
}

func (q fakeQuery) FilterByIdentifiers(ids []string) Query {
	q.ids = append([]string{}, ids...)
	if q.ids == nil {
		q.ids = []string{}
	}
	return q
}

func (q fakeQuery) OrderByIdentifierAscending() Query {
	q.ordered = true
	return q
}

func (q fakeQuery) All(context.Context) ([]Child, error) {
	if q.err != nil {
		return nil, q.err
	}
	var out []Child
	for _, c := range q.source() {
		if q.ids != nil && !contains(q.ids, c.Identifier()) {
			continue
		}
		out = append(out, c)
	}
	if q.ordered {
		// numeric order on purpose: pairing must not depend on the store's ordering
		sort.Slice(out, func(i, j int) bool {
			a, _ := strconv.Atoi(out[i].Identifier())
			b, _ := strconv.Atoi(out[j].Identifier())
			return a < b
		})
	}
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (s *fakeStore) sorted(filter func(*fakeChild) bool) []Child {
	ids := make([]string, 0, len(s.children))
	for id := range s.children {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []Child
	for _, id := range ids {
		if filter(s.children[id]) {
			out = append(out, s.children[id])
		}
	}
	return out
}

func (s *fakeStore) QueryRelation(parent Entity, relation string) Query {
	switch relation {
	case "members":
		return fakeQuery{source: func() []Child {
			return s.sorted(func(c *fakeChild) bool { return c.parentID == parent.Identifier() })
		}}
	case "cities":
		return fakeQuery{source: func() []Child {
			return s.sorted(func(c *fakeChild) bool { return s.links[c.id] })
		}}
	default:
		return fakeQuery{err: errors.New("unknown relation " + relation)}
	}
}

func (s *fakeStore) all() Query {
	return fakeQuery{source: func() []Child {
		return s.sorted(func(*fakeChild) bool { return true })
	}}
}

func (s *fakeStore) Create(string) (Child, error) {
	return &fakeChild{attrs: map[string]any{}}, nil
}

func (s *fakeStore) AssignAttributes(child Child, attrs Record) error {
	c := child.(*fakeChild)
	for k, v := range attrs {
		c.attrs[k] = v
	}
	return nil
}

func (s *fakeStore) Associate(parent Entity, _ string, child Child) error {
	child.(*fakeChild).parentID = parent.Identifier()
	return nil
}

func (s *fakeStore) Validate(_ context.Context, child Child) (bool, error) {
	c := child.(*fakeChild)
	c.errs = nil
	if c.name() == "" {
		c.errs = FieldErrors{"name": {"name is required"}}
	}
	return !c.HasErrors(), nil
}

func (s *fakeStore) Save(ctx context.Context, child Child) (bool, error) {
	if ok, _ := s.Validate(ctx, child); !ok || s.rejectAll {
		return false, nil
	}
	c := child.(*fakeChild)
	if c.id == "" {
		s.nextID++
		c.id = strconv.Itoa(s.nextID)
	}
	s.children[c.id] = c
	s.saved = append(s.saved, c.id)
	return true, nil
}

func (s *fakeStore) Delete(_ context.Context, child Child) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.children, child.Identifier())
	s.deleted = append(s.deleted, child.Identifier())
	return nil
}

func (s *fakeStore) Link(_ context.Context, _ Entity, _ string, child Child) error {
	s.links[child.Identifier()] = true
	s.linked = append(s.linked, child.Identifier())
	return nil
}

func (s *fakeStore) Unlink(_ context.Context, _ Entity, _ string, child Child, deleteJunctionRow bool) error {
	delete(s.links, child.Identifier())
	s.unlinked = append(s.unlinked, child.Identifier())
	s.flags = append(s.flags, deleteJunctionRow)
	return nil
}

func (s *fakeStore) Refresh(context.Context, Entity) error {
	s.refresh++
	return nil
}
