package reconcile

// OneToMany reconciles a named ownership relation where each child row holds
// the parent's key. It is a Tabular whose query and link functions come from
// the store's relation support.
type OneToMany struct {
	*Tabular
}

// NewOneToMany builds a reconciler for parent's relation, fed by raw[childType].
func NewOneToMany(store Store, parent Entity, childType, relation string, raw Incoming, opts Options) (*OneToMany, error) {
	oldChildren := func(p Entity) Query {
		return store.QueryRelation(p, relation)
	}
	link := func(p Entity, c Child) error {
		return store.Associate(p, relation, c)
	}
	t, err := newTabular(store, parent, childType, relation, ShapeOneToMany, oldChildren, link, raw, opts)
	if err != nil {
		return nil, err
	}
	return &OneToMany{Tabular: t}, nil
}
