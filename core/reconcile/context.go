package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ChildrenQueryFunc returns the query selecting the children currently owned by parent.
type ChildrenQueryFunc func(parent Entity) Query

// LinkFunc ties a new, unsaved child to parent in memory.
type LinkFunc func(parent Entity, child Child) error

// UniverseFunc returns every child available for linking, linked or not.
type UniverseFunc func() Query

// RelationshipContext is the request-scoped state shared by every reconciler:
// the parent, the child type, the relation and the incoming records for that child type.
type RelationshipContext struct {
	store     Store
	parent    Entity
	childType string
	relation  string
	incoming  []Record
	key       string
	log       *zap.Logger

	oldChildren ChildrenQueryFunc
}

func newRelationshipContext(store Store, parent Entity, childType, relation string, oldChildren ChildrenQueryFunc, raw Incoming, opts Options) (*RelationshipContext, error) {
	if store == nil {
		return nil, fmt.Errorf("reconciler for %s: store is nil", childType)
	}
	if parent == nil {
		return nil, fmt.Errorf("reconciler for %s: parent is nil", childType)
	}
	if oldChildren == nil {
		return nil, fmt.Errorf("reconciler for %s: children query is nil", childType)
	}

	opts = opts.normalize()
	incoming := raw[childType]
	if incoming == nil {
		incoming = []Record{}
	}

	for i, rec := range incoming {
		if rec == nil {
			return nil, violation("construct", "%s record %d is null", childType, i)
		}
		if _, ok := rec[opts.IdentifierKey]; !ok {
			return nil, violation("construct", "%s record %d has no %q attribute", childType, i, opts.IdentifierKey)
		}
	}
	if dups := duplicateIdentifiers(incoming, opts.IdentifierKey); len(dups) > 0 {
		return nil, violation("construct", "%s records repeat identifiers %v", childType, dups)
	}

	return &RelationshipContext{
		store:       store,
		parent:      parent,
		childType:   childType,
		relation:    relation,
		incoming:    incoming,
		key:         opts.IdentifierKey,
		log:         opts.Logger.With(zap.String("child_type", childType), zap.String("relation", relation), zap.String("parent", parent.Identifier())),
		oldChildren: oldChildren,
	}, nil
}

// Parent returns the parent entity.
func (c *RelationshipContext) Parent() Entity { return c.parent }

// ChildType returns the payload key this context was built from.
func (c *RelationshipContext) ChildType() string { return c.childType }

// Relation returns the relation name, empty for custom shapes.
func (c *RelationshipContext) Relation() string { return c.relation }

// IdentifierKey returns the attribute holding record identifiers.
func (c *RelationshipContext) IdentifierKey() string { return c.key }

// Incoming returns the records for this child type.
func (c *RelationshipContext) Incoming() []Record {
	out := make([]Record, len(c.incoming))
	copy(out, c.incoming)
	return out
}

// MissingChildren returns persisted children absent from the incoming records.
func (c *RelationshipContext) MissingChildren(ctx context.Context) ([]Child, error) {
	persisted, err := c.oldChildren(c.parent).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current %s children: %w", c.childType, err)
	}
	return ComputeMissing(persisted, c.incoming, c.key), nil
}
