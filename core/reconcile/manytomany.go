package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ManyToMany reconciles a relation backed by a junction table. Children are
// never created or deleted here, only associated and dissociated.
//
// Steps must run in order: UnlinkMissing, then LinkIncoming, then
// GetCurrentChildren for the authoritative post-state. Run sequences them itself.
type ManyToMany struct {
	*RelationshipContext

	universe UniverseFunc
	seq      sequencer
}

// NewManyToMany builds a reconciler for parent's junction relation.
// universe selects every child that may be linked, independent of current links.
func NewManyToMany(store Store, parent Entity, childType, relation string, universe UniverseFunc, raw Incoming, opts Options) (*ManyToMany, error) {
	if universe == nil {
		return nil, fmt.Errorf("reconciler for %s: universe query is nil", childType)
	}
	var oldChildren ChildrenQueryFunc
	if store != nil {
		oldChildren = func(p Entity) Query {
			return store.QueryRelation(p, relation)
		}
	}
	rc, err := newRelationshipContext(store, parent, childType, relation, oldChildren, raw, opts)
	if err != nil {
		return nil, err
	}
	return &ManyToMany{RelationshipContext: rc, universe: universe}, nil
}

// Shape returns ShapeManyToMany.
func (m *ManyToMany) Shape() Shape { return ShapeManyToMany }

// UnlinkMissing removes the junction rows of linked children absent from the
// incoming records and returns those children. The children themselves stay.
func (m *ManyToMany) UnlinkMissing(ctx context.Context) ([]Child, error) {
	if err := m.seq.prune("UnlinkMissing"); err != nil {
		return nil, err
	}
	return m.unlinkMissing(ctx)
}

func (m *ManyToMany) unlinkMissing(ctx context.Context) ([]Child, error) {
	missing, err := m.MissingChildren(ctx)
	if err != nil {
		return nil, err
	}
	for _, child := range missing {
		if err := m.store.Unlink(ctx, m.parent, m.relation, child, true); err != nil {
			return nil, fmt.Errorf("failed to unlink %s %s: %w", m.childType, child.Identifier(), err)
		}
	}
	m.log.Debug("Unlinked missing children", zap.Int("count", len(missing)))
	return missing, nil
}

// LinkIncoming links every incoming identifier that is not linked yet.
// Candidates are validated first; if any is invalid nothing is linked and the
// candidates are returned with their errors attached. Calling it again with the
// same records links nothing new.
func (m *ManyToMany) LinkIncoming(ctx context.Context) ([]Child, error) {
	if err := m.seq.build("LinkIncoming"); err != nil {
		return nil, err
	}
	candidates, _, err := m.linkIncoming(ctx)
	return candidates, err
}

func (m *ManyToMany) linkIncoming(ctx context.Context) ([]Child, bool, error) {
	candidates, err := m.unlinkedCandidates(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(candidates) == 0 {
		return candidates, true, nil
	}

	if err := validateAll(ctx, m.store, candidates); err != nil {
		return nil, false, err
	}
	if !AllValid(candidates) {
		m.log.Debug("Validation withheld link", zap.Int("invalid", len(CollectInvalid(candidates))))
		return candidates, false, nil
	}

	for _, child := range candidates {
		if err := m.store.Link(ctx, m.parent, m.relation, child); err != nil {
			return nil, false, fmt.Errorf("failed to link %s %s: %w", m.childType, child.Identifier(), err)
		}
	}
	m.log.Debug("Linked incoming children", zap.Int("count", len(candidates)))
	return candidates, true, nil
}

// unlinkedCandidates resolves incoming identifiers that are not linked yet
// against the universe. Identifiers unknown to the universe are skipped.
func (m *ManyToMany) unlinkedCandidates(ctx context.Context) ([]Child, error) {
	ids := Identifiers(m.incoming, m.key)
	if len(ids) == 0 {
		return []Child{}, nil
	}

	linked, err := m.oldChildren(m.parent).FilterByIdentifiers(ids).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked %s children: %w", m.childType, err)
	}
	already := make(map[string]struct{}, len(linked))
	for _, c := range linked {
		already[c.Identifier()] = struct{}{}
	}

	var fresh []string
	for _, id := range ids {
		if _, ok := already[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return []Child{}, nil
	}

	candidates, err := m.universe().FilterByIdentifiers(fresh).OrderByIdentifierAscending().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s children %v: %w", m.childType, fresh, err)
	}
	if len(candidates) != len(fresh) {
		found := make(map[string]struct{}, len(candidates))
		for _, c := range candidates {
			found[c.Identifier()] = struct{}{}
		}
		var unknown []string
		for _, id := range fresh {
			if _, ok := found[id]; !ok {
				unknown = append(unknown, id)
			}
		}
		m.log.Warn("Incoming identifiers not found", zap.Strings("identifiers", unknown))
	}
	return candidates, nil
}

// GetCurrentChildren refreshes the parent and returns the children linked now.
func (m *ManyToMany) GetCurrentChildren(ctx context.Context) ([]Child, error) {
	if err := m.store.Refresh(ctx, m.parent); err != nil {
		return nil, fmt.Errorf("failed to refresh parent %s: %w", m.parent.Identifier(), err)
	}
	children, err := m.oldChildren(m.parent).OrderByIdentifierAscending().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked %s children: %w", m.childType, err)
	}
	return children, nil
}

// Plan computes the unlink and link actions Run would execute without side effects.
func (m *ManyToMany) Plan(ctx context.Context) (*ReconcilePlan, error) {
	missing, err := m.MissingChildren(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := m.unlinkedCandidates(ctx)
	if err != nil {
		return nil, err
	}

	plan := newPlan(m.RelationshipContext, ShapeManyToMany)
	plan.addMissing(ActionUnlink, missing)
	for _, c := range candidates {
		plan.add(Action{Type: ActionLink, Key: c.Identifier(), Reason: "not linked yet"})
	}
	plan.Summary.Links = len(candidates)
	return plan, nil
}

// Run plans, then applies the plan when opts allow it: UnlinkMissing followed
// by LinkIncoming. Children holds the linked set afterwards. The reconciler
// cannot be used afterwards.
func (m *ManyToMany) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileResult, error) {
	if err := m.seq.fresh("Run"); err != nil {
		return nil, err
	}
	plan, err := m.Plan(ctx)
	if err != nil {
		return nil, err
	}
	result := &ReconcileResult{Plan: plan, Children: []Child{}}
	if !shouldApply(opts) {
		m.log.Info("Reconcile plan computed without applying", zap.Bool("dry_run", opts.DryRun), zap.Bool("confirmed", opts.Confirmed))
		return result, nil
	}

	if err := m.seq.prune("Run"); err != nil {
		return nil, err
	}
	unlinked, err := m.unlinkMissing(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.seq.finish("Run"); err != nil {
		return nil, err
	}
	candidates, linked, err := m.linkIncoming(ctx)
	if err != nil {
		return nil, err
	}

	result.Applied = true
	result.Saved = linked
	result.Summary.Unlinked = len(unlinked)
	if !linked {
		result.Children = candidates
		result.Invalid = CollectInvalid(candidates)
		return result, nil
	}
	result.Summary.Linked = len(candidates)

	current, err := m.GetCurrentChildren(ctx)
	if err != nil {
		return nil, err
	}
	result.Children = current
	m.log.Info("Reconcile applied",
		zap.Int("unlinked", result.Summary.Unlinked),
		zap.Int("linked", result.Summary.Linked),
	)
	return result, nil
}
