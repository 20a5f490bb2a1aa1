package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Tabular reconciles children owned by a parent, where ownership is expressed
// by two injected functions: one selecting the current children and one tying a
// new child to the parent. OneToMany is a Tabular built from a named relation.
//
// Steps must run in order: DeleteMissing, then CreateNew/UpdateOld (or the
// combined pipelines), then CreateUpdateValidateSave. Run sequences them itself.
type Tabular struct {
	*RelationshipContext

	shape Shape
	link  LinkFunc
	seq   sequencer
}

// NewTabular builds a reconciler for a custom ownership shape.
// raw is the whole incoming payload; only raw[childType] is used.
func NewTabular(store Store, parent Entity, childType string, oldChildren ChildrenQueryFunc, link LinkFunc, raw Incoming, opts Options) (*Tabular, error) {
	return newTabular(store, parent, childType, "", ShapeCustom, oldChildren, link, raw, opts)
}

func newTabular(store Store, parent Entity, childType, relation string, shape Shape, oldChildren ChildrenQueryFunc, link LinkFunc, raw Incoming, opts Options) (*Tabular, error) {
	if link == nil {
		return nil, fmt.Errorf("reconciler for %s: link function is nil", childType)
	}
	rc, err := newRelationshipContext(store, parent, childType, relation, oldChildren, raw, opts)
	if err != nil {
		return nil, err
	}
	return &Tabular{RelationshipContext: rc, shape: shape, link: link}, nil
}

// Shape returns the relation shape this reconciler handles.
func (t *Tabular) Shape() Shape { return t.shape }

// DeleteMissing deletes every persisted child absent from the incoming records
// and returns the deleted children.
func (t *Tabular) DeleteMissing(ctx context.Context) ([]Child, error) {
	if err := t.seq.prune("DeleteMissing"); err != nil {
		return nil, err
	}
	return t.deleteMissing(ctx)
}

func (t *Tabular) deleteMissing(ctx context.Context) ([]Child, error) {
	missing, err := t.MissingChildren(ctx)
	if err != nil {
		return nil, err
	}
	for _, child := range missing {
		if err := t.store.Delete(ctx, child); err != nil {
			return nil, fmt.Errorf("failed to delete %s %s: %w", t.childType, child.Identifier(), err)
		}
	}
	t.log.Debug("Deleted missing children", zap.Int("count", len(missing)))
	return missing, nil
}

// CreateNew builds one unsaved child per record without identifier, assigns its
// attributes and ties it to the parent. Nothing is saved.
func (t *Tabular) CreateNew(ctx context.Context) ([]Child, error) {
	if err := t.seq.build("CreateNew"); err != nil {
		return nil, err
	}
	return t.createNew(ctx)
}

func (t *Tabular) createNew(_ context.Context) ([]Child, error) {
	newRecords, _ := PartitionByIdentifierPresence(t.incoming, t.key)
	children := make([]Child, 0, len(newRecords))
	for i, rec := range newRecords {
		child, err := t.store.Create(t.childType)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", t.childType, err)
		}
		if err := t.store.AssignAttributes(child, withoutIdentifier(rec, t.key)); err != nil {
			return nil, fmt.Errorf("failed to assign attributes to new %s %d: %w", t.childType, i, err)
		}
		if err := t.link(t.parent, child); err != nil {
			return nil, fmt.Errorf("failed to link new %s %d to parent: %w", t.childType, i, err)
		}
		children = append(children, child)
	}
	t.log.Debug("Built new children", zap.Int("count", len(children)))
	return children, nil
}

// UpdateOld loads the persisted children named by the incoming identifiers,
// assigns the incoming attributes onto them and ties them to the parent again,
// all in memory. Nothing is saved.
// An identifier with no persisted child is a ContractViolation.
func (t *Tabular) UpdateOld(ctx context.Context) ([]Child, error) {
	if err := t.seq.build("UpdateOld"); err != nil {
		return nil, err
	}
	return t.updateOld(ctx)
}

func (t *Tabular) updateOld(ctx context.Context) ([]Child, error) {
	_, updateRecords := PartitionByIdentifierPresence(t.incoming, t.key)
	if len(updateRecords) == 0 {
		return []Child{}, nil
	}

	persisted, err := t.matchingChildren(ctx, updateRecords)
	if err != nil {
		return nil, err
	}
	if len(persisted) != len(updateRecords) {
		return nil, violation("UpdateOld", "%d %s records carry identifiers but %d match persisted children",
			len(updateRecords), t.childType, len(persisted))
	}

	pairs, err := MatchSorted(updateRecords, persisted, t.key)
	if err != nil {
		return nil, err
	}

	children := make([]Child, 0, len(pairs))
	for _, p := range pairs {
		if err := t.store.AssignAttributes(p.Child, withoutIdentifier(p.Record, t.key)); err != nil {
			return nil, fmt.Errorf("failed to assign attributes to %s %s: %w", t.childType, p.Child.Identifier(), err)
		}
		// incoming attributes must not move the child to another parent
		if err := t.link(t.parent, p.Child); err != nil {
			return nil, fmt.Errorf("failed to link %s %s to parent: %w", t.childType, p.Child.Identifier(), err)
		}
		children = append(children, p.Child)
	}
	t.log.Debug("Updated existing children", zap.Int("count", len(children)))
	return children, nil
}

func (t *Tabular) matchingChildren(ctx context.Context, updateRecords []Record) ([]Child, error) {
	ids := Identifiers(updateRecords, t.key)
	persisted, err := t.oldChildren(t.parent).
		FilterByIdentifiers(ids).
		OrderByIdentifierAscending().
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s children %v: %w", t.childType, ids, err)
	}
	return persisted, nil
}

// CreateUpdate returns CreateNew followed by UpdateOld.
func (t *Tabular) CreateUpdate(ctx context.Context) ([]Child, error) {
	if err := t.seq.build("CreateUpdate"); err != nil {
		return nil, err
	}
	return t.createUpdate(ctx)
}

func (t *Tabular) createUpdate(ctx context.Context) ([]Child, error) {
	created, err := t.createNew(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := t.updateOld(ctx)
	if err != nil {
		return nil, err
	}
	return append(created, updated...), nil
}

// CreateUpdateValidate runs CreateUpdate and validates every child.
// Validation failures are attached to the children, not returned as errors.
func (t *Tabular) CreateUpdateValidate(ctx context.Context) ([]Child, error) {
	if err := t.seq.build("CreateUpdateValidate"); err != nil {
		return nil, err
	}
	return t.createUpdateValidate(ctx)
}

func (t *Tabular) createUpdateValidate(ctx context.Context) ([]Child, error) {
	children, err := t.createUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAll(ctx, t.store, children); err != nil {
		return nil, err
	}
	return children, nil
}

// CreateUpdateValidateSave validates the whole batch and saves it only when
// every child is valid. Either all children are saved or none is.
// The validated children are returned in both cases; inspect HasErrors.
func (t *Tabular) CreateUpdateValidateSave(ctx context.Context) ([]Child, error) {
	if err := t.seq.finish("CreateUpdateValidateSave"); err != nil {
		return nil, err
	}
	children, _, err := t.createUpdateValidateSave(ctx)
	return children, err
}

func (t *Tabular) createUpdateValidateSave(ctx context.Context) ([]Child, bool, error) {
	children, err := t.createUpdateValidate(ctx)
	if err != nil {
		return nil, false, err
	}
	if !AllValid(children) {
		t.log.Debug("Validation withheld save", zap.Int("invalid", len(CollectInvalid(children))))
		return children, false, nil
	}
	for _, child := range children {
		ok, err := t.store.Save(ctx, child)
		if err != nil {
			return nil, false, fmt.Errorf("failed to save %s %s: %w", t.childType, child.Identifier(), err)
		}
		if !ok {
			return nil, false, fmt.Errorf("%s %s: %w", t.childType, child.Identifier(), ErrSaveRejected)
		}
	}
	t.log.Debug("Saved children", zap.Int("count", len(children)))
	return children, true, nil
}

// Plan computes the actions Run would execute without side effects.
// It loads the matching persisted children, so an identifier with no persisted
// child is reported as a ContractViolation here already.
func (t *Tabular) Plan(ctx context.Context) (*ReconcilePlan, error) {
	missing, err := t.MissingChildren(ctx)
	if err != nil {
		return nil, err
	}
	newRecords, updateRecords := PartitionByIdentifierPresence(t.incoming, t.key)
	if len(updateRecords) > 0 {
		persisted, err := t.matchingChildren(ctx, updateRecords)
		if err != nil {
			return nil, err
		}
		if _, err := MatchSorted(updateRecords, persisted, t.key); err != nil {
			return nil, err
		}
	}

	plan := newPlan(t.RelationshipContext, t.shape)
	plan.addMissing(ActionDelete, missing)
	plan.addCreates(len(newRecords))
	for _, id := range Identifiers(updateRecords, t.key) {
		plan.add(Action{Type: ActionUpdate, Key: id, Reason: "identifier present in incoming records"})
		plan.Summary.Updates++
	}
	return plan, nil
}

// Run plans, then applies the plan when opts allow it: DeleteMissing followed by
// CreateUpdateValidateSave. The reconciler cannot be used afterwards.
func (t *Tabular) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileResult, error) {
	if err := t.seq.fresh("Run"); err != nil {
		return nil, err
	}
	plan, err := t.Plan(ctx)
	if err != nil {
		return nil, err
	}
	result := &ReconcileResult{Plan: plan, Children: []Child{}}
	if !shouldApply(opts) {
		t.log.Info("Reconcile plan computed without applying", zap.Bool("dry_run", opts.DryRun), zap.Bool("confirmed", opts.Confirmed))
		return result, nil
	}

	if err := t.seq.prune("Run"); err != nil {
		return nil, err
	}
	deleted, err := t.deleteMissing(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.seq.finish("Run"); err != nil {
		return nil, err
	}
	children, saved, err := t.createUpdateValidateSave(ctx)
	if err != nil {
		return nil, err
	}

	result.Applied = true
	result.Saved = saved
	result.Children = children
	result.Invalid = CollectInvalid(children)
	result.Summary.Deleted = len(deleted)
	if saved {
		result.Summary.Created = plan.Summary.Creates
		result.Summary.Updated = plan.Summary.Updates
	}
	t.log.Info("Reconcile applied",
		zap.Int("deleted", result.Summary.Deleted),
		zap.Int("created", result.Summary.Created),
		zap.Int("updated", result.Summary.Updated),
		zap.Bool("saved", saved),
	)
	return result, nil
}
