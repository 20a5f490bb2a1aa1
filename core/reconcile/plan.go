package reconcile

import (
	"context"
	"fmt"
)

func newPlan(rc *RelationshipContext, shape Shape) *ReconcilePlan {
	return &ReconcilePlan{
		Parent:    rc.parent.Identifier(),
		ChildType: rc.childType,
		Relation:  rc.relation,
		Shape:     shape,
		Actions:   []Action{},
		Summary:   PlanSummary{Incoming: len(rc.incoming)},
	}
}

func (p *ReconcilePlan) add(a Action) {
	p.Actions = append(p.Actions, a)
}

func (p *ReconcilePlan) addMissing(t ActionType, missing []Child) {
	for _, child := range missing {
		p.add(Action{Type: t, Key: child.Identifier(), Reason: "absent from incoming records"})
	}
	p.Summary.Missing = len(missing)
}

func (p *ReconcilePlan) addCreates(n int) {
	for i := 0; i < n; i++ {
		p.add(Action{Type: ActionCreate, Reason: fmt.Sprintf("new record %d", i+1)})
	}
	p.Summary.Creates = n
}

// HasChanges reports whether applying the plan would mutate anything.
func (p *ReconcilePlan) HasChanges() bool {
	return len(p.Actions) > 0
}

// IsDestructive reports whether the plan deletes or unlinks children.
func (p *ReconcilePlan) IsDestructive() bool {
	return p.Summary.Missing > 0
}

// shouldApply is the safety gate shared by every Run: mutations need an
// explicit confirmation and no dry run.
func shouldApply(opts ReconcileOptions) bool {
	return opts.Confirmed && !opts.DryRun
}

func validateAll(ctx context.Context, store Store, children []Child) error {
	for _, child := range children {
		if _, err := store.Validate(ctx, child); err != nil {
			return fmt.Errorf("failed to validate %s: %w", describe(child), err)
		}
	}
	return nil
}

// AllValid reports whether no child carries validation errors.
func AllValid(children []Child) bool {
	for _, child := range children {
		if child.HasErrors() {
			return false
		}
	}
	return true
}

// CollectInvalid lists the children carrying validation errors with their position.
func CollectInvalid(children []Child) []ChildErrors {
	var invalid []ChildErrors
	for i, child := range children {
		if child.HasErrors() {
			invalid = append(invalid, ChildErrors{Index: i, Identifier: child.Identifier(), Errors: child.Errors()})
		}
	}
	return invalid
}

func describe(child Child) string {
	if id := child.Identifier(); id != "" {
		return "child " + id
	}
	return "new child"
}
