package reconcile

import (
	"context"

	"go.uber.org/zap"
)

// DefaultIdentifierKey is the attribute of an incoming record that carries
// the identifier of the child it describes.
const DefaultIdentifierKey = "identifier"

// Record is a flat attribute mapping describing the desired state of one child.
// An empty identifier means "create"; a non-empty one names a persisted child.
type Record map[string]any

// Incoming is the raw payload of a reconciliation request, grouped by child type name.
type Incoming map[string][]Record

// FieldErrors holds validation messages keyed by attribute name.
type FieldErrors map[string][]string

// Entity is anything with a stable identifier. Parents only need this much.
type Entity interface {
	// Identifier returns the identifier as a string, or "" for unpersisted entities.
	Identifier() string
}

// Child is an entity reconciled under a parent.
// Validation errors produced by the store are attached to the child itself.
type Child interface {
	Entity
	Errors() FieldErrors
	HasErrors() bool
}

// Query is a lazily built selection of children.
// Builder methods return a new Query and never touch the store.
type Query interface {
	FilterByIdentifiers(ids []string) Query
	OrderByIdentifierAscending() Query
	All(ctx context.Context) ([]Child, error)
}

// Store is the persistence collaborator the reconcilers drive.
// Implementations own transactions; reconcilers never open or commit one.
type Store interface {
	// QueryRelation returns the children currently reachable through a named relation.
	QueryRelation(parent Entity, relation string) Query
	// Create returns a new unpersisted child of the given type.
	Create(childType string) (Child, error)
	// AssignAttributes copies attributes onto a child in memory.
	AssignAttributes(child Child, attrs Record) error
	// Associate ties an unsaved child to its owning parent in memory (sets the foreign key).
	Associate(parent Entity, relation string, child Child) error
	// Validate runs validation without persisting. Errors are attached to the child.
	Validate(ctx context.Context, child Child) (bool, error)
	// Save validates and persists. false means validation refused the save.
	Save(ctx context.Context, child Child) (bool, error)
	// Delete removes the child row.
	Delete(ctx context.Context, child Child) error
	// Link associates an existing child through a junction relation.
	Link(ctx context.Context, parent Entity, relation string, child Child) error
	// Unlink removes the association between parent and child.
	Unlink(ctx context.Context, parent Entity, relation string, child Child, deleteJunctionRow bool) error
	// Refresh drops any relation data cached on the parent.
	Refresh(ctx context.Context, parent Entity) error
}

// Shape identifies how a relation ties children to their parent.
type Shape string

const (
	// ShapeOneToMany is direct ownership: the child row holds the parent's key.
	ShapeOneToMany Shape = "one_to_many"
	// ShapeManyToMany is an association through a junction table.
	ShapeManyToMany Shape = "many_to_many"
	// ShapeCustom is ownership expressed by injected query and link functions.
	ShapeCustom Shape = "custom"
)

// Options configures a reconciler.
type Options struct {
	// IdentifierKey overrides DefaultIdentifierKey.
	IdentifierKey string
	// Logger receives step-level debug output. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) normalize() Options {
	if o.IdentifierKey == "" {
		o.IdentifierKey = DefaultIdentifierKey
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ReconcileOptions controls whether Run applies its plan.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Confirmed indicates the caller has confirmed destructive actions.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDelete removes a persisted child missing from the incoming set.
	ActionDelete ActionType = "delete"
	// ActionUnlink removes the junction row of a child missing from the incoming set.
	ActionUnlink ActionType = "unlink"
	// ActionCreate persists a new child built from an incoming record.
	ActionCreate ActionType = "create"
	// ActionUpdate overwrites attributes of a persisted child.
	ActionUpdate ActionType = "update"
	// ActionLink associates an existing child through the junction table.
	ActionLink ActionType = "link"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the child identifier. Empty for creations.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// ReconcilePlan lists what a reconciliation would do, without doing it.
type ReconcilePlan struct {
	// Parent is the identifier of the parent entity.
	Parent string `json:"parent"`

	// ChildType is the incoming payload key the plan was built from.
	ChildType string `json:"child_type"`

	// Relation is the relation name, empty for custom shapes.
	Relation string `json:"relation,omitempty"`

	// Shape is the relation shape.
	Shape Shape `json:"shape"`

	// Actions contains planned mutation operations in execution order.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a reconcile plan.
type PlanSummary struct {
	// Incoming is the number of incoming records for the child type.
	Incoming int `json:"incoming"`

	// Missing counts persisted children absent from the incoming set.
	Missing int `json:"missing"`

	// Creates counts records without an identifier.
	Creates int `json:"creates"`

	// Updates counts records with an identifier (one-to-many and custom shapes).
	Updates int `json:"updates"`

	// Links counts identifiers not yet linked (many-to-many).
	Links int `json:"links"`
}

// ChildErrors reports the validation errors of one child.
type ChildErrors struct {
	// Index is the position of the child in ReconcileResult.Children.
	Index int `json:"index"`

	// Identifier is empty for children that were never persisted.
	Identifier string `json:"identifier"`

	// Errors holds messages keyed by attribute.
	Errors FieldErrors `json:"errors"`
}

// ResultSummary counts the mutations that were actually executed.
type ResultSummary struct {
	Deleted  int `json:"deleted"`
	Unlinked int `json:"unlinked"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Linked   int `json:"linked"`
}

// ReconcileResult is the outcome of Run.
type ReconcileResult struct {
	// Plan is the plan computed before anything was applied.
	Plan *ReconcilePlan `json:"plan"`

	// Applied is false when the run stopped after planning (dry run or unconfirmed).
	Applied bool `json:"applied"`

	// Saved is false when validation withheld every save of the batch.
	Saved bool `json:"saved"`

	// Children is the validated set (one-to-many, custom) or the linked set (many-to-many).
	Children []Child `json:"children"`

	// Invalid lists children carrying validation errors.
	Invalid []ChildErrors `json:"invalid,omitempty"`

	// Summary counts executed mutations.
	Summary ResultSummary `json:"summary"`
}
