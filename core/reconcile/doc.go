// Package reconcile brings the children persisted under a parent in line with an
// incoming description of the desired child set.
//
// The incoming payload groups flat attribute records by child type name. Each
// record carries an identifier attribute: empty means "create this child",
// non-empty names a persisted child to update or keep linked. Persisted children
// whose identifier is absent from the payload are "missing".
//
// # Architecture
//
// The package consists of three layers:
//
// 1. Matcher: pure functions (PartitionByIdentifierPresence, MatchSorted,
//    ComputeMissing) that partition records and pair them with persisted
//    children. They never touch the store.
//
// 2. RelationshipContext: the request-scoped parent, child type, relation and
//    incoming slice shared by every reconciler, plus MissingChildren.
//
// 3. Reconcilers, one per relation shape:
//   - Tabular: ownership expressed by two injected functions (current children
//     query, parent/child link). Deletes missing children, creates and updates
//     the rest, validates, then saves all or nothing.
//   - OneToMany: a Tabular built from a named foreign-key relation.
//   - ManyToMany: junction relations. Unlinks missing children (the child rows
//     stay), links incoming children that are not linked yet.
//
// # Ordering
//
// Destructive steps run first, then staging, then the terminal save. Each
// reconciler tracks its progress and refuses out-of-order calls with
// ErrOutOfOrder. Run sequences every step in one call.
//
// # Plan and apply
//
// Plan computes the actions without side effects. Run plans first and only
// applies when ReconcileOptions.Confirmed is set and DryRun is not.
//
// # Usage Example
//
//	r, err := reconcile.NewOneToMany(store, family, "FamilyMember", "Members", payload, reconcile.Options{Logger: log})
//	if err != nil {
//	    return err
//	}
//	result, err := r.Run(ctx, reconcile.ReconcileOptions{Confirmed: true})
//	if errors.Is(err, reconcile.ErrContractViolation) {
//	    // the payload named children that do not exist
//	}
//	if !result.Saved {
//	    // result.Invalid lists the validation errors; nothing was saved
//	}
//
// Transactions are the caller's business: wrap Run in one when the store
// supports it and roll back when Saved is false.
package reconcile
