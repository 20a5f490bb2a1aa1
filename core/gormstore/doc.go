// Package gormstore is the GORM-backed persistence collaborator of the
// reconcile package.
//
// Models embed Model, which supplies the numeric primary key, timestamps and
// the validation error bag reconcilers inspect. A Registry maps the child type
// names used as payload keys to model types.
//
// # Relations
//
// Relations are resolved from GORM schema metadata by Go field name:
//   - has-many relations are reconciled with reconcile.OneToMany. Associate sets
//     the foreign key in memory, Unlink nulls it or deletes the row.
//   - many2many relations are reconciled with reconcile.ManyToMany. Link and
//     Unlink only touch the junction table.
//
// Describe and VerifyRelation report the shape, tables and foreign keys of a
// relation, the latter checking them against the live schema.
//
// # Validation
//
// Validate runs, in order, ComputeAttributes (AttributeComputer), go-playground
// validator struct tags reported under json names, and the Immutable check:
// a persisted model whose CanUpdate is false rejects changes to attributes
// outside MutableAttributes.
//
// # Usage
//
//	registry := gormstore.NewRegistry(&models.Family{}, &models.FamilyMember{})
//	store := gormstore.New(db, registry, gormstore.WithLogger(log))
//
//	err := store.Transaction(ctx, func(tx *gormstore.Store) error {
//	    family, err := tx.Find(ctx, "Family", "1")
//	    ...
//	})
package gormstore
