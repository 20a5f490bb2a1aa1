// Package relations exposes relation reconciliation over HTTP.
//
// # Endpoints
//
//   - GET /relations/:parent lists the collection relations of a parent type.
//   - GET /relations/:parent/:id/:relation returns the current children.
//   - PUT /relations/:parent/:id/:relation reconciles the relation against the body.
//     dry_run=1 only plans; confirm=1 is needed when reconcile.require_confirmation is set.
//   - GET /history/:parent/:id[/:entry] reads the archive, when enabled.
//
// The relation shape decides the reconciler: has-many relations run
// reconcile.OneToMany, many2many relations run reconcile.ManyToMany. Each PUT
// runs in one database transaction which is rolled back when validation
// withholds the batch; the response is then 422 with the invalid children.
//
// # Status codes
//
//	400 unknown type, relation or malformed body
//	404 parent not found, archive disabled
//	409 payload contradicts the persisted children (contract violation)
//	422 validation withheld the save
package relations
