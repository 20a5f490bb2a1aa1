// Package models contains the household sample models served by the relations feature.
//
// Two relation shapes are covered:
//
//   - Family.Members is a has-many relation (family_members.family_id) and is
//     reconciled one-to-many: absent members are deleted.
//   - Person.FavouriteCities is a many2many relation through person_cities and is
//     reconciled many-to-many: absent cities are unlinked, never deleted.
//
// FamilyMember derives its handle before validation and refuses updates other
// than its role once locked.
package models
