package gormstore

import (
	"context"
	"fmt"
	"reflect"

	"relation-manager/core/reconcile"

	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Query implements reconcile.Query. It either follows a relation of a parent
// or selects every row of a registered type. Builder methods copy the query.
type Query struct {
	store *Store

	parent   reconcile.Entity
	relation string
	typeName string

	ids      []string
	filtered bool
	ordered  bool
}

// FilterByIdentifiers restricts the query to the given primary keys.
// An empty list selects nothing.
func (q Query) FilterByIdentifiers(ids []string) reconcile.Query {
	q.ids = append([]string(nil), ids...)
	q.filtered = true
	return q
}

// OrderByIdentifierAscending sorts by primary key.
func (q Query) OrderByIdentifierAscending() reconcile.Query {
	q.ordered = true
	return q
}

// All runs the query.
func (q Query) All(ctx context.Context) ([]reconcile.Child, error) {
	var (
		rel   *schema.Relationship
		model any
		err   error
	)
	if q.parent != nil {
		rel, err = q.store.relationship(q.parent, q.relation)
		if err != nil {
			return nil, err
		}
		model = reflect.New(rel.FieldSchema.ModelType).Interface()
	} else {
		model, err = q.store.registry.New(q.typeName)
		if err != nil {
			return nil, err
		}
	}

	sch, err := q.store.schemaOf(model)
	if err != nil {
		return nil, err
	}
	pk := sch.PrioritizedPrimaryField
	if pk == nil {
		return nil, fmt.Errorf("%s has no primary key", sch.Name)
	}
	pkColumn := clause.Column{Table: clause.CurrentTable, Name: pk.DBName}

	tx := q.store.db.WithContext(ctx)
	if q.parent != nil {
		tx = tx.Model(q.parent)
	}
	if q.filtered {
		values := parseIdentifiers(pk, q.ids)
		if len(values) == 0 {
			return []reconcile.Child{}, nil
		}
		tx = tx.Where(clause.IN{Column: pkColumn, Values: values})
	}
	if q.ordered {
		tx = tx.Order(clause.OrderByColumn{Column: pkColumn})
	}

	dest := reflect.New(reflect.SliceOf(reflect.PointerTo(sch.ModelType)))
	if rel != nil {
		err = tx.Association(rel.Name).Find(dest.Interface())
	} else {
		err = tx.Find(dest.Interface()).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", sch.Name, err)
	}

	rows := dest.Elem()
	children := make([]reconcile.Child, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		child, err := asModel(rows.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
