package gormstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"relation-manager/core/database"
	"relation-manager/core/reconcile"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// RelationInfo describes a collection relation as GORM resolved it.
type RelationInfo struct {
	Name        string          `json:"name"`
	Shape       reconcile.Shape `json:"shape"`
	ParentType  string          `json:"parent_type"`
	ParentTable string          `json:"parent_table"`
	ChildType   string          `json:"child_type"`
	ChildTable  string          `json:"child_table"`
	JoinTable   string          `json:"join_table,omitempty"`
	ForeignKeys []string        `json:"foreign_keys"`
}

// relationship resolves a relation by Go field name. "favourite_cities" and
// "FavouriteCities" name the same relation.
func (s *Store) relationship(model any, name string) (*schema.Relationship, error) {
	sch, err := s.schemaOf(model)
	if err != nil {
		return nil, err
	}
	if rel, ok := sch.Relationships.Relations[name]; ok {
		return rel, nil
	}
	want := normalizeRelationName(name)
	for relName, rel := range sch.Relationships.Relations {
		if normalizeRelationName(relName) == want {
			return rel, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no relation %q", ErrUnknownRelation, sch.Name, name)
}

func normalizeRelationName(name string) string {
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	return strings.ToLower(name)
}

func shapeOf(rel *schema.Relationship) reconcile.Shape {
	switch rel.Type {
	case schema.HasMany:
		return reconcile.ShapeOneToMany
	case schema.Many2Many:
		return reconcile.ShapeManyToMany
	default:
		return ""
	}
}

func describe(rel *schema.Relationship) RelationInfo {
	info := RelationInfo{
		Name:        rel.Name,
		Shape:       shapeOf(rel),
		ParentType:  rel.Schema.Name,
		ParentTable: rel.Schema.Table,
		ChildType:   rel.FieldSchema.Name,
		ChildTable:  rel.FieldSchema.Table,
		ForeignKeys: []string{},
	}
	if rel.JoinTable != nil {
		info.JoinTable = rel.JoinTable.Table
	}
	for _, ref := range rel.References {
		if ref.ForeignKey != nil {
			info.ForeignKeys = append(info.ForeignKeys, ref.ForeignKey.DBName)
		}
	}
	return info
}

// Describe reports the shape and tables of a collection relation of model.
// Relations that are not has-many or many2many are ErrUnsupportedShape.
func (s *Store) Describe(model any, relation string) (RelationInfo, error) {
	rel, err := s.relationship(model, relation)
	if err != nil {
		return RelationInfo{}, err
	}
	info := describe(rel)
	if info.Shape == "" {
		return info, fmt.Errorf("%w: %s.%s is %s", ErrUnsupportedShape, rel.Schema.Name, rel.Name, rel.Type)
	}
	return info, nil
}

// Relations lists every collection relation of model, sorted by name.
func (s *Store) Relations(model any) ([]RelationInfo, error) {
	sch, err := s.schemaOf(model)
	if err != nil {
		return nil, err
	}
	var infos []RelationInfo
	for _, rel := range sch.Relationships.HasMany {
		infos = append(infos, describe(rel))
	}
	for _, rel := range sch.Relationships.Many2Many {
		infos = append(infos, describe(rel))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// VerifyRelation describes a relation and checks that the live database has
// the table and foreign key columns backing it.
func (s *Store) VerifyRelation(ctx context.Context, model any, relation string) (RelationInfo, error) {
	info, err := s.Describe(model, relation)
	if err != nil {
		return info, err
	}
	table := info.ChildTable
	if info.JoinTable != "" {
		table = info.JoinTable
	}
	missing, err := database.MissingColumns(s.db.WithContext(ctx), table, info.ForeignKeys...)
	if err != nil {
		return info, err
	}
	if len(missing) > 0 {
		return info, fmt.Errorf("%w: table %s lacks columns %v", ErrSchemaMismatch, table, missing)
	}
	return info, nil
}

// Shape returns the shape of a relation of model.
func (s *Store) Shape(model any, relation string) (reconcile.Shape, error) {
	info, err := s.Describe(model, relation)
	return info.Shape, err
}

// QueryRelation returns the children reachable through relation. Resolution
// errors surface when the query runs.
func (s *Store) QueryRelation(parent reconcile.Entity, relation string) reconcile.Query {
	return Query{store: s, parent: parent, relation: relation}
}

// QueryAll returns every row of the named type. It serves as the universe of
// many-to-many reconcilers.
func (s *Store) QueryAll(childType string) reconcile.Query {
	return Query{store: s, typeName: childType}
}

// Associate sets the foreign key of a child to its has-many parent in memory.
func (s *Store) Associate(parent reconcile.Entity, relation string, child reconcile.Child) error {
	rel, err := s.relationship(parent, relation)
	if err != nil {
		return err
	}
	if rel.Type != schema.HasMany && rel.Type != schema.HasOne {
		return fmt.Errorf("%w: cannot assign a foreign key through %s relation %s", ErrUnsupportedShape, rel.Type, rel.Name)
	}
	if err := checkChildType(rel, child); err != nil {
		return err
	}

	ctx := context.Background()
	prv, crv := reflect.ValueOf(parent), reflect.ValueOf(child)
	for _, ref := range rel.References {
		switch {
		case ref.OwnPrimaryKey:
			v, zero := ref.PrimaryKey.ValueOf(ctx, prv)
			if zero {
				return fmt.Errorf("cannot associate with unsaved %s", rel.Schema.Name)
			}
			if err := ref.ForeignKey.Set(ctx, crv, v); err != nil {
				return fmt.Errorf("failed to set %s.%s: %w", rel.FieldSchema.Name, ref.ForeignKey.Name, err)
			}
		case ref.PrimaryValue != "":
			if err := ref.ForeignKey.Set(ctx, crv, ref.PrimaryValue); err != nil {
				return fmt.Errorf("failed to set %s.%s: %w", rel.FieldSchema.Name, ref.ForeignKey.Name, err)
			}
		}
	}
	return nil
}

// Link inserts the junction row between parent and an existing child.
func (s *Store) Link(ctx context.Context, parent reconcile.Entity, relation string, child reconcile.Child) error {
	rel, err := s.relationship(parent, relation)
	if err != nil {
		return err
	}
	if rel.Type != schema.Many2Many {
		return fmt.Errorf("%w: link needs a many2many relation, %s is %s", ErrUnsupportedShape, rel.Name, rel.Type)
	}
	if err := checkChildType(rel, child); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(parent).Association(rel.Name).Append(child); err != nil {
		return fmt.Errorf("failed to link %s %s: %w", rel.FieldSchema.Name, child.Identifier(), err)
	}
	return nil
}

// Unlink dissociates child from parent. On many2many relations only the
// junction row goes, and deleteJunctionRow must be true. On has-many relations
// deleteJunctionRow deletes the child row, otherwise its foreign key is nulled.
func (s *Store) Unlink(ctx context.Context, parent reconcile.Entity, relation string, child reconcile.Child, deleteJunctionRow bool) error {
	rel, err := s.relationship(parent, relation)
	if err != nil {
		return err
	}
	if err := checkChildType(rel, child); err != nil {
		return err
	}

	switch rel.Type {
	case schema.Many2Many:
		if !deleteJunctionRow {
			return fmt.Errorf("%w: many2many unlink always deletes the junction row", ErrUnsupportedShape)
		}
	case schema.HasMany, schema.HasOne:
		if deleteJunctionRow {
			return s.Delete(ctx, child)
		}
	default:
		return fmt.Errorf("%w: cannot unlink through %s relation %s", ErrUnsupportedShape, rel.Type, rel.Name)
	}

	if err := s.db.WithContext(ctx).Model(parent).Association(rel.Name).Delete(child); err != nil {
		return fmt.Errorf("failed to unlink %s %s: %w", rel.FieldSchema.Name, child.Identifier(), err)
	}
	return nil
}

// Refresh drops loaded relations from parent and reloads its row.
func (s *Store) Refresh(ctx context.Context, parent reconcile.Entity) error {
	if parent.Identifier() == "" {
		return fmt.Errorf("cannot refresh unsaved %s", TypeName(parent))
	}
	sch, err := s.schemaOf(parent)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(parent)
	for _, rel := range sch.Relationships.Relations {
		fv := rel.Field.ReflectValueOf(ctx, rv)
		if fv.CanSet() {
			fv.Set(reflect.Zero(fv.Type()))
		}
	}

	err = s.db.WithContext(ctx).First(parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, sch.Name, parent.Identifier())
	}
	if err != nil {
		return fmt.Errorf("failed to reload %s %s: %w", sch.Name, parent.Identifier(), err)
	}
	return nil
}

func checkChildType(rel *schema.Relationship, child any) error {
	t := reflect.TypeOf(child)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != rel.FieldSchema.ModelType {
		return fmt.Errorf("relation %s holds %s, got %s", rel.Name, rel.FieldSchema.Name, t.Name())
	}
	return nil
}
