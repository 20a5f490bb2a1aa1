package models_test

import (
	"context"
	"testing"

	"relation-manager/core/database"
	"relation-manager/core/gormstore"
	"relation-manager/core/reconcile"
	"relation-manager/feature/household/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseholdModels(t *testing.T) {
	assert.Equal(t, "families", models.Family{}.TableName())
	assert.Equal(t, "family_members", models.FamilyMember{}.TableName())
	assert.Equal(t, "people", models.Person{}.TableName())
	assert.Equal(t, "cities", models.City{}.TableName())
	assert.Len(t, models.All(), 4)
}

func newStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return gormstore.New(db, gormstore.NewRegistry(models.All()...))
}

func TestHouseholdRelations(t *testing.T) {
	s := newStore(t)

	members, err := s.Describe(&models.Family{}, "Members")
	require.NoError(t, err)
	assert.Equal(t, reconcile.ShapeOneToMany, members.Shape)
	assert.Equal(t, "FamilyMember", members.ChildType)
	assert.Equal(t, []string{"family_id"}, members.ForeignKeys)

	cities, err := s.VerifyRelation(context.Background(), &models.Person{}, "favourite_cities")
	require.NoError(t, err)
	assert.Equal(t, reconcile.ShapeManyToMany, cities.Shape)
	assert.Equal(t, "person_cities", cities.JoinTable)
}

func TestFamilyMember_Validation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	m := &models.FamilyMember{Name: "Ada  Lovelace", Role: "parent"}
	ok, err := s.Validate(ctx, m)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada.lovelace", m.Handle)

	bad := &models.FamilyMember{Role: "butler"}
	ok, err = s.Validate(ctx, bad)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, bad.Errors(), "name")
	assert.Contains(t, bad.Errors(), "role")
}

func TestFamilyMember_Locked(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	m := &models.FamilyMember{Name: "Grace", Locked: true}
	require.NoError(t, s.DB().Create(m).Error)

	require.NoError(t, s.AssignAttributes(m, reconcile.Record{"role": "guardian"}))
	ok, err := s.Validate(ctx, m)
	require.NoError(t, err)
	assert.True(t, ok, "role stays mutable")

	require.NoError(t, s.AssignAttributes(m, reconcile.Record{"name": "Grace H"}))
	ok, err = s.Validate(ctx, m)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"member is locked"}, m.Errors()["name"])
}
