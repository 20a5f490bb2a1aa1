package gormstore

import (
	"strings"
	"testing"

	"relation-manager/core/database"

	"github.com/stretchr/testify/require"
)

type Owner struct {
	Model
	Name string `json:"name" validate:"required"`
	Pets []Pet  `gorm:"foreignKey:OwnerID" json:"pets,omitempty"`
}

type Pet struct {
	Model
	OwnerID *uint  `json:"owner_id"`
	Name    string `json:"name" validate:"required,max=32"`
	Species string `json:"species" validate:"omitempty,oneof=cat dog fish"`
	Slug    string `json:"slug"`
	Adopted bool   `json:"adopted"`
}

func (p *Pet) ComputeAttributes() {
	p.Slug = strings.ToLower(strings.ReplaceAll(p.Name, " ", "-"))
}

func (p *Pet) CanUpdate() bool { return !p.Adopted }

func (p *Pet) WhyCantUpdate() string { return "adopted pets are read-only" }

func (p *Pet) MutableAttributes() []string { return []string{"name"} }

type Author struct {
	Model
	Name string `json:"name" validate:"required"`
	Tags []Tag  `gorm:"many2many:author_tags" json:"tags,omitempty"`
}

type Tag struct {
	Model
	Label string `json:"label" validate:"required"`
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Owner{}, &Pet{}, &Author{}, &Tag{}))
	return New(db, NewRegistry(&Owner{}, &Pet{}, &Author{}, &Tag{}))
}

func seedOwner(t *testing.T, s *Store, name string, pets ...string) *Owner {
	t.Helper()
	owner := &Owner{Name: name}
	require.NoError(t, s.DB().Create(owner).Error)
	for _, petName := range pets {
		ownerID := owner.ID
		require.NoError(t, s.DB().Create(&Pet{OwnerID: &ownerID, Name: petName}).Error)
	}
	return owner
}

func seedTags(t *testing.T, s *Store, labels ...string) []*Tag {
	t.Helper()
	tags := make([]*Tag, 0, len(labels))
	for _, label := range labels {
		tag := &Tag{Label: label}
		require.NoError(t, s.DB().Create(tag).Error)
		tags = append(tags, tag)
	}
	return tags
}
