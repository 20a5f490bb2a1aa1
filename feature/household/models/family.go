package models

import (
	"strings"

	"relation-manager/core/gormstore"
)

// Family owns its members: deleting a member from the payload deletes the row.
type Family struct {
	gormstore.Model
	Name    string         `gorm:"column:name;type:varchar(128)" json:"name" validate:"required,max=128"`
	Members []FamilyMember `gorm:"foreignKey:FamilyID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Family) TableName() string {
	return "families"
}

// FamilyMember belongs to exactly one family.
type FamilyMember struct {
	gormstore.Model
	FamilyID *uint  `gorm:"column:family_id;index" json:"family_id"`
	Name     string `gorm:"column:name;type:varchar(64)" json:"name" validate:"required,max=64"`
	Role     string `gorm:"column:role;type:varchar(16)" json:"role" validate:"omitempty,oneof=parent child guardian"`
	Handle   string `gorm:"column:handle;type:varchar(80)" json:"handle"`
	Locked   bool   `gorm:"column:locked" json:"locked"`
}

func (FamilyMember) TableName() string {
	return "family_members"
}

// ComputeAttributes derives the handle from the name before validation.
func (m *FamilyMember) ComputeAttributes() {
	m.Handle = strings.ToLower(strings.Join(strings.Fields(m.Name), "."))
}

// CanUpdate reports whether a persisted member accepts changes beyond its role.
func (m *FamilyMember) CanUpdate() bool { return !m.Locked }

// WhyCantUpdate explains a refused update.
func (m *FamilyMember) WhyCantUpdate() string { return "member is locked" }

// MutableAttributes stay writable on locked members.
func (m *FamilyMember) MutableAttributes() []string { return []string{"role"} }
