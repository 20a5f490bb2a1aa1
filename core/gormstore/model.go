package gormstore

import (
	"sort"
	"strconv"
	"time"

	"relation-manager/core/reconcile"
)

// Model is the base every reconciled model embeds. It provides the numeric
// primary key, timestamps and the validation error bag reconcilers read.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errs       reconcile.FieldErrors
	assignErrs reconcile.FieldErrors
	dirty      map[string]struct{}
}

// Identifier returns the primary key as a decimal string, or "" before the first save.
func (m *Model) Identifier() string {
	if m.ID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(m.ID), 10)
}

// IsNew reports whether the model was never saved.
func (m *Model) IsNew() bool {
	return m.ID == 0
}

// Errors returns validation messages keyed by attribute.
func (m *Model) Errors() reconcile.FieldErrors {
	return m.errs
}

// HasErrors reports whether the last validation failed.
func (m *Model) HasErrors() bool {
	return len(m.errs) > 0
}

// AddError attaches a validation message to an attribute.
func (m *Model) AddError(attr, msg string) {
	if m.errs == nil {
		m.errs = reconcile.FieldErrors{}
	}
	m.errs[attr] = append(m.errs[attr], msg)
}

// ClearErrors drops every validation message.
func (m *Model) ClearErrors() {
	m.errs = nil
}

// DirtyAttributes lists attributes changed by AssignAttributes since the last save.
func (m *Model) DirtyAttributes() []string {
	attrs := make([]string, 0, len(m.dirty))
	for attr := range m.dirty {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	return attrs
}

func (m *Model) markDirty(attr string) {
	if m.dirty == nil {
		m.dirty = map[string]struct{}{}
	}
	m.dirty[attr] = struct{}{}
}

func (m *Model) clean() {
	m.dirty = nil
}

// rejectAttribute records a value AssignAttributes could not decode. It stays
// attached across validations until the next assignment.
func (m *Model) rejectAttribute(attr, msg string) {
	if m.assignErrs == nil {
		m.assignErrs = reconcile.FieldErrors{}
	}
	m.assignErrs[attr] = append(m.assignErrs[attr], msg)
	m.AddError(attr, msg)
}

func (m *Model) restoreRejected() {
	for attr, msgs := range m.assignErrs {
		for _, msg := range msgs {
			m.AddError(attr, msg)
		}
	}
}

func (m *Model) base() *Model { return m }

// modeled is satisfied by every struct embedding Model.
type modeled interface {
	reconcile.Child
	base() *Model
}

// AttributeComputer is implemented by models that derive attributes from
// others. ComputeAttributes runs before every validation.
type AttributeComputer interface {
	ComputeAttributes()
}

// Immutable is implemented by models that refuse updates under some condition.
// When CanUpdate is false, changing any attribute not listed by
// MutableAttributes (if implemented) is a validation error carrying WhyCantUpdate.
type Immutable interface {
	CanUpdate() bool
	WhyCantUpdate() string
}

// PartiallyMutable lists attributes that stay writable on an Immutable model.
type PartiallyMutable interface {
	MutableAttributes() []string
}
