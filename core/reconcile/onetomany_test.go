package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedFamily persists children "1", "2", "3" under parent "p1" and one child under "p2".
func seedFamily() (*fakeStore, *fakeParent) {
	store := newFakeStore()
	store.own("p1", "1", "one")
	store.own("p1", "2", "two")
	store.own("p1", "3", "three")
	store.own("p2", "9", "other family")
	return store, &fakeParent{id: "p1"}
}

func scenarioPayload() Incoming {
	return Incoming{
		"Member": {rec("", "X"), rec("2", "Y")},
		"Pet":    {rec("", "ignored")},
	}
}

func TestOneToMany_Scenario(t *testing.T) {
	ctx := context.Background()
	store, parent := seedFamily()

	r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
	require.NoError(t, err)
	assert.Len(t, r.Incoming(), 2)

	missing, err := r.MissingChildren(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ChildIdentifiers(missing))

	deleted, err := r.DeleteMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ChildIdentifiers(deleted))
	assert.Equal(t, []string{"1", "3"}, store.deleted)

	created, err := r.CreateNew(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "", created[0].Identifier())
	assert.Equal(t, "X", created[0].(*fakeChild).name())
	assert.Equal(t, "p1", created[0].(*fakeChild).parentID)
	assert.NotContains(t, created[0].(*fakeChild).attrs, "identifier")

	updated, err := r.UpdateOld(ctx)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "2", updated[0].Identifier())
	assert.Equal(t, "Y", updated[0].(*fakeChild).name())
	assert.Empty(t, store.saved, "staging steps must not save")

	saved, err := r.CreateUpdateValidateSave(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Len(t, store.saved, 2)
	assert.Equal(t, map[string]string{"2": "Y", saved[0].Identifier(): "X"}, store.persistedNames("p1"))
	assert.Equal(t, map[string]string{"9": "other family"}, store.persistedNames("p2"))
}

func TestOneToMany_CreateUpdateOrder(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {rec("3", "c"), rec("", "new"), rec("1", "a")}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	require.NoError(t, err)

	children, err := r.CreateUpdate(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "", children[0].Identifier())
	assert.Equal(t, []string{"1", "3"}, ChildIdentifiers(children[1:]))
}

func TestOneToMany_AllOrNothingSave(t *testing.T) {
	ctx := context.Background()
	store, parent := seedFamily()
	payload := Incoming{"Member": {rec("", "valid"), rec("1", ""), rec("2", "still valid")}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	require.NoError(t, err)

	children, err := r.CreateUpdateValidateSave(ctx)
	require.NoError(t, err)
	require.Len(t, children, 3)

	assert.Empty(t, store.saved)
	assert.False(t, AllValid(children))
	invalid := CollectInvalid(children)
	require.Len(t, invalid, 1)
	assert.Equal(t, "1", invalid[0].Identifier)
	assert.Equal(t, []string{"name is required"}, invalid[0].Errors["name"])
}

func TestOneToMany_CreateUpdateValidateDoesNotRaise(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {rec("", "")}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	require.NoError(t, err)

	children, err := r.CreateUpdateValidate(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.True(t, children[0].HasErrors())
	assert.Empty(t, store.saved)
}

func TestOneToMany_UnknownIdentifierIsContractViolation(t *testing.T) {
	store, parent := seedFamily()
	// "9" exists but belongs to another parent
	payload := Incoming{"Member": {rec("2", "b"), rec("9", "stolen")}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	require.NoError(t, err)

	_, err = r.UpdateOld(context.Background())
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, "other family", store.children["9"].name())
}

func TestOneToMany_MissingIdentifierAttribute(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {{"name": "no identifier"}}}

	_, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestOneToMany_DuplicateIdentifiers(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {rec("2", "a"), rec(float64(2), "b")}}

	_, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestOneToMany_CustomIdentifierKey(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {{"id": "2", "name": "renamed"}, {"id": "", "name": "n"}}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{IdentifierKey: "id"})
	require.NoError(t, err)

	updated, err := r.UpdateOld(context.Background())
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "renamed", updated[0].(*fakeChild).name())
	assert.NotContains(t, updated[0].(*fakeChild).attrs, "id")
}

func TestOneToMany_AbsentChildTypeDeletesEverything(t *testing.T) {
	ctx := context.Background()
	store, parent := seedFamily()

	r, err := NewOneToMany(store, parent, "Member", "members", Incoming{}, Options{})
	require.NoError(t, err)
	assert.Empty(t, r.Incoming())

	deleted, err := r.DeleteMissing(ctx)
	require.NoError(t, err)
	assert.Len(t, deleted, 3)

	saved, err := r.CreateUpdateValidateSave(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestOneToMany_DeleteErrorPropagates(t *testing.T) {
	store, parent := seedFamily()
	store.deleteErr = errors.New("disk on fire")

	r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
	require.NoError(t, err)

	_, err = r.DeleteMissing(context.Background())
	assert.ErrorIs(t, err, store.deleteErr)
}

func TestOneToMany_SaveRejectedAfterValidation(t *testing.T) {
	store, parent := seedFamily()
	store.rejectAll = true

	r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
	require.NoError(t, err)

	_, err = r.CreateUpdateValidateSave(context.Background())
	assert.ErrorIs(t, err, ErrSaveRejected)
}

func TestOneToMany_OutOfOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("DeleteAfterCreate", func(t *testing.T) {
		store, parent := seedFamily()
		r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
		require.NoError(t, err)

		_, err = r.CreateNew(ctx)
		require.NoError(t, err)
		_, err = r.DeleteMissing(ctx)
		assert.ErrorIs(t, err, ErrOutOfOrder)
		assert.Empty(t, store.deleted)
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		store, parent := seedFamily()
		r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
		require.NoError(t, err)

		_, err = r.DeleteMissing(ctx)
		require.NoError(t, err)
		_, err = r.DeleteMissing(ctx)
		assert.ErrorIs(t, err, ErrOutOfOrder)
	})

	t.Run("AnythingAfterSave", func(t *testing.T) {
		store, parent := seedFamily()
		r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
		require.NoError(t, err)

		_, err = r.CreateUpdateValidateSave(ctx)
		require.NoError(t, err)

		_, err = r.UpdateOld(ctx)
		assert.ErrorIs(t, err, ErrOutOfOrder)
		_, err = r.CreateUpdateValidateSave(ctx)
		assert.ErrorIs(t, err, ErrOutOfOrder)
		_, err = r.Run(ctx, ReconcileOptions{Confirmed: true})
		assert.ErrorIs(t, err, ErrOutOfOrder)
	})
}

func TestOneToMany_Plan(t *testing.T) {
	store, parent := seedFamily()

	r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
	require.NoError(t, err)

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "p1", plan.Parent)
	assert.Equal(t, ShapeOneToMany, plan.Shape)
	assert.Equal(t, PlanSummary{Incoming: 2, Missing: 2, Creates: 1, Updates: 1}, plan.Summary)
	require.Len(t, plan.Actions, 4)
	assert.Equal(t, Action{Type: ActionDelete, Key: "1", Reason: "absent from incoming records"}, plan.Actions[0])
	assert.Equal(t, ActionCreate, plan.Actions[2].Type)
	assert.Equal(t, Action{Type: ActionUpdate, Key: "2", Reason: "identifier present in incoming records"}, plan.Actions[3])
	assert.True(t, plan.HasChanges())
	assert.True(t, plan.IsDestructive())
	assert.Empty(t, store.deleted)
}

func TestOneToMany_PlanDetectsUnknownIdentifier(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {rec("42", "ghost")}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	require.NoError(t, err)

	_, err = r.Plan(context.Background())
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestOneToMany_Run(t *testing.T) {
	tests := []struct {
		name        string
		opts        ReconcileOptions
		wantApplied bool
	}{
		{"DryRun", ReconcileOptions{DryRun: true, Confirmed: true}, false},
		{"Unconfirmed", ReconcileOptions{}, false},
		{"Confirmed", ReconcileOptions{Confirmed: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, parent := seedFamily()
			r, err := NewOneToMany(store, parent, "Member", "members", scenarioPayload(), Options{})
			require.NoError(t, err)

			result, err := r.Run(context.Background(), tt.opts)
			require.NoError(t, err)
			require.NotNil(t, result.Plan)
			assert.Equal(t, tt.wantApplied, result.Applied)
			assert.Equal(t, 2, result.Plan.Summary.Missing)

			if !tt.wantApplied {
				assert.Empty(t, store.deleted)
				assert.Empty(t, store.saved)
				assert.Empty(t, result.Children)
				return
			}
			assert.True(t, result.Saved)
			assert.Equal(t, ResultSummary{Deleted: 2, Created: 1, Updated: 1}, result.Summary)
			assert.Len(t, result.Children, 2)
			assert.Empty(t, result.Invalid)
		})
	}
}

func TestOneToMany_RunWithholdsInvalidBatch(t *testing.T) {
	store, parent := seedFamily()
	payload := Incoming{"Member": {rec("", ""), rec("2", "Y")}}

	r, err := NewOneToMany(store, parent, "Member", "members", payload, Options{})
	require.NoError(t, err)

	result, err := r.Run(context.Background(), ReconcileOptions{Confirmed: true})
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.False(t, result.Saved)
	assert.Empty(t, store.saved)
	require.Len(t, result.Invalid, 1)
	assert.Equal(t, 0, result.Invalid[0].Index)
	assert.Equal(t, 0, result.Summary.Created)
	// deletion already happened; rolling it back is the caller's transaction
	assert.Equal(t, 2, result.Summary.Deleted)
}
