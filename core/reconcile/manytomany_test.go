package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCities builds a universe of "5", "6", "7" with "5" and "6" linked to the parent.
func seedCities() (*fakeStore, *fakeParent) {
	store := newFakeStore()
	store.universe("5", "6", "7")
	store.link("5", "6")
	return store, &fakeParent{id: "person-1"}
}

func citiesPayload(ids ...any) Incoming {
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, Record{"identifier": id})
	}
	return Incoming{"City": records}
}

func TestManyToMany_Scenario(t *testing.T) {
	ctx := context.Background()
	store, parent := seedCities()

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("6", "7"), Options{})
	require.NoError(t, err)

	unlinked, err := r.UnlinkMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, ChildIdentifiers(unlinked))
	assert.Equal(t, []bool{true}, store.flags)

	linked, err := r.LinkIncoming(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ChildIdentifiers(linked))
	assert.Equal(t, []string{"7"}, store.linked)

	current, err := r.GetCurrentChildren(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"6", "7"}, ChildIdentifiers(current))
	assert.Equal(t, 1, store.refresh)
}

func TestManyToMany_UnlinkNeverDeletes(t *testing.T) {
	ctx := context.Background()
	store, parent := seedCities()

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload(), Options{})
	require.NoError(t, err)

	_, err = r.UnlinkMissing(ctx)
	require.NoError(t, err)

	assert.Empty(t, store.deleted)
	assert.Empty(t, store.links)
	universe, err := store.all().All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "6", "7"}, ChildIdentifiers(universe))
}

func TestManyToMany_LinkIncomingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, parent := seedCities()

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("6", "7", ""), Options{})
	require.NoError(t, err)

	first, err := r.LinkIncoming(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := r.LinkIncoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)

	assert.Equal(t, []string{"7"}, store.linked)
}

func TestManyToMany_UnknownIdentifiersAreSkipped(t *testing.T) {
	store, parent := seedCities()

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("7", "404"), Options{})
	require.NoError(t, err)

	linked, err := r.LinkIncoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ChildIdentifiers(linked))
	assert.NotContains(t, store.links, "404")
}

func TestManyToMany_InvalidCandidateWithholdsLinks(t *testing.T) {
	store, parent := seedCities()
	store.universe("8")
	store.children["8"].attrs["name"] = ""

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("7", "8"), Options{})
	require.NoError(t, err)

	candidates, err := r.LinkIncoming(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Empty(t, store.linked)
	assert.True(t, candidates[1].HasErrors())
}

func TestManyToMany_OutOfOrder(t *testing.T) {
	ctx := context.Background()
	store, parent := seedCities()

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("6"), Options{})
	require.NoError(t, err)

	_, err = r.LinkIncoming(ctx)
	require.NoError(t, err)
	_, err = r.UnlinkMissing(ctx)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Empty(t, store.unlinked)
}

func TestManyToMany_NilUniverse(t *testing.T) {
	store, parent := seedCities()
	_, err := NewManyToMany(store, parent, "City", "cities", nil, citiesPayload(), Options{})
	assert.Error(t, err)
}

func TestManyToMany_Plan(t *testing.T) {
	store, parent := seedCities()

	r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("6", "7"), Options{})
	require.NoError(t, err)

	plan, err := r.Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ShapeManyToMany, plan.Shape)
	assert.Equal(t, "cities", plan.Relation)
	assert.Equal(t, PlanSummary{Incoming: 2, Missing: 1, Links: 1}, plan.Summary)
	assert.Equal(t, []Action{
		{Type: ActionUnlink, Key: "5", Reason: "absent from incoming records"},
		{Type: ActionLink, Key: "7", Reason: "not linked yet"},
	}, plan.Actions)
	assert.Empty(t, store.unlinked)
	assert.Empty(t, store.linked)
}

func TestManyToMany_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("DryRun", func(t *testing.T) {
		store, parent := seedCities()
		r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("6", "7"), Options{})
		require.NoError(t, err)

		result, err := r.Run(ctx, ReconcileOptions{DryRun: true, Confirmed: true})
		require.NoError(t, err)
		assert.False(t, result.Applied)
		assert.Empty(t, store.unlinked)
		assert.Empty(t, store.linked)
	})

	t.Run("Confirmed", func(t *testing.T) {
		store, parent := seedCities()
		r, err := NewManyToMany(store, parent, "City", "cities", store.all, citiesPayload("6", "7"), Options{})
		require.NoError(t, err)

		result, err := r.Run(ctx, ReconcileOptions{Confirmed: true})
		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.True(t, result.Saved)
		assert.Equal(t, ResultSummary{Unlinked: 1, Linked: 1}, result.Summary)
		assert.Equal(t, []string{"6", "7"}, ChildIdentifiers(result.Children))

		_, err = r.Run(ctx, ReconcileOptions{Confirmed: true})
		assert.ErrorIs(t, err, ErrOutOfOrder)
	})
}
