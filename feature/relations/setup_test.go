package relations_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"relation-manager/core/archive"
	"relation-manager/core/database"
	"relation-manager/core/gormstore"
	"relation-manager/core/reconcile"
	"relation-manager/feature/household/models"
	"relation-manager/feature/relations"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	app   *fiber.App
	store *gormstore.Store
}

func setup(t *testing.T, cfg reconcile.Config, archiver *archive.Archiver) *env {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	store := gormstore.New(db, gormstore.NewRegistry(models.All()...))
	feature := relations.NewFeature(store, archiver, cfg, zap.NewNop())

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return &env{app: app, store: store}
}

// seedFamily creates family 1 with members 1 "Ann", 2 "Ben", 3 "Cy".
func (e *env) seedFamily(t *testing.T) *models.Family {
	t.Helper()
	family := &models.Family{Name: "Smith"}
	require.NoError(t, e.store.DB().Create(family).Error)
	for _, name := range []string{"Ann", "Ben", "Cy"} {
		id := family.ID
		require.NoError(t, e.store.DB().Create(&models.FamilyMember{FamilyID: &id, Name: name}).Error)
	}
	return family
}

// seedPerson creates person 1 linked to cities 1 and 2; city 3 exists unlinked.
func (e *env) seedPerson(t *testing.T) *models.Person {
	t.Helper()
	cities := []*models.City{{Name: "Lisbon"}, {Name: "Porto"}, {Name: "Faro"}}
	for _, c := range cities {
		require.NoError(t, e.store.DB().Create(c).Error)
	}
	person := &models.Person{Name: "Rita", FavouriteCities: []models.City{*cities[0], *cities[1]}}
	require.NoError(t, e.store.DB().Create(person).Error)
	return person
}

func (e *env) memberNames(t *testing.T) map[uint]string {
	t.Helper()
	var members []models.FamilyMember
	require.NoError(t, e.store.DB().Where("family_id = ?", 1).Find(&members).Error)
	names := make(map[uint]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}

func (e *env) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (e *env) doList(t *testing.T, target string) (int, []map[string]any) {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func summary(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	result, ok := body["result"].(map[string]any)
	require.True(t, ok, "response carries a result")
	return result["summary"].(map[string]any)
}
