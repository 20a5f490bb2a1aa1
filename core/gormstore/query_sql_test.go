package gormstore

import (
	"context"
	"testing"

	"relation-manager/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)
	return New(db, NewRegistry(&Owner{}, &Pet{}, &Author{}, &Tag{})), mock
}

func TestQuery_HasManySQL(t *testing.T) {
	s, mock := setupMockStore(t)
	owner := &Owner{Model: Model{ID: 1}}

	rows := sqlmock.NewRows([]string{"id", "owner_id", "name"}).
		AddRow(2, 1, "Fido").
		AddRow(5, 1, "Rex")
	mock.ExpectQuery("SELECT \\* FROM `pets` WHERE .*`pets`.`id` IN \\(\\?,\\?\\).*ORDER BY `pets`.`id`").
		WillReturnRows(rows)

	children, err := s.QueryRelation(owner, "Pets").
		FilterByIdentifiers([]string{"5", "2"}).
		OrderByIdentifierAscending().
		All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5"}, reconcile.ChildIdentifiers(children))
	assert.Equal(t, "Rex", children[1].(*Pet).Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ManyToManySQL(t *testing.T) {
	s, mock := setupMockStore(t)
	author := &Author{Model: Model{ID: 3}}

	rows := sqlmock.NewRows([]string{"id", "label"}).AddRow(7, "go")
	// a single identifier renders as equality, not IN
	mock.ExpectQuery("FROM `tags` JOIN `author_tags` ON .*`author_tags`.`author_id` = \\?.*WHERE `tags`.`id` = \\?").
		WillReturnRows(rows)

	children, err := s.QueryRelation(author, "Tags").FilterByIdentifiers([]string{"7"}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "go", children[0].(*Tag).Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_UniverseSQL(t *testing.T) {
	s, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "label"}).AddRow(1, "a").AddRow(2, "b")
	mock.ExpectQuery("SELECT \\* FROM `tags` ORDER BY `tags`.`id`").WillReturnRows(rows)

	children, err := s.QueryAll("Tag").OrderByIdentifierAscending().All(context.Background())
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_EmptyFilterSkipsDatabase(t *testing.T) {
	s, mock := setupMockStore(t)

	children, err := s.QueryAll("Tag").FilterByIdentifiers([]string{}).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.NoError(t, mock.ExpectationsWereMet())
}
