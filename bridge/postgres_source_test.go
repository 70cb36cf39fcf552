package bridge_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/bridge"
	"github.com/kadedb/kadedb/internal/relational"
)

func usersSchema() *kadedb.TableSchema {
	return kadedb.NewTableSchema([]kadedb.Column{
		{Name: "id", Type: kadedb.ColInteger},
		{Name: "name", Type: kadedb.ColString},
		{Name: "active", Type: kadedb.ColBoolean},
	})
}

func TestImportPostgresTableInsertsEveryRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "active"}).
		AddRow(int64(1), "alice", true).
		AddRow(int64(2), "bob", false)
	mock.ExpectQuery(`SELECT id, name, active FROM remote_users`).WillReturnRows(rows)

	dest := relational.NewEngine()
	require.NoError(t, dest.CreateTable("users", usersSchema()))

	b := bridge.New(nil)
	n, err := b.ImportPostgresTable(context.Background(), mock, "remote_users", dest, "users")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := dest.Select("users", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	name, _ := got[0].Cells[1].AsString()
	assert.Equal(t, "alice", name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportPostgresTablePropagatesQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, active FROM remote_users`).WillReturnError(assert.AnError)

	dest := relational.NewEngine()
	require.NoError(t, dest.CreateTable("users", usersSchema()))

	b := bridge.New(nil)
	_, err = b.ImportPostgresTable(context.Background(), mock, "remote_users", dest, "users")
	require.Error(t, err)
}
