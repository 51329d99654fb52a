package warehouses

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/items"
)

func TestPostgresRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	owner := uuid.New()
	rows := sqlmock.NewRows([]string{"material", "quantity", "last_update"}).
		AddRow("IRON_INGOT", 5, int64(1000)).
		AddRow("GOLD_INGOT", 2, int64(2000))
	mock.ExpectQuery("SELECT material, quantity, last_update FROM warehouses WHERE owner").
		WithArgs(owner.String()).
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	w, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, owner, w.Owner())
	assert.Equal(t, 5, w.Quantity(items.ItemType("IRON_INGOT")))
	assert.Equal(t, 2, w.Quantity(items.ItemType("GOLD_INGOT")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetAbsentYieldsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	owner := uuid.New()
	mock.ExpectQuery("SELECT material, quantity, last_update FROM warehouses WHERE owner").
		WithArgs(owner.String()).
		WillReturnRows(sqlmock.NewRows([]string{"material", "quantity", "last_update"}))

	repo := NewPostgresRepository(db)
	w, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 0, w.TotalQuantity())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveReconciles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	owner := uuid.New()
	w := Hydrate(owner, []Stock{{Type: items.ItemType("IRON_INGOT"), Quantity: 5, LastUpdate: 1000}})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO warehouses").
		WithArgs(owner.String(), "IRON_INGOT", 5, int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM warehouses WHERE owner = \\$1 AND material NOT IN").
		WithArgs(owner.String(), "IRON_INGOT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Save(context.Background(), w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveEmptyDeletesAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	owner := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM warehouses WHERE owner = \\$1").
		WithArgs(owner.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Save(context.Background(), New(owner)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	owner := uuid.New()
	w := Hydrate(owner, []Stock{{Type: items.ItemType("IRON_INGOT"), Quantity: 5, LastUpdate: 1000}})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO warehouses").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewPostgresRepository(db)
	err = repo.Save(context.Background(), w)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_TotalQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(quantity\\), 0\\) FROM warehouses").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(42))

	repo := NewPostgresRepository(db)
	total, err := repo.TotalQuantity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
