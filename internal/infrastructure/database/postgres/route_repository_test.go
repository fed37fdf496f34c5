package postgres

import (
	"context"
	"testing"

	"rx-logistics/internal/domain/route"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routeColumns = []string{"code", "region", "scanner_phone", "duration", "stops"}

func TestRouteRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "routes" ORDER BY code ASC`).
		WillReturnRows(sqlmock.NewRows(routeColumns).
			AddRow("001", "North East (NE)", "331-219-9534", "9 Hrs",
				`[{"name":"Sherrill House","address":"135 S Huntington Ave, Boston, MA 02130","phone":"617-731-2400"},`+
					`{"name":"South Cove Manor","address":"288 Washington St, Quincy, MA 02169","phone":"617-423-0590"}]`).
			AddRow("002", "West (W)", "331-329-2166", "4.5 Hrs", `[]`))

	routes, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, routes, 2)
	require.Len(t, routes[0].Stops, 2)
	assert.Equal(t, "Sherrill House", routes[0].Stops[0].Name)
	assert.Equal(t, "South Cove Manor", routes[0].Stops[1].Name)
	assert.Empty(t, routes[1].Stops)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouteRepository_GetByCode_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRouteRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "routes" WHERE code = \$1`).
		WillReturnRows(sqlmock.NewRows(routeColumns))

	_, err := repo.GetByCode(context.Background(), "999")

	assert.ErrorIs(t, err, route.ErrRouteNotFound)
}
