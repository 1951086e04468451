package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelfstock/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LocationRepoTestSuite struct {
	suite.Suite
	mock        pgxmock.PgxPoolIface
	repo        LocationRepository
	warehouseID uuid.UUID
	locationID  uuid.UUID
	context     context.Context
}

func (suite *LocationRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewLocationRepository(mock)
	suite.warehouseID = uuid.New()
	suite.locationID = uuid.New()
	suite.context = context.Background()
}

func (suite *LocationRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestLocationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LocationRepoTestSuite))
}

func (suite *LocationRepoTestSuite) locationRows(locations ...*models.Location) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "warehouse_id", "parent_id", "name", "code", "path", "type",
		"global_slot", "external_id", "sellable", "reservable", "shelvable",
		"sort_order", "created_at", "updated_at",
	})
	for _, l := range locations {
		rows.AddRow(
			l.ID, l.WarehouseID, l.ParentID, l.Name, l.Code, l.Path, l.Type,
			l.GlobalSlot, l.ExternalID, l.Sellable, l.Reservable, l.Shelvable,
			l.SortOrder, l.CreatedAt, l.UpdatedAt,
		)
	}
	return rows
}

func (suite *LocationRepoTestSuite) TestCreate_Success() {
	location := &models.Location{
		ID:          suite.locationID,
		WarehouseID: suite.warehouseID,
		Name:        "Aisle 1",
		Code:        "Aisle 1",
		Path:        "/aisle-1",
		Type:        models.LocationTypeNormal,
		Sellable:    true,
		Reservable:  true,
		Shelvable:   true,
	}

	suite.mock.ExpectExec(`INSERT INTO locations`).
		WithArgs(location.ID, location.WarehouseID, location.ParentID,
			location.Name, location.Code, location.Path, location.Type,
			location.GlobalSlot, location.ExternalID, location.Sellable,
			location.Reservable, location.Shelvable, location.SortOrder).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, location)
	assert.NoError(suite.T(), err)
}

func (suite *LocationRepoTestSuite) TestGetByID_Success() {
	now := time.Now()
	location := &models.Location{
		ID:          suite.locationID,
		WarehouseID: suite.warehouseID,
		Name:        "Bay 3",
		Code:        "Aisle 1 > Bay 3",
		Path:        "/aisle-1/bay-3",
		Type:        models.LocationTypePicking,
		Sellable:    true,
		Reservable:  true,
		Shelvable:   true,
		SortOrder:   3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	suite.mock.ExpectQuery(`SELECT (.+) FROM locations\s+WHERE id = \$1`).
		WithArgs(suite.locationID).
		WillReturnRows(suite.locationRows(location))

	result, err := suite.repo.GetByID(suite.context, suite.locationID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), location.Path, result.Path)
	assert.Equal(suite.T(), models.LocationTypePicking, result.Type)
	assert.True(suite.T(), result.Sellable)
}

func (suite *LocationRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM locations\s+WHERE id = \$1`).
		WithArgs(suite.locationID).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, suite.locationID)
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *LocationRepoTestSuite) TestGetByGlobalSlot_NotFound() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM locations\s+WHERE global_slot = \$1`).
		WithArgs(42).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByGlobalSlot(suite.context, 42)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *LocationRepoTestSuite) TestGetByExternalID_Success() {
	externalID := int64(9001)
	location := &models.Location{
		ID:          suite.locationID,
		WarehouseID: suite.warehouseID,
		Name:        "Dock",
		Code:        "Dock",
		Path:        "/dock",
		Type:        models.LocationTypeReceiving,
		ExternalID:  &externalID,
		Shelvable:   true,
	}

	suite.mock.ExpectQuery(`SELECT (.+) FROM locations\s+WHERE external_id = \$1`).
		WithArgs(externalID).
		WillReturnRows(suite.locationRows(location))

	result, err := suite.repo.GetByExternalID(suite.context, externalID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), externalID, *result.ExternalID)
}

func (suite *LocationRepoTestSuite) TestListByWarehouse_OrdersBySortOrder() {
	first := &models.Location{ID: uuid.New(), WarehouseID: suite.warehouseID, Name: "A", Code: "A", Path: "/a", Type: models.LocationTypeNormal, SortOrder: 1}
	second := &models.Location{ID: uuid.New(), WarehouseID: suite.warehouseID, Name: "B", Code: "B", Path: "/b", Type: models.LocationTypeNormal, SortOrder: 2}

	suite.mock.ExpectQuery(`SELECT (.+) FROM locations\s+WHERE warehouse_id = \$1\s+ORDER BY sort_order, name`).
		WithArgs(suite.warehouseID).
		WillReturnRows(suite.locationRows(first, second))

	result, err := suite.repo.ListByWarehouse(suite.context, suite.warehouseID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), "A", result[0].Name)
	assert.Equal(suite.T(), "B", result[1].Name)
}

func (suite *LocationRepoTestSuite) TestCountChildren() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM locations WHERE parent_id = \$1`).
		WithArgs(suite.locationID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := suite.repo.CountChildren(suite.context, suite.locationID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, count)
}

func (suite *LocationRepoTestSuite) TestHasStock_True() {
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(suite.locationID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	hasStock, err := suite.repo.HasStock(suite.context, suite.locationID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), hasStock)
}

func (suite *LocationRepoTestSuite) TestStockTotals() {
	otherID := uuid.New()
	suite.mock.ExpectQuery(`SELECT s.location_id, COALESCE\(SUM\(s.quantity\), 0\)`).
		WithArgs(suite.warehouseID).
		WillReturnRows(pgxmock.NewRows([]string{"location_id", "sum"}).
			AddRow(suite.locationID, 12).
			AddRow(otherID, 5))

	totals, err := suite.repo.StockTotals(suite.context, suite.warehouseID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 12, totals[suite.locationID])
	assert.Equal(suite.T(), 5, totals[otherID])
	assert.Zero(suite.T(), totals[uuid.New()])
}

func (suite *LocationRepoTestSuite) TestDelete_DatabaseError() {
	suite.mock.ExpectExec(`DELETE FROM locations WHERE id = \$1`).
		WithArgs(suite.locationID).
		WillReturnError(errors.New("foreign key violation"))

	err := suite.repo.Delete(suite.context, suite.locationID)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "foreign key violation")
}

func (suite *LocationRepoTestSuite) TestWarehouseIDFor() {
	suite.mock.ExpectQuery(`SELECT warehouse_id FROM locations WHERE id = \$1`).
		WithArgs(suite.locationID).
		WillReturnRows(pgxmock.NewRows([]string{"warehouse_id"}).AddRow(suite.warehouseID))

	warehouseID, err := suite.repo.WarehouseIDFor(suite.context, suite.mock, suite.locationID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.warehouseID, warehouseID)
}
