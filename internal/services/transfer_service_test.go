package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"shelfstock/internal/common"
	"shelfstock/internal/models"
	"shelfstock/internal/repositories"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TransferServiceTestSuite struct {
	suite.Suite
	mock         pgxmock.PgxPoolIface
	availability *MockAvailabilityService
	cache        *MockCacheService
	service      TransferService
	warehouseID  uuid.UUID
	fromID       uuid.UUID
	toID         uuid.UUID
	itemID       uuid.UUID
	context      context.Context
}

func (suite *TransferServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.availability = new(MockAvailabilityService)
	suite.cache = new(MockCacheService)
	suite.service = NewTransferService(
		mock,
		repositories.NewStockRepository(mock),
		repositories.NewLocationRepository(mock),
		repositories.NewMovementRepository(mock),
		suite.availability,
		suite.cache,
	)
	suite.warehouseID = uuid.New()
	// Fix the lock order so the SQL expectations are deterministic: the
	// source id sorts before the destination id.
	a, b := uuid.New(), uuid.New()
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	suite.fromID = a
	suite.toID = b
	suite.itemID = uuid.New()
	suite.context = context.Background()
}

func (suite *TransferServiceTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}

func (suite *TransferServiceTestSuite) expectLocation(id uuid.UUID, name string, shelvable bool) {
	rows := pgxmock.NewRows([]string{
		"id", "warehouse_id", "parent_id", "name", "code", "path", "type",
		"global_slot", "external_id", "sellable", "reservable", "shelvable",
		"sort_order", "created_at", "updated_at",
	}).AddRow(
		id, suite.warehouseID, nil, name, name, "/"+name, models.LocationTypeNormal,
		nil, nil, true, true, shelvable, 0, time.Now(), time.Now(),
	)
	suite.mock.ExpectQuery(`SELECT (.+)\s+FROM locations\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(rows)
}

func (suite *TransferServiceTestSuite) stockRow(recordID, locationID uuid.UUID, quantity int) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "location_id", "item_id", "quantity", "last_updated"}).
		AddRow(recordID, locationID, suite.itemID, quantity, time.Now())
}

func (suite *TransferServiceTestSuite) TestTransfer_RejectsSameLocation() {
	_, err := suite.service.Transfer(suite.context, suite.fromID, suite.fromID, suite.itemID, 5)
	assert.True(suite.T(), common.IsBadRequest(err))
}

func (suite *TransferServiceTestSuite) TestTransfer_RejectsNonPositiveQuantity() {
	_, err := suite.service.Transfer(suite.context, suite.fromID, suite.toID, suite.itemID, 0)
	assert.True(suite.T(), common.IsBadRequest(err))
}

func (suite *TransferServiceTestSuite) TestTransfer_RejectsNonShelvableDestination() {
	suite.expectLocation(suite.fromID, "bay-1", true)
	suite.expectLocation(suite.toID, "virtual-bin", false)

	_, err := suite.service.Transfer(suite.context, suite.fromID, suite.toID, suite.itemID, 5)

	assert.True(suite.T(), common.IsBadRequest(err))
	assert.Contains(suite.T(), err.Error(), "does not accept stock")
}

func (suite *TransferServiceTestSuite) TestTransfer_InsufficientSourceStock() {
	fromRecordID := uuid.New()
	toRecordID := uuid.New()

	suite.expectLocation(suite.fromID, "bay-1", true)
	suite.expectLocation(suite.toID, "bay-2", true)
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.fromID, suite.itemID).
		WillReturnRows(suite.stockRow(fromRecordID, suite.fromID, 2))
	suite.mock.ExpectExec(`INSERT INTO stock_records`).
		WithArgs(pgxmock.AnyArg(), suite.toID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.toID, suite.itemID).
		WillReturnRows(suite.stockRow(toRecordID, suite.toID, 0))
	suite.mock.ExpectRollback()

	_, err := suite.service.Transfer(suite.context, suite.fromID, suite.toID, suite.itemID, 5)

	assert.True(suite.T(), common.IsBadRequest(err))
	assert.Contains(suite.T(), err.Error(), "insufficient stock: need 5, have 2")
}

func (suite *TransferServiceTestSuite) TestTransferWithHistory_DebitsCreditsAndRecordsBothLegs() {
	fromRecordID := uuid.New()
	toRecordID := uuid.New()
	orderRef := "SO-2001"
	provenance := &models.Provenance{OrderRef: &orderRef}

	suite.expectLocation(suite.fromID, "bay-1", true)
	suite.expectLocation(suite.toID, "bay-2", true)
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.fromID, suite.itemID).
		WillReturnRows(suite.stockRow(fromRecordID, suite.fromID, 10))
	suite.mock.ExpectExec(`INSERT INTO stock_records`).
		WithArgs(pgxmock.AnyArg(), suite.toID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.toID, suite.itemID).
		WillReturnRows(suite.stockRow(toRecordID, suite.toID, 1))
	suite.mock.ExpectExec(`UPDATE stock_records`).
		WithArgs(6, fromRecordID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE stock_records`).
		WithArgs(5, toRecordID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs(pgxmock.AnyArg(), suite.fromID, suite.itemID,
			models.MovementKindTransfer, models.MovementOut, 4, 10, 6,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs(pgxmock.AnyArg(), suite.toID, suite.itemID,
			models.MovementKindTransfer, models.MovementIn, 4, 1, 5,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.availability.On("SyncInTx", suite.context, mock.Anything, suite.itemID, suite.fromID).Return(nil)
	suite.mock.ExpectCommit()
	suite.cache.On("DeleteItemTotal", suite.context, suite.itemID).Return(nil)

	result, err := suite.service.TransferWithHistory(suite.context, suite.fromID, suite.toID, suite.itemID, 4, provenance)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6, result.From.Quantity)
	assert.Equal(suite.T(), 5, result.To.Quantity)
	assert.Len(suite.T(), result.Movements, 2)

	out, in := result.Movements[0], result.Movements[1]
	assert.Equal(suite.T(), models.MovementOut, out.Direction)
	assert.Equal(suite.T(), models.MovementIn, in.Direction)
	assert.Equal(suite.T(), suite.fromID, *out.SourceLocationID)
	assert.Equal(suite.T(), suite.toID, *out.TargetLocationID)
	assert.Equal(suite.T(), suite.fromID, *in.SourceLocationID)
	assert.Equal(suite.T(), suite.toID, *in.TargetLocationID)
	assert.Equal(suite.T(), orderRef, *out.OrderRef)
	assert.Equal(suite.T(), orderRef, *in.OrderRef)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *TransferServiceTestSuite) TestTransfer_SourceDeletedWhenEmptied() {
	fromRecordID := uuid.New()
	toRecordID := uuid.New()

	suite.expectLocation(suite.fromID, "bay-1", true)
	suite.expectLocation(suite.toID, "bay-2", true)
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.fromID, suite.itemID).
		WillReturnRows(suite.stockRow(fromRecordID, suite.fromID, 4))
	suite.mock.ExpectExec(`INSERT INTO stock_records`).
		WithArgs(pgxmock.AnyArg(), suite.toID, suite.itemID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.toID, suite.itemID).
		WillReturnRows(suite.stockRow(toRecordID, suite.toID, 0))
	suite.mock.ExpectExec(`DELETE FROM stock_records WHERE id = \$1`).
		WithArgs(fromRecordID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectExec(`UPDATE stock_records`).
		WithArgs(4, toRecordID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs(pgxmock.AnyArg(), suite.fromID, suite.itemID,
			models.MovementKindTransfer, models.MovementOut, 4, 4, 0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs(pgxmock.AnyArg(), suite.toID, suite.itemID,
			models.MovementKindTransfer, models.MovementIn, 4, 0, 4,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.availability.On("SyncInTx", suite.context, mock.Anything, suite.itemID, suite.fromID).Return(nil)
	suite.mock.ExpectCommit()
	suite.cache.On("DeleteItemTotal", suite.context, suite.itemID).Return(nil)

	result, err := suite.service.Transfer(suite.context, suite.fromID, suite.toID, suite.itemID, 4)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, result.From.Quantity)
	assert.Equal(suite.T(), 4, result.To.Quantity)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *TransferServiceTestSuite) TestRemoveStockWithHistory_StampsProvenance() {
	recordID := uuid.New()
	userID := uuid.New()
	notes := "cycle count correction"
	provenance := &models.Provenance{Notes: &notes, UserID: &userID}

	suite.expectLocation(suite.fromID, "bay-1", true)
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id, location_id, item_id, quantity, last_updated\s+FROM stock_records\s+WHERE location_id = \$1 AND item_id = \$2\s+FOR UPDATE`).
		WithArgs(suite.fromID, suite.itemID).
		WillReturnRows(suite.stockRow(recordID, suite.fromID, 9))
	suite.mock.ExpectExec(`UPDATE stock_records`).
		WithArgs(6, recordID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs(pgxmock.AnyArg(), suite.fromID, suite.itemID,
			models.MovementKindAdjustment, models.MovementOut, 3, 9, 6,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), &notes, &userID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.availability.On("SyncInTx", suite.context, mock.Anything, suite.itemID, suite.fromID).Return(nil)
	suite.mock.ExpectCommit()
	suite.cache.On("DeleteItemTotal", suite.context, suite.itemID).Return(nil)

	record, err := suite.service.RemoveStockWithHistory(suite.context, suite.fromID, suite.itemID, 3, provenance)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6, record.Quantity)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}
