package repositories

import (
	"context"
	"testing"
	"time"

	"shelfstock/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type MovementRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       MovementRepository
	locationID uuid.UUID
	itemID     uuid.UUID
	context    context.Context
}

func (suite *MovementRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewMovementRepository(mock)
	suite.locationID = uuid.New()
	suite.itemID = uuid.New()
	suite.context = context.Background()
}

func (suite *MovementRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestMovementRepoTestSuite(t *testing.T) {
	suite.Run(t, new(MovementRepoTestSuite))
}

func (suite *MovementRepoTestSuite) movementRow(m *models.Movement) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "location_id", "item_id", "kind", "direction", "quantity",
		"quantity_before", "quantity_after", "order_ref", "route_ref",
		"source_location_id", "target_location_id", "reference_number",
		"notes", "user_id", "created_at",
	}).AddRow(
		m.ID, m.LocationID, m.ItemID, m.Kind, m.Direction, m.Quantity,
		m.QuantityBefore, m.QuantityAfter, m.OrderRef, m.RouteRef,
		m.SourceLocationID, m.TargetLocationID, m.ReferenceNumber,
		m.Notes, m.UserID, m.CreatedAt,
	)
}

func (suite *MovementRepoTestSuite) TestInsertTx_AssignsIDAndTimestamp() {
	movement := &models.Movement{
		LocationID:     suite.locationID,
		ItemID:         suite.itemID,
		Kind:           models.MovementKindAdjustment,
		Direction:      models.MovementIn,
		Quantity:       5,
		QuantityBefore: 0,
		QuantityAfter:  5,
	}

	suite.mock.ExpectExec(`INSERT INTO movements`).
		WithArgs(pgxmock.AnyArg(), movement.LocationID, movement.ItemID,
			movement.Kind, movement.Direction, movement.Quantity,
			movement.QuantityBefore, movement.QuantityAfter,
			movement.OrderRef, movement.RouteRef, movement.SourceLocationID,
			movement.TargetLocationID, movement.ReferenceNumber,
			movement.Notes, movement.UserID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.InsertTx(suite.context, suite.mock, movement)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, movement.ID)
	assert.False(suite.T(), movement.CreatedAt.IsZero())
}

func (suite *MovementRepoTestSuite) TestQuery_NoFilters() {
	movement := &models.Movement{
		ID:         uuid.New(),
		LocationID: suite.locationID,
		ItemID:     suite.itemID,
		Kind:       models.MovementKindTransfer,
		Direction:  models.MovementOut,
		Quantity:   3,
		CreatedAt:  time.Now(),
	}

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM movements WHERE 1=1`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	suite.mock.ExpectQuery(`SELECT (.+) FROM movements WHERE 1=1 ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(suite.movementRow(movement))

	page, err := suite.repo.Query(suite.context, nil, 50, 0)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, page.Total)
	assert.Len(suite.T(), page.Movements, 1)
	assert.Equal(suite.T(), models.MovementKindTransfer, page.Movements[0].Kind)
}

func (suite *MovementRepoTestSuite) TestQuery_WithFilters() {
	orderRef := "SO-1001"
	kind := models.MovementKindPicking
	filters := &models.MovementFilters{
		LocationID: &suite.locationID,
		OrderRef:   &orderRef,
		Kind:       &kind,
	}

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM movements WHERE 1=1 AND location_id = \$1 AND order_ref = \$2 AND kind = \$3`).
		WithArgs(suite.locationID, orderRef, kind).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	suite.mock.ExpectQuery(`SELECT (.+) FROM movements WHERE 1=1 AND location_id = \$1 AND order_ref = \$2 AND kind = \$3 ORDER BY created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(suite.locationID, orderRef, kind, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "location_id", "item_id", "kind", "direction", "quantity",
			"quantity_before", "quantity_after", "order_ref", "route_ref",
			"source_location_id", "target_location_id", "reference_number",
			"notes", "user_id", "created_at",
		}))

	page, err := suite.repo.Query(suite.context, filters, 20, 0)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, page.Total)
	assert.Empty(suite.T(), page.Movements)
}

func (suite *MovementRepoTestSuite) TestListCreatedBetween() {
	start := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	movement := &models.Movement{
		ID:         uuid.New(),
		LocationID: suite.locationID,
		ItemID:     suite.itemID,
		Kind:       models.MovementKindReceiving,
		Direction:  models.MovementIn,
		Quantity:   10,
		CreatedAt:  start.Add(2 * time.Hour),
	}

	suite.mock.ExpectQuery(`SELECT (.+)\s+FROM movements\s+WHERE created_at >= \$1 AND created_at < \$2\s+ORDER BY created_at`).
		WithArgs(start, end).
		WillReturnRows(suite.movementRow(movement))

	movements, err := suite.repo.ListCreatedBetween(suite.context, start, end)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), movements, 1)
	assert.Equal(suite.T(), models.MovementKindReceiving, movements[0].Kind)
}
