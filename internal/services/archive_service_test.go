package services

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"shelfstock/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockObjectStore struct {
	mock.Mock
	uploaded []byte
}

func (m *MockObjectStore) Upload(ctx context.Context, bucketName, objectName, contentType string, reader io.Reader, objectSize int64) error {
	body, _ := io.ReadAll(reader)
	m.uploaded = body
	args := m.Called(ctx, bucketName, objectName, contentType, objectSize)
	return args.Error(0)
}

func (m *MockObjectStore) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

type ArchiveServiceTestSuite struct {
	suite.Suite
	movementRepo *MockMovementRepository
	store        *MockObjectStore
	service      ArchiveService
	context      context.Context
}

func (suite *ArchiveServiceTestSuite) SetupTest() {
	suite.movementRepo = new(MockMovementRepository)
	suite.store = new(MockObjectStore)
	suite.service = NewArchiveService(suite.movementRepo, suite.store, "stock-archives")
	suite.context = context.Background()
}

func TestArchiveServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ArchiveServiceTestSuite))
}

func (suite *ArchiveServiceTestSuite) TestArchiveDay_WritesCSVForTheDay() {
	day := time.Date(2026, 8, 27, 15, 42, 0, 0, time.UTC)
	start := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	orderRef := "SO-1001"
	movement := &models.Movement{
		ID:             uuid.New(),
		LocationID:     uuid.New(),
		ItemID:         uuid.New(),
		Kind:           models.MovementKindPicking,
		Direction:      models.MovementOut,
		Quantity:       3,
		QuantityBefore: 10,
		QuantityAfter:  7,
		OrderRef:       &orderRef,
		CreatedAt:      start.Add(9 * time.Hour),
	}

	suite.movementRepo.On("ListCreatedBetween", suite.context, start, end).
		Return([]*models.Movement{movement}, nil)
	suite.store.On("EnsureBucketExists", suite.context, "stock-archives").Return(nil)
	suite.store.On("Upload", suite.context, "stock-archives", "movements/2026-08-27.csv", "text/csv", mock.AnythingOfType("int64")).
		Return(nil)

	objectName, err := suite.service.ArchiveDay(suite.context, day)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "movements/2026-08-27.csv", objectName)
	suite.movementRepo.AssertExpectations(suite.T())
	suite.store.AssertExpectations(suite.T())

	records, err := csv.NewReader(strings.NewReader(string(suite.store.uploaded))).ReadAll()
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 2)
	assert.Equal(suite.T(), archiveHeader, records[0])
	assert.Equal(suite.T(), movement.ID.String(), records[1][0])
	assert.Equal(suite.T(), "picking", records[1][3])
	assert.Equal(suite.T(), "out", records[1][4])
	assert.Equal(suite.T(), "3", records[1][5])
	assert.Equal(suite.T(), orderRef, records[1][8])
	assert.Equal(suite.T(), "", records[1][10])
}

func (suite *ArchiveServiceTestSuite) TestArchiveDay_EmptyDayStillUploadsHeader() {
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	end := day.AddDate(0, 0, 1)

	suite.movementRepo.On("ListCreatedBetween", suite.context, day, end).
		Return([]*models.Movement{}, nil)
	suite.store.On("EnsureBucketExists", suite.context, "stock-archives").Return(nil)
	suite.store.On("Upload", suite.context, "stock-archives", "movements/2026-08-26.csv", "text/csv", mock.AnythingOfType("int64")).
		Return(nil)

	objectName, err := suite.service.ArchiveDay(suite.context, day)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "movements/2026-08-26.csv", objectName)

	records, err := csv.NewReader(strings.NewReader(string(suite.store.uploaded))).ReadAll()
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 1)
}
