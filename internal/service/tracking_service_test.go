package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/internal/domain/mocks"
	"github.com/dalilfazara/dalil/pkg/logger"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

const testWorkerID = "5f0c6c9e-4d55-4c53-9a0e-1f4b0f3b2a11"

func newTestTrackingService(t *testing.T) (*TrackingService, *mocks.MockTrackingRepository, *mocks.MockWorkerRepository, *logger.RecordingLogger) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTrackingRepository(ctrl)
	workers := mocks.NewMockWorkerRepository(ctrl)
	log := logger.NewTestLogger(t)

	svc := NewTrackingService(repo, workers, log)
	svc.now = func() time.Time { return testNow }
	return svc, repo, workers, log
}

func TestNewTrackingService(t *testing.T) {
	svc, _, _, _ := newTestTrackingService(t)
	assert.IsType(t, &TrackingService{}, svc)
}

func TestTrackingService_TrackPageVisit(t *testing.T) {
	tests := []struct {
		name       string
		visitorID  string
		setupMocks func(repo *mocks.MockTrackingRepository)
		wantErrors int
	}{
		{
			name:      "records visit and presence",
			visitorID: "visitor_1_abc",
			setupMocks: func(repo *mocks.MockTrackingRepository) {
				gomock.InOrder(
					repo.EXPECT().InsertVisit(gomock.Any(), &domain.Visit{
						VisitorID: "visitor_1_abc", PageURL: "/index.html", CreatedAt: testNow,
					}).Return(nil),
					repo.EXPECT().UpsertPresence(gomock.Any(), &domain.ActivePresence{
						VisitorID: "visitor_1_abc", PageURL: "/index.html", LastSeen: testNow,
					}).Return(nil),
				)
			},
		},
		{
			name:      "insert failure still refreshes presence",
			visitorID: "visitor_1_abc",
			setupMocks: func(repo *mocks.MockTrackingRepository) {
				repo.EXPECT().InsertVisit(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
				repo.EXPECT().UpsertPresence(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			},
			wantErrors: 2,
		},
		{
			name:       "missing visitor id is ignored",
			visitorID:  "",
			setupMocks: func(repo *mocks.MockTrackingRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, log := newTestTrackingService(t)
			tt.setupMocks(repo)

			svc.TrackPageVisit(context.Background(), tt.visitorID, "/index.html")
			assert.Equal(t, tt.wantErrors, log.Count("error"), log.String())
		})
	}
}

func TestTrackingService_TrackContactClick(t *testing.T) {
	t.Run("denormalizes the worker job", func(t *testing.T) {
		svc, repo, workers, _ := newTestTrackingService(t)

		workers.EXPECT().JobsByID(gomock.Any(), []string{testWorkerID}).Return(map[string]string{testWorkerID: "سباك"}, nil)
		repo.EXPECT().
			InsertContactClick(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *domain.ContactClick) error {
				require.NotNil(t, c.WorkerID)
				assert.Equal(t, testWorkerID, *c.WorkerID)
				require.NotNil(t, c.WorkerJob)
				assert.Equal(t, "سباك", *c.WorkerJob)
				assert.Equal(t, "Ahmed", c.WorkerName)
				assert.Equal(t, testNow, c.CreatedAt)
				return nil
			}).
			Times(1)

		svc.TrackContactClick(context.Background(), "visitor_1_abc", domain.ContactClickRequest{
			WorkerID: testWorkerID, WorkerName: " Ahmed ", WorkerPhone: "01012345678",
		})
	})

	t.Run("job lookup failure keeps the click", func(t *testing.T) {
		svc, repo, workers, log := newTestTrackingService(t)

		workers.EXPECT().JobsByID(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		repo.EXPECT().
			InsertContactClick(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *domain.ContactClick) error {
				assert.NotNil(t, c.WorkerID)
				assert.Nil(t, c.WorkerJob)
				return nil
			})

		svc.TrackContactClick(context.Background(), "visitor_1_abc", domain.ContactClickRequest{
			WorkerID: testWorkerID, WorkerName: "Ahmed",
		})
		assert.Equal(t, 1, log.Count("warn"))
	})

	t.Run("non uuid worker id is dropped", func(t *testing.T) {
		svc, repo, _, _ := newTestTrackingService(t)

		repo.EXPECT().
			InsertContactClick(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *domain.ContactClick) error {
				assert.Nil(t, c.WorkerID)
				assert.Nil(t, c.WorkerJob)
				return nil
			})

		svc.TrackContactClick(context.Background(), "visitor_1_abc", domain.ContactClickRequest{
			WorkerID: "42", WorkerPhone: "01012345678",
		})
	})

	t.Run("insert failure is swallowed", func(t *testing.T) {
		svc, repo, _, log := newTestTrackingService(t)

		repo.EXPECT().InsertContactClick(gomock.Any(), gomock.Any()).Return(errors.New("boom")).Times(1)

		svc.TrackContactClick(context.Background(), "visitor_1_abc", domain.ContactClickRequest{WorkerName: "Ahmed"})
		assert.Equal(t, 1, log.Count("error"))
	})

	t.Run("invalid click is not stored", func(t *testing.T) {
		svc, _, _, log := newTestTrackingService(t)

		svc.TrackContactClick(context.Background(), "visitor_1_abc", domain.ContactClickRequest{})
		assert.Equal(t, 1, log.Count("warn"))
	})
}

func TestTrackingService_StopTracking(t *testing.T) {
	svc, repo, _, log := newTestTrackingService(t)

	repo.EXPECT().DeletePresence(gomock.Any(), "visitor_1_abc").Return(nil)
	repo.EXPECT().DeletePresence(gomock.Any(), "visitor_2_abc").Return(errors.New("gone"))

	svc.StopTracking(context.Background(), "visitor_1_abc")
	svc.StopTracking(context.Background(), "visitor_2_abc")
	svc.StopTracking(context.Background(), "")
	assert.Equal(t, 1, log.Count("warn"))
}
