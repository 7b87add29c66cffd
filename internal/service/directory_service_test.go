package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/internal/domain/mocks"
	"github.com/dalilfazara/dalil/pkg/cache"
	"github.com/dalilfazara/dalil/pkg/csvexport"
	"github.com/dalilfazara/dalil/pkg/logger"
	pkgmocks "github.com/dalilfazara/dalil/pkg/mocks"
)

type directoryFixture struct {
	svc     *DirectoryService
	workers *mocks.MockWorkerRepository
	blobs   *pkgmocks.MockBlobStore
	log     *logger.RecordingLogger
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	ctrl := gomock.NewController(t)
	workers := mocks.NewMockWorkerRepository(ctrl)
	blobs := pkgmocks.NewMockBlobStore(ctrl)
	log := logger.NewTestLogger(t)

	c := cache.NewInMemoryCache(time.Minute)
	svc := NewDirectoryService(workers, blobs, c, DirectoryConfig{ReloadDelay: time.Hour}, log)
	svc.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		svc.Close()
		c.Stop()
	})

	return &directoryFixture{svc: svc, workers: workers, blobs: blobs, log: log}
}

func sampleWorkers() []domain.Worker {
	return []domain.Worker{
		{ID: "w3", Name: "Mona Adel", Job: "نجار", Phone: "01112345678", CreatedAt: testNow},
		{ID: "w2", Name: "Ahmed Ali", Job: "سباك", Phone: "01012345678", CreatedAt: testNow.Add(-time.Hour)},
		{ID: "w1", Name: "ahmed said", Job: "كهربائي", Phone: "01212345678", CreatedAt: testNow.Add(-2 * time.Hour)},
	}
}

func TestDirectoryService_ListWorkers(t *testing.T) {
	f := newDirectoryFixture(t)
	f.workers.EXPECT().List(gomock.Any()).Return(sampleWorkers(), nil).Times(1)

	resp, err := f.svc.ListWorkers(context.Background(), domain.ListWorkersRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, []string{"سباك", "كهربائي", "نجار"}, resp.Jobs)

	// served from the loaded engine
	resp, err = f.svc.ListWorkers(context.Background(), domain.ListWorkersRequest{Name: "  AHMED "})
	require.NoError(t, err)
	require.Len(t, resp.Workers, 2)
	assert.Equal(t, "w2", resp.Workers[0].ID)
	assert.Equal(t, "w1", resp.Workers[1].ID)

	resp, err = f.svc.ListWorkers(context.Background(), domain.ListWorkersRequest{Name: "ahmed", Job: "سباك"})
	require.NoError(t, err)
	require.Len(t, resp.Workers, 1)
	assert.Equal(t, "w2", resp.Workers[0].ID)
	assert.Len(t, resp.Jobs, 3)

	jobs, err := f.svc.JobCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}

func TestDirectoryService_ListWorkers_Error(t *testing.T) {
	f := newDirectoryFixture(t)
	f.workers.EXPECT().List(gomock.Any()).Return(nil, errors.New("timeout"))
	f.workers.EXPECT().List(gomock.Any()).Return(sampleWorkers(), nil)

	_, err := f.svc.ListWorkers(context.Background(), domain.ListWorkersRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, f.log.Count("error"))

	// a failed load is not cached
	resp, err := f.svc.ListWorkers(context.Background(), domain.ListWorkersRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
}

func validRegistration() *domain.RegisterWorkerRequest {
	return &domain.RegisterWorkerRequest{
		Name:       " Ahmed ",
		Job:        domain.JobOther,
		CustomJob:  "حداد",
		Location:   "Giza",
		Phone:      "010-1234-5678",
		PhoneOther: "",
		ProfileImage: &domain.ImageUpload{
			Filename: "me.JPG", ContentType: "image/jpeg", Data: []byte("jpeg"),
		},
		WorkImage: &domain.ImageUpload{
			Filename: "work", ContentType: "image/png", Data: []byte("png"),
		},
	}
}

func TestDirectoryService_Register(t *testing.T) {
	f := newDirectoryFixture(t)

	f.blobs.EXPECT().
		UploadBlob(gomock.Any(), DefaultImagesBucket, gomock.Any(), []byte("jpeg"), "image/jpeg").
		DoAndReturn(func(_ context.Context, _, path string, _ []byte, _ string) (string, error) {
			assert.True(t, strings.HasPrefix(path, "profile/1710072000000_"), path)
			assert.True(t, strings.HasSuffix(path, ".jpg"), path)
			return "https://cdn.example.com/users-images/" + path, nil
		})
	f.blobs.EXPECT().
		UploadBlob(gomock.Any(), DefaultImagesBucket, gomock.Any(), []byte("png"), "image/png").
		DoAndReturn(func(_ context.Context, _, path string, _ []byte, _ string) (string, error) {
			assert.True(t, strings.HasPrefix(path, "work/"), path)
			assert.True(t, strings.HasSuffix(path, ".png"), path)
			return "https://cdn.example.com/users-images/" + path, nil
		})
	f.workers.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, w *domain.Worker) error {
			assert.Equal(t, "Ahmed", w.Name)
			assert.Equal(t, "حداد", w.Job)
			assert.Equal(t, "01012345678", w.Phone)
			assert.Nil(t, w.PhoneOther)
			assert.Contains(t, w.ProfileImage, "/profile/")
			assert.Contains(t, w.WorkImage, "/work/")
			w.ID = "new-id"
			return nil
		})

	worker, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "new-id", worker.ID)

	// the registration schedules a directory reload
	f.workers.EXPECT().List(gomock.Any()).Return(sampleWorkers(), nil)
	assert.True(t, f.svc.FlushReload())
	assert.Len(t, f.svc.engine.All(), 3)
}

func TestDirectoryService_Register_ValidationBeforeIO(t *testing.T) {
	f := newDirectoryFixture(t)

	req := validRegistration()
	req.Phone = "02012345678"
	req.WorkImage = nil

	_, err := f.svc.Register(context.Background(), req)
	require.Error(t, err)

	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "phone")
	assert.Contains(t, verr.Fields, "work_image")
}

func TestDirectoryService_Register_UploadFailure(t *testing.T) {
	f := newDirectoryFixture(t)

	f.blobs.EXPECT().
		UploadBlob(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("403 forbidden")).
		MinTimes(1).MaxTimes(2)

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload")
	assert.False(t, f.svc.FlushReload())
}

func TestDirectoryService_Register_CreateFailure(t *testing.T) {
	f := newDirectoryFixture(t)

	f.blobs.EXPECT().UploadBlob(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("https://cdn.example.com/x.jpg", nil).Times(2)
	f.workers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("duplicate key"))

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, 1, f.log.Count("error"))
}

func TestDirectoryService_ExportCSV(t *testing.T) {
	f := newDirectoryFixture(t)

	f.workers.EXPECT().ListAll(gomock.Any()).Return(sampleWorkers(), nil)
	out, name, err := f.svc.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "workers_2024-03-10_12-00-00.csv", name)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "id,name,job,location,phone,phone_other"))
	assert.True(t, strings.HasPrefix(lines[1], "w3,"))

	f.workers.EXPECT().ListAll(gomock.Any()).Return(nil, nil)
	out, _, err = f.svc.ExportCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvexport.NoDataSentinel, out)

	f.workers.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("down"))
	_, _, err = f.svc.ExportCSV(context.Background())
	assert.Error(t, err)
}
