package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalilfazara/dalil/config"
	"github.com/dalilfazara/dalil/internal/app"
	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/internal/repository"
	"github.com/dalilfazara/dalil/pkg/csvexport"
	"github.com/dalilfazara/dalil/pkg/datastore"
	"github.com/dalilfazara/dalil/pkg/logger"
	pkgmocks "github.com/dalilfazara/dalil/pkg/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Backend:     config.BackendConfig{Kind: config.BackendREST, SupabaseURL: "https://project.supabase.co", SupabaseKey: "key"},
		Storage:     config.StorageConfig{Kind: config.StorageSupabase, ImagesBucket: "users-images"},
		Cache:       config.CacheConfig{Kind: config.CacheMemory},
		Dashboard:   config.DashboardConfig{Locale: "en", Timezone: "UTC"},
	}
}

func workerRow(id, name, job string) datastore.Record {
	return datastore.Record{
		"id":            id,
		"name":          name,
		"job":           job,
		"location":      "Cairo",
		"phone":         "01012345678",
		"phone_other":   nil,
		"profile_image": "https://cdn.example.com/users-images/profile/1_abc.jpg",
		"work_image":    "https://cdn.example.com/users-images/work/1_abc.jpg",
		"is_verified":   false,
		"created_at":    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

// runCLI executes args against an app backed by store
func runCLI(t *testing.T, store datastore.Store, stdin string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	c := &cli{
		in:       strings.NewReader(stdin),
		out:      &out,
		errOut:   &errOut,
		debounce: time.Hour,
	}
	c.open = func(context.Context) (app.AppInterface, error) {
		a := app.NewApp(testConfig(),
			app.WithLogger(logger.NewTestLogger(nil)),
			app.WithDatastore(store),
		)
		if err := a.InitDB(); err != nil {
			return nil, err
		}
		if err := a.InitStorage(); err != nil {
			return nil, err
		}
		return a, a.InitServices()
	}

	cmd := newRootCmd(c)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestExport_Stdout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := pkgmocks.NewMockDatastore(ctrl)
	store.EXPECT().Select(gomock.Any(), repository.TableWorkers, gomock.Any()).
		Return([]datastore.Record{workerRow("c2b1e7f0-0b0a-4a57-8d43-3f9a1c1d1e01", "Ahmed", "Electrician")}, nil)

	out, _, err := runCLI(t, store, "", "export")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "name")
	assert.Contains(t, lines[1], "Ahmed")
}

func TestExport_IncludesRowsHiddenFromListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	legacy := workerRow("c2b1e7f0-0b0a-4a57-8d43-3f9a1c1d1e02", "Legacy", "Plumber")
	legacy["phone"] = "+201012345678"

	store := pkgmocks.NewMockDatastore(ctrl)
	store.EXPECT().Select(gomock.Any(), repository.TableWorkers, gomock.Any()).
		Return([]datastore.Record{
			workerRow("c2b1e7f0-0b0a-4a57-8d43-3f9a1c1d1e01", "Ahmed", "Electrician"),
			legacy,
		}, nil)

	out, _, err := runCLI(t, store, "", "export")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "Legacy")
	assert.Contains(t, lines[2], "+201012345678")
}

func TestExport_EmptyDirectoryWritesSentinel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := pkgmocks.NewMockDatastore(ctrl)
	store.EXPECT().Select(gomock.Any(), repository.TableWorkers, gomock.Any()).Return(nil, nil)

	dir := t.TempDir()
	_, errOut, err := runCLI(t, store, "", "export", "--out", dir)
	require.NoError(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), ".csv"))
	assert.Contains(t, errOut, "Exported workers to")

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, csvexport.NoDataSentinel, string(data))
}

func TestExport_BackendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := pkgmocks.NewMockDatastore(ctrl)
	store.EXPECT().Select(gomock.Any(), repository.TableWorkers, gomock.Any()).Return(nil, errors.New("connection refused"))

	_, _, err := runCLI(t, store, "", "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStats_PrintsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := pkgmocks.NewMockDatastore(ctrl)
	store.EXPECT().Delete(gomock.Any(), repository.TableActiveVisitors, gomock.Any()).Return(nil).AnyTimes()
	store.EXPECT().Count(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(4), nil).AnyTimes()
	store.EXPECT().Count(gomock.Any(), gomock.Any()).Return(int64(4), nil).AnyTimes()
	store.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	out, _, err := runCLI(t, store, "", "stats")
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, int64(4), snap.Stats.TotalVisits)
	assert.Len(t, snap.Daily, 7)
	assert.Len(t, snap.Hourly, 8)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, _, err := runCLI(t, pkgmocks.NewMockDatastore(ctrl), "", "migrate", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_BACKEND=postgres")
}

func TestBrowse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := pkgmocks.NewMockDatastore(ctrl)
	store.EXPECT().Select(gomock.Any(), repository.TableWorkers, gomock.Any()).Return([]datastore.Record{
		workerRow("c2b1e7f0-0b0a-4a57-8d43-3f9a1c1d1e01", "Ahmed", "Electrician"),
		workerRow("c2b1e7f0-0b0a-4a57-8d43-3f9a1c1d1e02", "Mona", "Plumber"),
		workerRow("c2b1e7f0-0b0a-4a57-8d43-3f9a1c1d1e03", "Mohamed", "Electrician"),
	}, nil)

	input := strings.Join([]string{
		"mo",
		"/job Electrician",
		"/clear",
		"/bogus",
		"/quit",
		"ignored",
	}, "\n")
	out, _, err := runCLI(t, store, input, "browse")
	require.NoError(t, err)

	assert.Contains(t, out, "3 workers loaded. Jobs: Electrician, Plumber")
	// the pending name query is folded into the job selection
	assert.Contains(t, out, `1 of 3 workers (name="mo" job="Electrician")`)
	assert.Contains(t, out, "Mohamed | Electrician | Cairo | 01012345678")
	assert.Contains(t, out, `3 of 3 workers (name="" job="")`)
	assert.Contains(t, out, "Unknown command /bogus")
	assert.NotContains(t, out, "ignored")
}

func TestBrowse_FlushesPendingNameAtEOF(t *testing.T) {
	workers := []domain.Worker{
		{ID: "1", Name: "Ahmed", Job: "Electrician"},
		{ID: "2", Name: "Mona", Job: "Plumber"},
	}
	var out bytes.Buffer
	c := &cli{in: strings.NewReader("mona\n"), out: &out, debounce: time.Hour}

	require.NoError(t, c.browse(workers))
	assert.Contains(t, out.String(), `1 of 2 workers (name="mona" job="")`)
}
