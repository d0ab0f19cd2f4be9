package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.etcd.io/bbolt"

	"github.com/carelog/carelog/internal/domain/records"
	"github.com/carelog/carelog/internal/platform/db"
	"github.com/carelog/carelog/internal/platform/middleware"
)

// seedCSV is the canonical three-row startup dataset used across the suite.
const seedCSV = `id,name,age,condition,admission_date
1,John Doe,45,Diabetes,2024-01-15
2,Jane Roe,38,Hypertension,2024-02-20
3,Sam Lee,62,Arthritis,2024-03-10
`

// testApp is a fully wired server over an embedded store, reachable through
// a real listener.
type testApp struct {
	Server *httptest.Server
	Repo   records.RecordRepository
	store  *bbolt.DB
}

// Close is idempotent; tests that simulate a restart call it mid-test and
// the registered cleanup calls it again.
func (a *testApp) Close() {
	a.Server.Close()
	a.store.Close()
}

// startApp assembles the HTTP surface the way the serve command does:
// trailing-slash rewrite, recovery, request ids, request logging, then the
// records routes and health checks. Initialization completes before the
// listener accepts its first request.
func startApp(t *testing.T, boltPath, seedPath string) *testApp {
	t.Helper()

	boltDB, err := db.NewBolt(boltPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	repo := records.NewRecordRepoBolt(boltDB)
	svc := records.NewService(repo)
	logger := zerolog.Nop()
	h := records.NewHandler(svc, logger)

	if _, err := svc.Initialize(context.Background(), afero.NewOsFs(), seedPath); err != nil {
		boltDB.Close()
		t.Fatalf("initialize store: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	h.RegisterRoutes(e.Group(""))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/store", db.StoreHealthHandler(repo))

	app := &testApp{Server: httptest.NewServer(e), Repo: repo, store: boltDB}
	t.Cleanup(app.Close)
	return app
}

// newApp starts a fresh app in its own temp directory. An empty seedCSV
// starts the store with no seed file at all.
func newApp(t *testing.T, seedCSV string) *testApp {
	t.Helper()
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "patients.csv")
	if seedCSV != "" {
		if err := os.WriteFile(seedPath, []byte(seedCSV), 0o644); err != nil {
			t.Fatalf("write seed file: %v", err)
		}
	}
	return startApp(t, filepath.Join(dir, "records.db"), seedPath)
}

func (a *testApp) post(t *testing.T, path, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(a.Server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

func (a *testApp) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(a.Server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

func decodeRecord(t *testing.T, data []byte) records.PatientRecord {
	t.Helper()
	var rec records.PatientRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decode record from %s: %v", data, err)
	}
	return rec
}

func decodeRecords(t *testing.T, data []byte) []records.PatientRecord {
	t.Helper()
	var recs []records.PatientRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatalf("decode record list from %s: %v", data, err)
	}
	return recs
}
