package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docbin/internal/http/middleware"
	"docbin/internal/lifecycle"
	"docbin/internal/model"
	"docbin/internal/service"
	serviceMocks "docbin/internal/service/mocks"
	"docbin/internal/storage"
	"docbin/internal/sweeper"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) RunNow(ctx context.Context) (*sweeper.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sweeper.Stats), args.Error(1)
}

var defaultAuthz = NewRoleAuthorizer([]string{"admin", "Staff"})

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(middleware.Actor())
	return app
}

func asActor(req *http.Request, id, role string) *http.Request {
	req.Header.Set(middleware.ActorIDHeader, id)
	req.Header.Set(middleware.ActorRoleHeader, role)
	return req
}

func decodeError(t *testing.T, body io.Reader) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp.Body).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBinFolder(t *testing.T) {
	id := uuid.New().String()
	ref := model.EntityRef{Kind: model.KindFolder, ID: id}
	admin := service.Actor{ID: "u-1", Role: "admin"}

	tests := []struct {
		name       string
		id         string
		actorID    string
		role       string
		setupMocks func(m *serviceMocks.MockLifecycleService)
		wantStatus int
		wantCode   string
	}{
		{
			name:    "success",
			id:      id,
			actorID: "u-1",
			role:    "admin",
			setupMocks: func(m *serviceMocks.MockLifecycleService) {
				m.On("BinFolder", mock.Anything, admin, id).
					Return(&service.CascadeResult{Action: "bin", Target: ref, Succeeded: []model.EntityRef{ref}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{name: "invalid id", id: "not-a-uuid", actorID: "u-1", role: "admin", wantStatus: http.StatusBadRequest, wantCode: "INVALID_ID"},
		{name: "missing actor", id: id, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED"},
		{name: "role not allowed", id: id, actorID: "u-2", role: "viewer", wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{
			name: "not found", id: id, actorID: "u-1", role: "admin",
			setupMocks: func(m *serviceMocks.MockLifecycleService) {
				m.On("BinFolder", mock.Anything, admin, id).Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND",
		},
		{
			name: "already binned", id: id, actorID: "u-1", role: "admin",
			setupMocks: func(m *serviceMocks.MockLifecycleService) {
				m.On("BinFolder", mock.Anything, admin, id).Return(nil, fmt.Errorf("bin folder: %w", lifecycle.ErrInvalidState))
			},
			wantStatus: http.StatusConflict, wantCode: "INVALID_STATE",
		},
		{
			name: "path rejected", id: id, actorID: "u-1", role: "admin",
			setupMocks: func(m *serviceMocks.MockLifecycleService) {
				m.On("BinFolder", mock.Anything, admin, id).
					Return(nil, &service.PathSecurityError{Ref: ref, Path: "../x", Err: storage.ErrPathEscapesRoot})
			},
			wantStatus: http.StatusUnprocessableEntity, wantCode: "PATH_REJECTED",
		},
		{
			name: "internal error", id: id, actorID: "u-1", role: "admin",
			setupMocks: func(m *serviceMocks.MockLifecycleService) {
				m.On("BinFolder", mock.Anything, admin, id).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockLifecycleService)
			if tt.setupMocks != nil {
				tt.setupMocks(mockSvc)
			}
			app := newApp()
			app.Post("/folders/:id/bin", BinFolder(mockSvc, defaultAuthz))

			req := httptest.NewRequest(http.MethodPost, "/folders/"+tt.id+"/bin", nil)
			if tt.actorID != "" {
				asActor(req, tt.actorID, tt.role)
			}
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				body := decodeError(t, resp.Body)
				assert.Equal(t, tt.wantCode, body.Error.Code)
				assert.NotEmpty(t, body.RequestID)
			} else {
				var res service.CascadeResult
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
				assert.Equal(t, []model.EntityRef{ref}, res.Succeeded)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestPurgeFolder_PartialFailure(t *testing.T) {
	id := uuid.New().String()
	target := model.EntityRef{Kind: model.KindFolder, ID: id}
	failed := []service.EntityFailure{{EntityRef: model.EntityRef{Kind: model.KindFile, ID: "f-1"}, Reason: "row locked"}}
	res := &service.CascadeResult{Action: "purge", Target: target, Succeeded: []model.EntityRef{}, Failed: failed}

	mockSvc := new(serviceMocks.MockLifecycleService)
	mockSvc.On("PurgeFolder", mock.Anything, mock.Anything, id).Return(res, res.Err())

	app := newApp()
	app.Delete("/folders/:id", PurgeFolder(mockSvc, defaultAuthz))

	req := asActor(httptest.NewRequest(http.MethodDelete, "/folders/"+id, nil), "u-1", "staff")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body["failed"], 1)
	assert.Equal(t, map[string]any{"kind": "file", "id": "f-1", "reason": "row locked"}, body["failed"].([]any)[0])
	mockSvc.AssertExpectations(t)
}

func TestFileRoutes(t *testing.T) {
	id := uuid.New().String()
	ref := model.EntityRef{Kind: model.KindFile, ID: id}
	ok := &service.CascadeResult{Target: ref, Succeeded: []model.EntityRef{ref}}

	tests := []struct {
		method string
		path   string
		op     string
	}{
		{http.MethodPost, "/files/" + id + "/bin", "BinFile"},
		{http.MethodPost, "/files/" + id + "/restore", "RestoreFile"},
		{http.MethodDelete, "/files/" + id, "PurgeFile"},
		{http.MethodPost, "/folders/" + id + "/restore", "RestoreFolder"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockLifecycleService)
			mockSvc.On(tt.op, mock.Anything, service.Actor{ID: "u-1", Role: "admin"}, id).Return(ok, nil).Once()

			app := newApp()
			RegisterRoutes(app, Deps{Service: mockSvc, Sweeper: new(mockSweeper), Authorizer: defaultAuthz})

			resp, _ := app.Test(asActor(httptest.NewRequest(tt.method, tt.path, nil), "u-1", "admin"))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGetFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockLifecycleService)
	app := newApp()
	app.Get("/files/:id", GetFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("GetFile", mock.Anything, id).Return(&model.File{ID: id, Name: "a.pdf"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var f model.File
		json.NewDecoder(resp.Body).Decode(&f)
		assert.Equal(t, id, f.ID)
	})

	t.Run("purged", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("GetFile", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/files/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestGetFolder(t *testing.T) {
	mockSvc := new(serviceMocks.MockLifecycleService)
	app := newApp()
	app.Get("/folders/:id", GetFolder(mockSvc))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/folders/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	id := uuid.New().String()
	mockSvc.On("GetFolder", mock.Anything, id).Return(&model.Folder{ID: id}, nil).Once()
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/folders/"+id, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestListBinned(t *testing.T) {
	mockSvc := new(serviceMocks.MockLifecycleService)
	app := newApp()
	app.Get("/bin", ListBinned(mockSvc, defaultAuthz))

	t.Run("success", func(t *testing.T) {
		items := []model.BinnedItem{{Kind: model.KindFolder, ID: "a", OwnerID: "u-9", DeleteAfter: time.Now().Add(time.Hour)}}
		mockSvc.On("ListBinned", mock.Anything).Return(items, nil).Once()

		resp, _ := app.Test(asActor(httptest.NewRequest(http.MethodGet, "/bin", nil), "u-1", "admin"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data  []model.BinnedItem `json:"data"`
			Total int                `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, 1, body.Total)
		assert.Equal(t, "u-9", body.Data[0].OwnerID)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("ListBinned", mock.Anything).Return(nil, errors.New("db error")).Once()

		resp, _ := app.Test(asActor(httptest.NewRequest(http.MethodGet, "/bin", nil), "u-1", "admin"))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	mockSvc.AssertExpectations(t)
}

func TestRunSweep(t *testing.T) {
	sw := new(mockSweeper)
	app := newApp()
	app.Post("/bin/sweep", RunSweep(sw, defaultAuthz))

	t.Run("success", func(t *testing.T) {
		start := time.Now()
		stats := &sweeper.Stats{StartTime: start, EndTime: start.Add(time.Second), FoldersPurged: 2, FilesPurged: 1}
		sw.On("RunNow", mock.Anything).Return(stats, nil).Once()

		resp, _ := app.Test(asActor(httptest.NewRequest(http.MethodPost, "/bin/sweep", nil), "u-1", "admin"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, float64(3), body["purged"])
		assert.Equal(t, float64(1000), body["duration_ms"])
	})

	t.Run("already running", func(t *testing.T) {
		sw.On("RunNow", mock.Anything).Return(nil, sweeper.ErrSweepInProgress).Once()

		resp, _ := app.Test(asActor(httptest.NewRequest(http.MethodPost, "/bin/sweep", nil), "u-1", "admin"))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "SWEEP_IN_PROGRESS", decodeError(t, resp.Body).Error.Code)
	})

	sw.AssertExpectations(t)
}

func TestRouting(t *testing.T) {
	app := newApp()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "docbin_test_total", Help: "test"}))

	mockSvc := new(serviceMocks.MockLifecycleService)
	RegisterRoutes(app, Deps{Service: mockSvc, Sweeper: new(mockSweeper), Authorizer: defaultAuthz, Gatherer: reg})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp.Body).Error.Code)
	})

	t.Run("health without database", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "docbin_test_total")
	})
}

func TestRoleAuthorizer(t *testing.T) {
	a := NewRoleAuthorizer([]string{" Admin ", "staff"})
	ctx := context.Background()

	assert.True(t, a.Allow(ctx, service.Actor{ID: "1", Role: "ADMIN"}, service.ActionPurge, model.EntityRef{}))
	assert.True(t, a.Allow(ctx, service.Actor{ID: "2", Role: "staff"}, service.ActionBin, model.EntityRef{}))
	assert.False(t, a.Allow(ctx, service.Actor{ID: "3", Role: "viewer"}, service.ActionBin, model.EntityRef{}))
	assert.False(t, a.Allow(ctx, service.Actor{ID: "4"}, service.ActionBin, model.EntityRef{}))
}
