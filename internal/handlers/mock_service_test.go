package handlers

import (
	"context"
	"net/http"
	"time"

	"shelf/internal/models"
	"shelf/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockHome records the last call and returns err for every mutation.
type mockHome struct {
	err       error
	room      models.RoomView
	target    service.TargetResult
	calls     []string
	lastID    string
	lastName  string
	lastRoom  service.NewRoomParams
	lastOrder []string
	lastPrio  int
	lastOn    bool
	lastMode  string
}

func (m *mockHome) record(call string) error {
	m.calls = append(m.calls, call)
	return m.err
}

func (m *mockHome) Restore(ctx context.Context) error { return m.record("restore") }
func (m *mockHome) AddRoom(ctx context.Context, p service.NewRoomParams) (models.RoomView, error) {
	m.lastRoom = p
	return m.room, m.record("add")
}
func (m *mockHome) DeleteRoom(ctx context.Context, sensorID string) error {
	m.lastID = sensorID
	return m.record("delete")
}
func (m *mockHome) RenameRoom(ctx context.Context, sensorID, name string) error {
	m.lastID, m.lastName = sensorID, name
	return m.record("rename")
}
func (m *mockHome) SetTarget(ctx context.Context, sensorID string, targetC float64) (service.TargetResult, error) {
	m.lastID = sensorID
	res := m.target
	res.Requested = targetC
	return res, m.record("target")
}
func (m *mockHome) SetPriority(ctx context.Context, sensorID string, priority int) error {
	m.lastID, m.lastPrio = sensorID, priority
	return m.record("priority")
}
func (m *mockHome) ReorderRooms(ctx context.Context, ids []string) error {
	m.lastOrder = ids
	return m.record("reorder")
}
func (m *mockHome) SetPower(ctx context.Context, on bool) error {
	m.lastOn = on
	return m.record("power")
}
func (m *mockHome) SetMode(ctx context.Context, mode string) error {
	m.lastMode = mode
	return m.record("mode")
}
func (m *mockHome) SetMasterConnected(ctx context.Context, connected bool) error {
	m.lastOn = connected
	return m.record("master")
}

type mockTelemetry struct {
	err    error
	lastID string
	last   models.RoomTelemetry
	calls  int
}

func (m *mockTelemetry) Ingest(ctx context.Context, sensorID string, t models.RoomTelemetry) error {
	m.calls++
	m.lastID = sensorID
	m.last = t
	return m.err
}

type mockMonitoring struct {
	home models.HomeSnapshot
	err  error
}

func (m *mockMonitoring) GetHome(ctx context.Context) (models.HomeSnapshot, error) {
	return m.home, m.err
}

type mockEventLog struct {
	resp     []models.HomeEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.HomeEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
