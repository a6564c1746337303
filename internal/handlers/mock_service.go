package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"supercycler"
	"supercycler/internal/service"
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

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCycle struct {
	startErr      error
	stopErr       error
	tickErr       error
	overrideErr   error
	lastOverride  supercycler.Phase
	startCalled   int
	stopCalled    int
	tickCalled    int
	overrideCalls int
}

func (m *mockCycle) Start(ctx context.Context) error {
	m.startCalled++
	return m.startErr
}
func (m *mockCycle) Stop(ctx context.Context) error {
	m.stopCalled++
	return m.stopErr
}
func (m *mockCycle) Tick(ctx context.Context) error {
	m.tickCalled++
	return m.tickErr
}
func (m *mockCycle) Override(ctx context.Context, phase supercycler.Phase) error {
	m.overrideCalls++
	m.lastOverride = phase
	return m.overrideErr
}

type mockMonitoring struct {
	status supercycler.Status
	err    error
}

func (m *mockMonitoring) Status(ctx context.Context) (supercycler.Status, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp     []supercycler.CycleEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]supercycler.CycleEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
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
