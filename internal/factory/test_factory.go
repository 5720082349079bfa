package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mcoot/pokerstats/internal/dependencies/mocks"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/services/ingest"
	"github.com/mcoot/pokerstats/internal/storage/memory"
	"github.com/mcoot/pokerstats/internal/testutil"
)

// TestAuthSecret signs tokens minted by TestApp
const TestAuthSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MemoryStorage *memory.Storage
	MockClock     *mocks.MockClock
	MockIDs       *mocks.SequentialIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewSequentialIDs("id")

	authCfg := auth.DefaultConfig()
	authCfg.Secret = TestAuthSecret

	ingestCfg := ingest.DefaultConfig()
	ingestCfg.Workers = 2

	app := newWithDependencies(dependencies{
		store:    store,
		clock:    mockClock,
		ids:      mockIDs,
		logger:   testutil.NopLogger(),
		registry: prometheus.NewRegistry(),
		tracer:   noop.NewTracerProvider().Tracer(TracerName),
	}, authCfg, ingestCfg)

	return &TestApp{
		App:           app,
		MemoryStorage: store,
		MockClock:     mockClock,
		MockIDs:       mockIDs,
	}
}

// Token mints a bearer token for the given user, valid for a day
func (t *TestApp) Token(userID model.UserID, role string) string {
	token, err := t.AuthService.IssueToken(userID, role, 24*time.Hour)
	if err != nil {
		panic(err)
	}
	return token
}
