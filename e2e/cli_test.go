package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pokerstats/internal/api"
	"github.com/mcoot/pokerstats/internal/factory"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/services/ingest"
)

const e2eSecret = "e2e-secret"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "pokerstats-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pokerstats")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "POKERSTATS_TOKEN=")
	output, err := cmd.Output()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	return r.run(append([]string{"--token", token}, args...)...)
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	app      *factory.App
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ingestCfg := ingest.DefaultConfig()
	ingestCfg.Workers = 4

	// Create application
	app, err := factory.New(context.Background(), factory.Config{
		Logger:       logger,
		StorageType:  factory.StorageTypeMemory,
		AuthConfig:   auth.Config{Secret: e2eSecret, Leeway: time.Minute},
		IngestConfig: ingestCfg,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		AuthService:        app.AuthService,
		Pipeline:           app.Pipeline,
		CatalogService:     app.CatalogService,
		AnnotationsService: app.AnnotationsService,
		Gatherer:           app.Registry,
		Ping:               app.Ping,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = "127.0.0.1"
	serverCfg.Port = 0
	serverCfg.ShutdownTimeout = 5 * time.Second
	server := api.NewServer(router, serverCfg, logger)
	require.NoError(t, server.Listen())

	// Start server
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	// Wait for server to be ready
	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		app:  app,
		shutdown: func() {
			cancel()
			if err := <-done; err != nil {
				t.Logf("server error: %v", err)
			}
			_ = app.Close()
		},
	}
}

func (ts *testServer) token(t *testing.T, userID model.UserID, role string) string {
	t.Helper()
	token, err := ts.app.AuthService.IssueToken(userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Response types for JSON parsing
type importResponse struct {
	ID          string `json:"id"`
	Platform    string `json:"platform"`
	TotalRows   int    `json:"total_rows"`
	Inserted    int    `json:"inserted"`
	Skipped     int    `json:"skipped"`
	Rejected    int    `json:"rejected"`
	Unprocessed int    `json:"unprocessed"`
	Errors      []struct {
		Row  int    `json:"row"`
		Code string `json:"code"`
	} `json:"errors"`
}

type profileResponse struct {
	Player struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Summary  string   `json:"summary"`
		Tags     []string `json:"tags"`
	} `json:"player"`
	Aliases []struct {
		Platform string `json:"platform"`
		Username string `json:"username"`
	} `json:"aliases"`
	Stats *struct {
		Preflop    map[string]*float64 `json:"preflop"`
		Tournament map[string]*float64 `json:"tournament"`
	} `json:"stats"`
	Note *struct {
		Text string `json:"text"`
	} `json:"note"`
	Watchlisted bool `json:"watchlisted"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_ImportAndProfileFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	token := ts.token(t, "user-1", auth.RoleUser)

	// Login saves the token for later commands
	output, err := cli.run("login", token)
	require.NoError(t, err, "output: %s", output)

	csvPath := writeFile(t, "stats.csv",
		"Username,VPIP,PFR,ROI\n"+
			"alice,25.5,18,40%\n"+
			"bob,30,20,\n"+
			",10,5,1\n"+
			"carol,abc,1,2\n")

	output, err = cli.run("import", csvPath, "--platform", "pokerbaazi")
	require.NoError(t, err, "output: %s", output)

	var report importResponse
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, "pokerbaazi", report.Platform)
	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 0, report.Unprocessed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Equal(t, "MISSING_IDENTITY", report.Errors[0].Code)

	// The persisted report matches what the upload returned
	output, err = cli.run("report", report.ID)
	require.NoError(t, err, "output: %s", output)
	var fetched importResponse
	require.NoError(t, json.Unmarshal([]byte(output), &fetched))
	assert.Equal(t, report.ID, fetched.ID)
	assert.Equal(t, report.Inserted, fetched.Inserted)

	// Re-importing the same rows skips existing statistics
	output, err = cli.run("import", csvPath, "--platform", "pokerbaazi")
	require.NoError(t, err, "output: %s", output)
	var second importResponse
	require.NoError(t, json.Unmarshal([]byte(output), &second))
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Skipped)

	// Notes and watchlist are scoped to the caller
	output, err = cli.run("note", "set", "alice", "calls too wide")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("watch", "add", "alice")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("player", "alice")
	require.NoError(t, err, "output: %s", output)

	var profile profileResponse
	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	assert.Equal(t, "alice", profile.Player.Username)
	require.NotNil(t, profile.Stats)
	require.NotNil(t, profile.Stats.Preflop["vpip"])
	assert.InDelta(t, 25.5, *profile.Stats.Preflop["vpip"], 0.001)
	require.NotNil(t, profile.Stats.Tournament["roi"])
	assert.InDelta(t, 40.0, *profile.Stats.Tournament["roi"], 0.001)
	require.NotNil(t, profile.Note)
	assert.Equal(t, "calls too wide", profile.Note.Text)
	assert.True(t, profile.Watchlisted)

	// Another user sees neither the note nor the watchlist entry
	other := ts.token(t, "user-2", auth.RoleUser)
	output, err = cli.runWithToken(other, "player", "alice")
	require.NoError(t, err, "output: %s", output)
	var otherView profileResponse
	require.NoError(t, json.Unmarshal([]byte(output), &otherView))
	assert.Nil(t, otherView.Note)
	assert.False(t, otherView.Watchlisted)
}

func TestCLI_AdminAliasAndEnrich(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	user := ts.token(t, "user-1", auth.RoleUser)
	admin := ts.token(t, "admin-1", auth.RoleAdmin)

	csvPath := writeFile(t, "stats.csv", "username,vpip\nalice,25\n")
	output, err := cli.runWithToken(user, "import", csvPath, "--platform", "pokerbaazi")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.runWithToken(user, "player", "alice")
	require.NoError(t, err, "output: %s", output)
	var profile profileResponse
	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	playerID := profile.Player.ID

	// Regular users cannot link aliases
	_, err = cli.runWithToken(user, "alias", playerID, "alice_ps", "--platform", "pokerstars")
	require.Error(t, err)

	output, err = cli.runWithToken(admin, "alias", playerID, "alice_ps", "--platform", "pokerstars")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.runWithToken(admin, "enrich", playerID,
		"--summary", "loose passive", "--tag", "fish", "--tag", "fish", "--tag", "reg")
	require.NoError(t, err, "output: %s", output)

	// Rows from the linked account now land on the same player
	psPath := writeFile(t, "ps.csv", "username,vpip\nalice_ps,30\n")
	output, err = cli.runWithToken(user, "import", psPath, "--platform", "pokerstars")
	require.NoError(t, err, "output: %s", output)
	var report importResponse
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 1, report.Skipped)

	output, err = cli.runWithToken(user, "player", "alice")
	require.NoError(t, err, "output: %s", output)
	var enriched profileResponse
	require.NoError(t, json.Unmarshal([]byte(output), &enriched))
	assert.Equal(t, "loose passive", enriched.Player.Summary)
	assert.Equal(t, []string{"fish", "reg"}, enriched.Player.Tags)
	assert.Len(t, enriched.Aliases, 2)
}
