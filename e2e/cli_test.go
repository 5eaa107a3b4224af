package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheet/internal/api"
	"github.com/mcoot/charsheet/internal/factory"
	"github.com/mcoot/charsheet/internal/services/access"
)

const gmPin = "2122"

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
	binaryPath := filepath.Join(t.TempDir(), "charsheet-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/charsheet")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// as returns a runner sharing the binary but with its own token file
func (r *cliRunner) as(t *testing.T) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
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
	cmd.Env = append(os.Environ(), "CHARSHEET_TOKEN=")
	output, err := cmd.Output()
	return string(output), err
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
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(factory.Config{
		AccessConfig: access.Config{GMPin: gmPin},
		Logger:       logger,
	})
	require.NoError(t, err)
	app.Start(context.Background())

	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		Storage:          app.Storage,
		StorageKind:      app.StorageType,
		AuthService:      app.AuthService,
		AccessController: app.AccessController,
		Roster:           app.RosterController,
		Engine:           app.Engine,
		Catalog:          app.Catalog,
		Hub:              app.Hub,
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serverCfg := api.DefaultServerConfig()
	server := api.NewServer(router, serverCfg, logger)
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			app.Hub.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
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

// Response types for JSON parsing
type authResponse struct {
	User struct {
		ID      string `json:"id"`
		Label   string `json:"label"`
		IsGuest bool   `json:"is_guest"`
	} `json:"user"`
	SessionToken string `json:"session_token"`
}

type meResponse struct {
	User struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"user"`
	Viewer struct {
		State       string  `json:"state"`
		CharacterID *string `json:"characterId"`
	} `json:"viewer"`
}

type characterResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Health         int      `json:"health"`
	MaxHealth      int      `json:"maxHealth"`
	Gear           []string `json:"gear"`
	AssignedUserID *string  `json:"assignedUserId"`
	Disabled       bool     `json:"disabled"`
}

type listResponse struct {
	Characters []characterResponse `json:"characters"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[healthResponse](t, output)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestCLI_IdentityCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Sign in as a guest
	output, err := cli.run("identity", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)

	auth := decode[authResponse](t, output)
	assert.Equal(t, "Alice", auth.User.Label)
	assert.True(t, auth.User.IsGuest)
	assert.NotEmpty(t, auth.SessionToken)

	// Token is saved in the token file
	output, err = cli.run("identity", "me")
	require.NoError(t, err, "output: %s", output)

	me := decode[meResponse](t, output)
	assert.Equal(t, auth.User.ID, me.User.ID)
	assert.Equal(t, "player_unclaimed", me.Viewer.State)

	// Logout invalidates the session
	_, err = cli.run("identity", "logout")
	require.NoError(t, err)

	_, err = cli.run("identity", "me")
	assert.Error(t, err)
}

func TestCLI_RegisterAndLogin(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("identity", "register", "--user", "ripley", "--pass", "nostromo", "--name", "Ellen")
	require.NoError(t, err, "output: %s", output)
	registered := decode[authResponse](t, output)
	assert.False(t, registered.User.IsGuest)

	output, err = cli.as(t).run("identity", "login", "--user", "ripley", "--pass", "nostromo")
	require.NoError(t, err, "output: %s", output)
	loggedIn := decode[authResponse](t, output)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = cli.as(t).run("identity", "login", "--user", "ripley", "--pass", "wrong")
	assert.Error(t, err)
}

func TestCLI_SessionFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	gm := newCLIRunner(t, ts.addr)
	player := gm.as(t)

	// GM signs in, claims the role and seeds the roster
	_, err := gm.run("identity", "guest", "--name", "GM")
	require.NoError(t, err)

	output, err := gm.run("gm", "claim", "--pin", gmPin)
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "gm", decode[meResponse](t, output).Viewer.State)

	output, err = gm.run("gm", "seed")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, `"seeded": 7`)

	// A second seed needs --force
	_, err = gm.run("gm", "seed")
	assert.Error(t, err)

	// Player signs in and sees the whole roster
	output, err = player.run("identity", "guest", "--name", "Bishop")
	require.NoError(t, err, "output: %s", output)
	playerID := decode[authResponse](t, output).User.ID

	output, err = player.run("character", "list")
	require.NoError(t, err, "output: %s", output)
	assert.Len(t, decode[listResponse](t, output).Characters, 7)

	// Player claims a character and now sees only that one
	output, err = player.run("character", "claim", "mason")
	require.NoError(t, err, "output: %s", output)
	claimed := decode[characterResponse](t, output)
	require.NotNil(t, claimed.AssignedUserID)
	assert.Equal(t, playerID, *claimed.AssignedUserID)

	output, err = player.run("character", "list")
	require.NoError(t, err, "output: %s", output)
	chars := decode[listResponse](t, output).Characters
	require.Len(t, chars, 1)
	assert.Equal(t, "mason", chars[0].ID)

	_, err = player.run("character", "show", "chaplain")
	assert.Error(t, err)

	// Player edits their own sheet
	output, err = player.run("character", "edit", "mason", "add_gear", "text=Flashlight")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, decode[characterResponse](t, output).Gear, "Flashlight")

	output, err = player.run("character", "edit", "mason", "toggle_health", "index=0")
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, 0, decode[characterResponse](t, output).Health)

	// Derived sheet is available
	output, err = player.run("character", "sheet", "mason")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, `"attributes"`)

	// Non-GM cannot administer
	_, err = player.run("gm", "users")
	assert.Error(t, err)

	// GM moves the player to another character
	output, err = gm.run("gm", "assign", "silva", playerID)
	require.NoError(t, err, "output: %s", output)

	output, err = gm.run("character", "show", "mason")
	require.NoError(t, err, "output: %s", output)
	assert.Nil(t, decode[characterResponse](t, output).AssignedUserID)

	output, err = player.run("identity", "me")
	require.NoError(t, err, "output: %s", output)
	me := decode[meResponse](t, output)
	require.NotNil(t, me.Viewer.CharacterID)
	assert.Equal(t, "silva", *me.Viewer.CharacterID)

	// GM disables and re-enables a character
	output, err = gm.run("gm", "disable", "dante")
	require.NoError(t, err, "output: %s", output)
	assert.True(t, decode[characterResponse](t, output).Disabled)

	output, err = gm.run("gm", "enable", "dante")
	require.NoError(t, err, "output: %s", output)
	assert.False(t, decode[characterResponse](t, output).Disabled)
}

func TestCLI_WrongPin(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	_, err := cli.run("identity", "guest")
	require.NoError(t, err)

	_, err = cli.run("gm", "claim", "--pin", "0000")
	assert.Error(t, err)
}
