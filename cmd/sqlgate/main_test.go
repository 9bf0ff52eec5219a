package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/sqlgate/internal/access"
	"github.com/nerrad567/sqlgate/internal/infrastructure/config"
	"github.com/nerrad567/sqlgate/internal/infrastructure/database"
)

// runApp runs the CLI with args and returns its standard output.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := app.RunContext(ctx, append([]string{"sqlgate"}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// testConfig returns a runnable configuration rooted in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Gateway: config.GatewayConfig{Route: "/database"},
		Database: config.DatabaseConfig{
			Path:          filepath.Join(dir, "data", "gateway.db"),
			BusyTimeout:   5,
			StartupScript: filepath.Join(dir, "startup.sql"),
		},
		API: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"},
	}
}

func TestFunctionsCommand(t *testing.T) {
	out, err := runApp(t, "", "functions")
	if err != nil {
		t.Fatalf("functions error = %v", err)
	}
	for _, want := range []string{"NAME", "MD5", "SUBSTRING", "NOW_UNIX", "FUNCTION_DOCUMENTATION"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFunctionsCommand_Describe(t *testing.T) {
	out, err := runApp(t, "", "functions", "md5")
	if err != nil {
		t.Fatalf("functions md5 error = %v", err)
	}
	if !strings.HasPrefix(out, "MD5(") {
		t.Errorf("output = %q, want MD5 signature first", out)
	}

	if _, err := runApp(t, "", "functions", "no_such_function"); err == nil {
		t.Error("describing an unknown function should fail")
	}
}

func TestCheckConfigCommand(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[gateway]
route = "/sql"
allowed_ips = ["127.0.0.1"]
allowed_passwords = ["one", "two"]
query_timeout = 3

[database]
path = "data/test.db"

[api]
port = 9090
`)

	out, err := runApp(t, "", "--config", path, "check-config")
	if err != nil {
		t.Fatalf("check-config error = %v", err)
	}
	for _, want := range []string{"configuration OK", "/sql", "127.0.0.1:9090", "data/test.db", "true (2 entries)", "3s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckConfigCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"explicit missing file", []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "check-config"}},
		{"invalid values", []string{"--config", writeConfig(t, "bad.yaml", "api:\n  port: 70000\n"), "check-config"}},
		{"unsupported format", []string{"--config", writeConfig(t, "config.ini", "x=1"), "check-config"}},
		{"broken hashed secret", []string{"--config", writeConfig(t, "hash.yaml", "gateway:\n  allowed_passwords: [\"$argon2id$v=19$m=1\"]\n"), "check-config"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, "", tt.args...); err == nil {
				t.Error("check-config should fail")
			}
		})
	}
}

func TestHashSecretCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"argument", "", []string{"hash-secret", "s3cret"}},
		{"stdin", "s3cret\n", []string{"hash-secret"}},
		{"stdin without newline", "s3cret", []string{"hash-secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("hash-secret error = %v", err)
			}
			hash := strings.TrimSpace(out)
			if !strings.HasPrefix(hash, "$argon2id$") {
				t.Fatalf("output = %q, want PHC string", hash)
			}
			ok, err := access.VerifySecret("s3cret", hash)
			if err != nil || !ok {
				t.Errorf("VerifySecret() = %v, %v; want true", ok, err)
			}
		})
	}
}

func TestHashSecretCommand_Empty(t *testing.T) {
	if _, err := runApp(t, "", "hash-secret"); err == nil {
		t.Error("hash-secret without input should fail")
	}
	if _, err := runApp(t, "\n", "hash-secret"); err == nil {
		t.Error("hash-secret with an empty line should fail")
	}
}

func TestLoadConfig_DefaultFallback(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := loadConfig(missing, false)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Gateway.Route != "/database" {
		t.Errorf("Route = %q, want default /database", cfg.Gateway.Route)
	}

	if _, err := loadConfig(missing, true); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLoadConfig_RejectsBrokenHashedSecret(t *testing.T) {
	path := writeConfig(t, "config.yaml", "gateway:\n  allowed_passwords: [\"plain\", \"$argon2id$garbage\"]\n")

	_, err := loadConfig(path, true)
	if !errors.Is(err, access.ErrInvalidHash) {
		t.Fatalf("loadConfig() error = %v, want ErrInvalidHash", err)
	}
	if !strings.Contains(err.Error(), "gateway.allowed_passwords") {
		t.Errorf("error %q should name the setting", err)
	}
}

func TestRun_DatabaseUnavailable(t *testing.T) {
	cfg := testConfig(t)

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	cfg.Database.Path = filepath.Join(blocker, "gateway.db")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, cfg); err == nil {
		t.Fatal("run() should fail when the database directory cannot be created")
	}
}

func TestRun_MQTTUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.MQTT = config.MQTTConfig{
		Enabled:   true,
		Broker:    config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1, ClientID: "sqlgate-test"},
		QoS:       1,
		Reconnect: config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 1},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg); err == nil {
		t.Fatal("run() should fail when an enabled MQTT broker is unreachable")
	}
}

func TestRun_StartupScriptAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	script := "CREATE TABLE IF NOT EXISTS notes (id INTEGER PRIMARY KEY, body TEXT);\n" +
		"INSERT INTO notes (body) VALUES (TO_UPPER('seeded'));\n"
	if err := os.WriteFile(cfg.Database.StartupScript, []byte(script), 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	time.Sleep(500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}

	db, err := database.Open(context.Background(), database.Config{Path: cfg.Database.Path, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close()

	var body string
	if err := db.Get(&body, "SELECT body FROM notes"); err != nil {
		t.Fatalf("startup script did not run: %v", err)
	}
	if body != "SEEDED" {
		t.Errorf("body = %q, want SEEDED", body)
	}
}

func TestRun_BrokenStartupScriptIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Database.StartupScript, []byte("CREATE TABLE (;"), 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v, want nil despite broken script", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

func TestHealthCheck_OptionalClients(t *testing.T) {
	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "h.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close()

	if err := healthCheck(context.Background(), db, nil, nil); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}
}
