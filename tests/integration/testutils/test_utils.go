package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	ServerBinary = "../../bin/consent-server"
	ServerPort   = "9446"

	// ServerURLEnv points the test packages at an already running server
	ServerURLEnv = "CONSENTLY_IT_SERVER_URL"

	// SeedWidgetID is the widget inserted by dbscripts
	SeedWidgetID = "w1"
)

// SeedActivityIDs are the seed widget's activities in display order
var SeedActivityIDs = []string{"act1", "act2", "act3"}

var serverCmd *exec.Cmd

// ServerURL returns the base URL of the server under test
func ServerURL() string {
	if url := os.Getenv(ServerURLEnv); url != "" {
		return url
	}
	return "http://localhost:" + ServerPort
}

// BuildServer compiles the consent server binary
func BuildServer() error {
	fmt.Println("Building consent server...")
	cmd := exec.Command("go", "build", "-o", "bin/consent-server", "./cmd/server")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// StartServer starts the consent server in the background. The database must already
// hold the schema and seed data from dbscripts.
func StartServer() error {
	fmt.Println("Starting consent server...")
	cmd := exec.Command(ServerBinary)
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"CONSENTLY_SERVER_PORT="+ServerPort,
		"CONSENTLY_LOGGING_LEVEL=debug",
		"CONSENTLY_CACHE_DRIVER=none",
		"CONSENTLY_SECURITY_EMAIL_HASH_KEY=integration-test-key",
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	serverCmd = cmd
	return nil
}

// StopServer gracefully stops the consent server
func StopServer() error {
	if serverCmd == nil || serverCmd.Process == nil {
		return nil
	}

	fmt.Println("Stopping server...")
	if err := serverCmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	_, err := serverCmd.Process.Wait()
	return err
}

// WaitForServer waits for the health endpoint to report healthy
func WaitForServer() error {
	fmt.Println("Waiting for server to be ready...")
	for i := 0; i < 30; i++ {
		if IsServerReady() {
			fmt.Println("Server is ready")
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("server did not start within timeout")
}

// IsServerReady reports whether /health answers 200
func IsServerReady() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(ServerURL() + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// UniqueVisitorID returns a visitor id that no earlier run has used
func UniqueVisitorID(prefix string) string {
	return fmt.Sprintf("it-%s-%d", prefix, time.Now().UnixNano())
}

// DoJSON sends a request with an optional JSON body and returns the status and raw body
func DoJSON(method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ServerURL()+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}
