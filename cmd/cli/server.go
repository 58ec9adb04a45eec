package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/mediagrab/media-relay/internal/client"
	"github.com/mediagrab/media-relay/internal/infrastructure"
)

const (
	serverBinary       = "media-relay-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning checks if the relay is responding to health checks
func isServerRunning(c *client.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.Health(ctx) == nil
}

// isLocalBackend reports whether the relay address is on this machine.
// Remote relays are never started.
func isLocalBackend(backend string) bool {
	u, err := url.Parse(backend)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// findServerBinary locates the relay server binary
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), serverBinary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(serverBinary); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	for _, p := range []string{
		filepath.Join("/usr/local/bin", serverBinary),
		filepath.Join(home, "go", "bin", serverBinary),
		filepath.Join(home, ".local", "bin", serverBinary),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground starts the relay as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	var args []string
	if configPath != "" {
		args = append(args, "-config", configPath)
	}
	cmd := exec.Command(serverPath, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	infrastructure.DetachProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	go cmd.Wait()

	return nil
}

// waitForServerReady polls the relay until it's healthy or the timeout passes
func waitForServerReady(c *client.Client) error {
	deadline := time.Now().Add(serverStartTimeout)

	for time.Now().Before(deadline) {
		if isServerRunning(c) {
			return nil
		}
		time.Sleep(serverPollInterval)
	}

	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning starts a local relay when none answers
func ensureServerRunning(c *client.Client) error {
	if isServerRunning(c) {
		return nil
	}
	if !isLocalBackend(c.BaseURL()) {
		return fmt.Errorf("relay at %s is not responding", c.BaseURL())
	}

	fmt.Fprintln(os.Stderr, "Relay not running, starting...")

	if err := startServerBackground(); err != nil {
		return err
	}
	if err := waitForServerReady(c); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Relay started successfully")
	return nil
}
