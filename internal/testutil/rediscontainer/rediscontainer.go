// Package rediscontainer launches a throwaway Redis instance in docker
// for integration tests, mirroring postgrescontainer.
package rediscontainer

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	image         = "redis:7-alpine"
	containerName = "employee-registry-redis-test"
	hostPort      = "6390"
)

var (
	once     sync.Once
	setupErr error
)

// Addr exposes the Redis host:port combination used by integration tests.
func Addr() string { return "127.0.0.1:" + hostPort }

// Setup runs the Redis container and waits until it answers PING.
func Setup() error {
	once.Do(func() {
		if err := ensureDocker(); err != nil {
			setupErr = err
			return
		}
		_ = stopContainer()
		if err := runContainer(); err != nil {
			setupErr = err
			return
		}
		if err := waitForRedis(Addr(), 10*time.Second); err != nil {
			setupErr = err
			return
		}
	})
	return setupErr
}

// Teardown stops the Redis container if it is running.
func Teardown() error {
	if setupErr != nil {
		return setupErr
	}
	return stopContainer()
}

func ensureDocker() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker executable not found: %w", err)
	}
	return nil
}

func runContainer() error {
	return runDocker(
		"run",
		"-d",
		"--rm",
		"--name", containerName,
		"-p", fmt.Sprintf("%s:6379", hostPort),
		image,
	)
}

func stopContainer() error {
	cmd := exec.Command("docker", "stop", containerName)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(output), "No such container") {
			return nil
		}
		return fmt.Errorf("docker stop failed: %w: %s", err, output)
	}
	once = sync.Once{}
	return nil
}

func runDocker(args ...string) error {
	cmd := exec.Command("docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker %s failed: %w: %s", args[0], err, output)
	}
	return nil
}

func waitForRedis(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	payload := []byte("*1\r\n$4\r\nPING\r\n")
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			if _, err := conn.Write(payload); err == nil {
				_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
				reader := bufio.NewReader(conn)
				line, err := reader.ReadString('\n')
				if err == nil && strings.Contains(line, "PONG") {
					_ = conn.Close()
					return nil
				}
			}
			_ = conn.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return errors.New("redis container did not respond to ping")
}
