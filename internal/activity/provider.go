/*
Package activity spawns and manages an optional external activity
provider process.

The provider is any executable that answers one line of JSON per
request line:

  -> {"method":"activity/current"}
  <- {"fatigueSignals":4,"adaptationSuggestions":["Deep work block ahead"]}

A missing, crashed or slow provider degrades to a nil signal; the
scheduler then falls back to its default work type.
*/
package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"
)

// requestTimeout bounds how long a signal request may take before the
// provider is considered unresponsive.
const requestTimeout = 2 * time.Second

// Signal mirrors detect.Signal so the two packages stay decoupled.
type Signal struct {
	FatigueSignals        int      `json:"fatigueSignals"`
	AdaptationSuggestions []string `json:"adaptationSuggestions"`
}

// Provider manages a single spawned activity provider process.
type Provider struct {
	argv []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewProvider creates a provider for the given command argv. Returns
// nil if argv is empty, which callers treat as "no provider".
func NewProvider(argv []string) *Provider {
	if len(argv) == 0 {
		return nil
	}
	return &Provider{argv: argv}
}

// Current fetches the current activity signal. Any failure returns nil.
func (p *Provider) Current() *Signal {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStartedLocked(); err != nil {
		log.Printf("Warning: activity provider unavailable: %v", err)
		return nil
	}

	signal, err := p.requestLocked()
	if err != nil {
		log.Printf("Warning: activity provider request failed: %v", err)
		p.killLocked()
		return nil
	}
	return signal
}

// ensureStartedLocked spawns the provider process if not running.
func (p *Provider) ensureStartedLocked() error {
	if p.cmd != nil {
		return nil
	}

	cmd := exec.Command(p.argv[0], p.argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start provider: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	return nil
}

// requestLocked sends one request line and reads one response line with
// a timeout.
func (p *Provider) requestLocked() (*Signal, error) {
	request := map[string]string{"method": "activity/current"}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	if _, err := p.stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := p.stdout.ReadString('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read response: %w", r.err)
		}
		var signal Signal
		if err := json.Unmarshal([]byte(r.line), &signal); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return &signal, nil
	case <-time.After(requestTimeout):
		return nil, fmt.Errorf("provider did not answer within %s", requestTimeout)
	}
}

// killLocked terminates the provider process so the next request
// respawns it.
func (p *Provider) killLocked() {
	if p.cmd == nil {
		return
	}
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
	p.cmd = nil
	p.stdin = nil
	p.stdout = nil
}

// Close terminates the provider process. Closes stdin first for a
// graceful exit, then force kills after 2 seconds.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}

	if p.stdin != nil {
		p.stdin.Close()
	}

	done := make(chan error, 1)
	go func() {
		done <- p.cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Printf("Activity provider did not exit gracefully, force killing")
		if p.cmd.Process != nil {
			p.cmd.Process.Kill()
		}
	}

	p.cmd = nil
	p.stdin = nil
	p.stdout = nil
	return nil
}
