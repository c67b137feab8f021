package sampler

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/vburojevic/dwell/internal/domain"
)

// CommandSampler runs a shell command that prints the foreground app, for
// desktops where a helper such as xdotool or lsappinfo knows the answer.
// With ResolvePID the command prints a process ID instead, which is mapped to
// the process name.
type CommandSampler struct {
	Command    string
	ResolvePID bool

	run    func(ctx context.Context, command string) ([]byte, error)
	lookup func(ctx context.Context, pid int32) (string, error)
}

// NewCommandSampler creates a sampler running command through sh -c.
func NewCommandSampler(command string, resolvePID bool) *CommandSampler {
	return &CommandSampler{
		Command:    command,
		ResolvePID: resolvePID,
		run:        runShell,
		lookup:     processName,
	}
}

// Sample runs the command once. Empty output means no foreground app.
func (s *CommandSampler) Sample(ctx context.Context, _, _ time.Time) (domain.AppID, error) {
	out, err := s.run(ctx, s.Command)
	if err != nil {
		return domain.None, fmt.Errorf("foreground command: %w", err)
	}
	value := strings.TrimSpace(string(out))
	if value == "" {
		return domain.None, nil
	}
	if !s.ResolvePID {
		return domain.AppID(value), nil
	}

	pid, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return domain.None, fmt.Errorf("foreground command printed %q, want a pid: %w", value, err)
	}
	name, err := s.lookup(ctx, int32(pid))
	if err != nil {
		return domain.None, fmt.Errorf("resolve pid %d: %w", pid, err)
	}
	return domain.AppID(name), nil
}

func runShell(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).Output()
}

func processName(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return p.NameWithContext(ctx)
}
