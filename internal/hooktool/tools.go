// Package hooktool runs the hook tools the agent places on PATH for the duration of a hook:
// config-get, status-set, status-get and juju-log.
package hooktool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"hookstate/internal/ports"
	"hookstate/internal/types"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const (
	ConfigGetCmd = "config-get"
	StatusSetCmd = "status-set"
	StatusGetCmd = "status-get"
	JujuLogCmd   = "juju-log"
)

// Levels accepted by juju-log -l.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

var (
	_ ports.ConfigSource   = (*Tools)(nil)
	_ ports.StatusReporter = (*Tools)(nil)
)

// Tools runs hook tools found on PATH.
type Tools struct {
	// Stderr receives juju-log output when the tool is missing. Defaults to os.Stderr.
	Stderr io.Writer
}

func New() *Tools {
	return &Tools{Stderr: os.Stderr}
}

// Fetch runs config-get. An empty scope returns the whole configuration object.
func (t *Tools) Fetch(ctx context.Context, scope string) ([]byte, error) {
	args := []string{}
	if scope != "" {
		args = append(args, scope)
	}
	args = append(args, "--format=json")
	return t.output(ctx, ConfigGetCmd, args...)
}

// StatusSet sets the workload state shown by the controller. When status-set is missing or
// fails the message goes to juju-log instead and StatusSet returns false.
func (t *Tools) StatusSet(ctx context.Context, state types.WorkloadState, message string) (bool, error) {
	if err := state.Validate(); err != nil {
		return false, err
	}
	err := exec.CommandContext(ctx, StatusSetCmd, string(state), message).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if !errors.Is(err, exec.ErrNotFound) && !errors.As(err, &exitErr) {
		return false, types.Err(types.ErrToolFailed, err, "%s", StatusSetCmd)
	}
	log.WithError(err).WithField("state", state).Debug("status-set unavailable")
	if err := t.Log(ctx, fmt.Sprintf("status-set failed: %s %s", state, message), LevelInfo); err != nil {
		return false, err
	}
	return false, nil
}

// StatusGet returns the workload state last set for this unit. Without status-get the state
// is unknown.
func (t *Tools) StatusGet(ctx context.Context) (types.Status, error) {
	out, err := exec.CommandContext(ctx, StatusGetCmd, "--format=json", "--include-data").Output()
	if errors.Is(err, exec.ErrNotFound) {
		return types.Status{State: types.StateUnknown}, nil
	}
	if err != nil {
		return types.Status{}, toolErr(StatusGetCmd, err)
	}
	var st types.Status
	if err := json.Unmarshal(out, &st); err != nil {
		return types.Status{}, types.Err(types.ErrToolFailed, err, "%s returned %q", StatusGetCmd, out)
	}
	return st, nil
}

// Log writes message to the unit log. An empty level leaves the choice to juju-log.
func (t *Tools) Log(ctx context.Context, message, level string) error {
	args := []string{}
	if level != "" {
		args = append(args, "-l", level)
	}
	args = append(args, message)
	err := exec.CommandContext(ctx, JujuLogCmd, args...).Run()
	if errors.Is(err, exec.ErrNotFound) {
		if level != "" {
			message = level + ": " + message
		}
		_, werr := fmt.Fprintln(t.stderr(), "juju-log: "+message)
		return werr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Exit status of juju-log is ignored.
		return nil
	}
	if err != nil {
		return types.Err(types.ErrToolFailed, err, "%s", JujuLogCmd)
	}
	return nil
}

func (t *Tools) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, toolErr(name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (t *Tools) stderr() io.Writer {
	if t.Stderr == nil {
		return os.Stderr
	}
	return t.Stderr
}

func toolErr(name string, err error, detail ...string) error {
	if len(detail) > 0 && detail[0] != "" {
		return types.Err(types.ErrToolFailed, err, "%s: %s", name, detail[0])
	}
	return types.Err(types.ErrToolFailed, err, "%s", name)
}
