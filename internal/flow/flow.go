package flow

import (
	"context"
	"fmt"

	"hookstate/internal/codec"
	"hookstate/internal/hookenv"
	"hookstate/internal/ports"
	"hookstate/internal/types"

	json "github.com/goccy/go-json"
)

// Hook is the work a charm does during one invocation.
type Hook func(ctx context.Context, inv *hookenv.Invocation) error

// Execute runs hook within inv. When hook fails (or panics) the invocation is aborted, so no
// deferred callback runs and nothing is persisted. Otherwise the invocation completes and any
// persistence failure is returned.
func Execute(ctx context.Context, inv *hookenv.Invocation, hook Hook) error {
	defer func() {
		if r := recover(); r != nil {
			inv.Abort(fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()
	if err := hook(ctx, inv); err != nil {
		inv.Abort(err)
		return err
	}
	return inv.Complete(ctx)
}

// Report is published when an invocation completes with configuration changes.
type Report struct {
	Invocation string         `json:"invocation"`
	Unit       string         `json:"unit"`
	Hook       string         `json:"hook"`
	Timestamp  int64          `json:"ts"`
	Changes    []types.Change `json:"changes"`
}

// ReportChanges schedules publication of the configuration changes to target. The changes
// are computed when the invocation completes, so values set by the hook are included. The
// report is published before the config is saved; a publish failure is returned from
// Complete but does not stop the save.
func ReportChanges(ctx context.Context, inv *hookenv.Invocation, p ports.Publisher, target string) error {
	if p == nil {
		return nil
	}
	cfg, err := inv.Config(ctx)
	if err != nil || cfg == nil {
		return err
	}
	inv.Atexit("flow.report", func(ctx context.Context) error {
		changes := cfg.Changes()
		if len(changes) == 0 {
			return nil
		}
		b, err := json.Marshal(Report{
			Invocation: inv.ID,
			Unit:       inv.Unit,
			Hook:       inv.Hook,
			Timestamp:  EpochTime(),
			Changes:    changes,
		})
		if err != nil {
			return err
		}
		if err := p.PublishRaw(ctx, target, b); err != nil {
			return err
		}
		inv.Logger().WithField("changes", len(changes)).Info("Published configuration changes")
		return nil
	})
	return nil
}

// ChangedPath reports whether the value selected by a JMESPath expression differs between
// the previous snapshot and the current configuration. Without a previous snapshot every
// path has changed.
func ChangedPath(cfg *hookenv.Config, expression string) (bool, error) {
	cur, err := cfg.Search(expression)
	if err != nil {
		return false, err
	}
	if !cfg.HasPrevious() {
		return true, nil
	}
	prev, err := cfg.SearchPrevious(expression)
	if err != nil {
		return false, err
	}
	return !codec.Equal(prev, cur), nil
}
