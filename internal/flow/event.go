package flow

import (
	"context"
	"path/filepath"
	"regexp"

	"hookstate/internal/hookenv"
	"hookstate/internal/ports"
	"hookstate/internal/settings"
	"hookstate/internal/types"

	json "github.com/goccy/go-json"
)

var unitNameRe = regexp.MustCompile(`^[a-z][a-z0-9-]*/[0-9]+$`)

// Event triggers one invocation from outside a hook environment, e.g. over HTTP or SQS.
// Config is the full configuration object delivered for this run.
type Event struct {
	ID     string          `json:"id,omitempty"`
	Unit   string          `json:"unit"`
	Hook   string          `json:"hook"`
	Config json.RawMessage `json:"config"`
	// Watch lists JMESPath expressions whose change is reported in Result.ChangedPaths.
	Watch []string `json:"watch,omitempty"`
}

func (e Event) Validate() error {
	if !unitNameRe.MatchString(e.Unit) {
		return types.Err(types.ErrInvalidEvent, nil, "invalid unit name %q", e.Unit)
	}
	if e.Hook == "" {
		return types.Err(types.ErrInvalidEvent, nil, "missing hook name")
	}
	return nil
}

// Deps is what HandleEvent needs besides the event itself.
type Deps struct {
	// Root is the directory (or key prefix) unit snapshots live under.
	Root      string
	Store     ports.SnapshotStore
	Publisher ports.Publisher
	Target    string
	// Hook, when set, runs after change detection within the same invocation.
	Hook Hook
}

type Result struct {
	Invocation   string   `json:"invocation"`
	Outcome      Outcome  `json:"outcome"`
	Changed      []string `json:"changed"`
	ChangedPaths []string `json:"changed_paths,omitempty"`
}

// SnapshotKey is where the snapshot of unit is kept under root.
func SnapshotKey(root, unit string) string {
	return settings.SnapshotPath(filepath.Join(root, filepath.FromSlash(unit)))
}

// HandleEvent runs one invocation for ev: the delivered config is compared with the unit's
// snapshot, changes are reported and, on success, the config becomes the new snapshot.
func HandleEvent(ctx context.Context, deps Deps, ev Event) (Result, error) {
	if err := ev.Validate(); err != nil {
		return Result{Outcome: Aborted}, err
	}
	opts := []hookenv.InvocationOption{hookenv.WithUnit(ev.Unit, ev.Hook)}
	if ev.ID != "" {
		opts = append(opts, hookenv.WithID(ev.ID))
	}
	inv := hookenv.NewInvocation(hookenv.StaticSource{Raw: ev.Config}, deps.Store, SnapshotKey(deps.Root, ev.Unit), opts...)
	res := Result{Invocation: inv.ID, Outcome: Completed}

	err := Execute(ctx, inv, func(ctx context.Context, inv *hookenv.Invocation) error {
		cfg, err := inv.Config(ctx)
		if err != nil {
			return err
		}
		if cfg == nil {
			return types.Err(types.ErrInvalidEvent, nil, "config is not a JSON object")
		}
		res.Changed = cfg.ChangedKeys()
		for _, k := range res.Changed {
			inv.Logger().WithField("key", k).Info("Config changed")
		}
		for _, expr := range ev.Watch {
			changed, err := ChangedPath(cfg, expr)
			if err != nil {
				return types.Err(types.ErrInvalidEvent, err, "watch %q", expr)
			}
			if changed {
				res.ChangedPaths = append(res.ChangedPaths, expr)
			}
		}
		if err := ReportChanges(ctx, inv, deps.Publisher, deps.Target); err != nil {
			return err
		}
		if deps.Hook != nil {
			return deps.Hook(ctx, inv)
		}
		return nil
	})
	if err != nil {
		res.Outcome = Aborted
		return res, err
	}
	if len(res.Changed) == 0 {
		res.Outcome = Unchanged
	}
	return res, nil
}
