package main

import (
	"context"
	"fmt"
	"io"

	"hookstate/internal/api"
	"hookstate/internal/backends"
	"hookstate/internal/flow"
	"hookstate/internal/hookenv"
	"hookstate/internal/hooktool"
	"hookstate/internal/ports"
	"hookstate/internal/pub"
	"hookstate/internal/settings"
	"hookstate/internal/types"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// env is everything a command needs, resolved once per process.
type env struct {
	settings  settings.Settings
	store     ports.SnapshotStore
	publisher ports.Publisher
	tools     *hooktool.Tools
}

func newRootCmd() *cobra.Command {
	e := &env{tools: hooktool.New()}
	var jujuLog bool

	rootCmd := &cobra.Command{
		Use:           "hookstate",
		Short:         "Track charm configuration changes between hook invocations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			e.settings = settings.FromEnv()
			log.SetLevel(e.settings.LogLevel)
			if jujuLog {
				log.AddHook(hooktool.NewLogHook(e.tools, log.InfoLevel))
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVar(&jujuLog, "juju-log", false, "Forward log entries to juju-log")

	rootCmd.AddCommand(e.newRunCmd())
	rootCmd.AddCommand(e.newChangedCmd())
	rootCmd.AddCommand(e.newServeCmd())
	rootCmd.AddCommand(e.newStatusCmd())
	return rootCmd
}

func (e *env) openStore(ctx context.Context, withPublisher bool) error {
	store, err := backends.SnapshotBackendFromEnv()
	if err != nil {
		return err
	}
	e.store = store
	if !withPublisher {
		return nil
	}
	p, err := pub.FromEnv(ctx, e.settings.Publisher)
	if err != nil {
		return err
	}
	e.publisher = p
	return nil
}

// close releases connections held by the store and publisher.
func (e *env) close() {
	if c, ok := e.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("Failed to close snapshot store")
		}
	}
	if c, ok := e.publisher.(interface{ Close() }); ok {
		c.Close()
	}
}

func (e *env) invocation() (*hookenv.Invocation, error) {
	if e.settings.CharmDir == "" {
		return nil, types.Err(types.ErrNotFound, nil, "%s is not set", settings.CharmDirKey)
	}
	return hookenv.NewInvocation(e.tools, e.store, e.settings.SnapshotPath(),
		hookenv.WithUnit(e.settings.UnitName, e.settings.HookName)), nil
}

func (e *env) newRunCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log and report configuration changes, then save the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := e.openStore(ctx, true); err != nil {
				return err
			}
			defer e.close()
			inv, err := e.invocation()
			if err != nil {
				return err
			}
			return flow.Execute(ctx, inv, func(ctx context.Context, inv *hookenv.Invocation) error {
				cfg, err := inv.Config(ctx)
				if err != nil {
					return err
				}
				if cfg == nil {
					inv.Logger().Warn("No configuration available")
					return nil
				}
				for _, c := range cfg.Changes() {
					inv.Logger().WithFields(log.Fields{
						"key":      c.Key,
						"previous": c.Previous,
						"current":  c.Current,
					}).Info("Config changed")
				}
				if err := flow.ReportChanges(ctx, inv, e.publisher, e.settings.ChangesTarget); err != nil {
					return err
				}
				if status == "" {
					return nil
				}
				_, err = e.tools.StatusSet(ctx, types.StateActive, status)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Set the workload status to active with this message on success")
	return cmd
}

func (e *env) newChangedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changed KEY...",
		Short: "Print whether each key changed since the previous invocation; nothing is saved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.openStore(ctx, false); err != nil {
				return err
			}
			defer e.close()
			inv, err := e.invocation()
			if err != nil {
				return err
			}
			cfg, err := inv.Config(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range args {
				changed := true
				if cfg != nil {
					changed = cfg.Changed(k)
				}
				_, _ = fmt.Fprintf(out, "%s: %t\n", k, changed)
			}
			return nil
		},
	}
}

func (e *env) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /hook, running one invocation per request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := e.openStore(ctx, true); err != nil {
				return err
			}
			defer e.close()
			stop, done := api.RunServerInterruptible(e.settings.HTTPPort, flow.Deps{
				Root:      e.settings.CharmDir,
				Store:     e.store,
				Publisher: e.publisher,
				Target:    e.settings.ChangesTarget,
			})
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				close(stop)
				return <-done
			}
		},
	}
}

func (e *env) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [STATE MESSAGE]",
		Short: "Print the workload status, or set it when STATE and MESSAGE are given",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				st, err := e.tools.StatusGet(ctx)
				if err != nil {
					return err
				}
				return printStatus(out, st)
			}
			msg := ""
			if len(args) == 2 {
				msg = args[1]
			}
			ok, err := e.tools.StatusSet(ctx, types.WorkloadState(args[0]), msg)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("status-set unavailable; message logged instead")
			}
			return nil
		},
	}
}

func printStatus(w io.Writer, st types.Status) error {
	_, err := fmt.Fprintln(w, st.String())
	return err
}
