package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Devicesync/internal/daemon"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
	"github.com/Ning0612/Devicesync/internal/service"
)

func newWatchCmd(st *rootState) *cobra.Command {
	flags := &transferFlags{}
	var (
		interval time.Duration
		devices  []string
		pidPath  string
		getMode  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <local-file> [remote-name]",
		Short: "Re-run a transfer on an interval so devices converge",
		Long: `watch repeats one transfer against the configured devices on a fixed
interval. Because a transfer whose source and destination already match is a
no-op, the loop only copies when a device has drifted.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(st)
			if err != nil {
				return err
			}

			direction := domain.DirectionPut
			if getMode {
				direction = domain.DirectionGet
			}
			dst := ""
			if len(args) == 2 {
				dst = args[1]
			}

			if interval > 0 {
				st.cfg.Watch.Interval = interval
			}

			if pidPath == "" {
				pidPath, err = daemon.DefaultPIDPath()
				if err != nil {
					return err
				}
			}
			pidFile := daemon.NewPIDFile(pidPath)
			if err := pidFile.Write(); err != nil {
				return err
			}
			defer pidFile.Remove()

			transfers, err := service.NewTransferService(st.cfg)
			if err != nil {
				return err
			}
			defer transfers.Close()

			watcher, err := service.NewWatchService(st.cfg, transfers, direction, args[0], dst, opts)
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := watcher.Start(cmd.Context(), devices); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "watching every %s, Ctrl-C to stop\n", st.cfg.Watch.Interval)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				logger.Get().Info("signal received, stopping watcher", "signal", sig.String())
			case <-cmd.Context().Done():
			}

			return watcher.Stop()
		},
	}

	flags.register(cmd)
	fl := cmd.Flags()
	fl.DurationVar(&interval, "interval", 0, "run interval (overrides the configured value)")
	fl.StringSliceVar(&devices, "device", nil, "device to watch (repeatable; default all configured)")
	fl.StringVar(&pidPath, "pid-file", "", "PID file path (default ~/.config/devicesync/watch.pid)")
	fl.BoolVar(&getMode, "get", false, "pull from the device instead of pushing to it")

	return cmd
}
