package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Devicesync/internal/config"
	"github.com/Ning0612/Devicesync/internal/logger"
)

var version = "dev"

// rootState carries what PersistentPreRunE resolves for the subcommands
type rootState struct {
	cfgPath   string
	logLevel  string
	logFormat string
	logFile   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	st := &rootState{}

	cmd := &cobra.Command{
		Use:   "devicesync",
		Short: "Sync a file between the local filesystem and a network device",
		Long: `devicesync copies one file to or from a network device over SSH,
using hash verification to skip copies that would change nothing and to
confirm the ones that ran.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.cfgPath)
			if err != nil {
				return err
			}
			st.cfg = cfg

			logCfg := logger.Config{
				Level:  logger.ParseLevel(st.logLevel),
				Format: logger.ParseFormat(st.logFormat),
				Outputs: []logger.OutputConfig{
					{Type: logger.OutputStderr},
				},
			}
			if st.logFile != "" {
				logCfg.Outputs = append(logCfg.Outputs, logger.OutputConfig{Type: logger.OutputFile})
				logCfg.File = logger.FileConfig{
					Enabled:    true,
					Path:       config.ExpandPath(st.logFile),
					MaxSizeMB:  50,
					MaxAgeDays: 14,
					MaxBackups: 5,
					Compress:   true,
				}
			}
			if err := logger.Init(logCfg); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Shutdown()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&st.cfgPath, "config", "c", "", "config file (default searches standard locations)")
	pf.StringVar(&st.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	pf.StringVar(&st.logFormat, "log-format", "text", "log format (text|json)")
	pf.StringVar(&st.logFile, "log-file", "", "also log to this file, with rotation")

	cmd.AddCommand(
		newPutCmd(st),
		newGetCmd(st),
		newWatchCmd(st),
		newHistoryCmd(st),
	)

	return cmd
}
