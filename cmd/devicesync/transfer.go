package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/progress"
	"github.com/Ning0612/Devicesync/internal/service"
)

// transferFlags are shared by put and get
type transferFlags struct {
	noVerify  bool
	overwrite bool
	noCleanup bool
	force     string
	deviceFS  string
	blockSize int
	keepalive time.Duration
	quiet     bool
}

func (f *transferFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.noVerify, "no-verify", false, "skip hash verification before and after the copy")
	fl.BoolVar(&f.overwrite, "overwrite", false, "replace an existing destination with different content")
	fl.BoolVar(&f.noCleanup, "no-cleanup", false, "leave applied device configuration in place")
	fl.StringVar(&f.force, "force", "", "capability policy (skip|check|apply)")
	fl.StringVar(&f.deviceFS, "device-fs", "", "device filesystem root, e.g. flash:/ (default autodetect)")
	fl.IntVar(&f.blockSize, "block-size", 0, "copy block size in bytes")
	fl.DurationVar(&f.keepalive, "keepalive", 0, "admin-channel keep-alive interval (0 uses the configured default)")
	fl.BoolVar(&f.quiet, "quiet", false, "suppress progress output")
}

// options merges the configured defaults with flag overrides
func (f *transferFlags) options(st *rootState) (domain.TransferOptions, error) {
	opts := st.cfg.Transfer.Options()

	if f.noVerify {
		opts.VerifyHash = false
	}
	if f.overwrite {
		opts.Overwrite = true
	}
	if f.noCleanup {
		opts.Cleanup = false
	}
	if f.force != "" {
		policy, err := domain.ParseForcePolicy(f.force)
		if err != nil {
			return opts, err
		}
		opts.ForcePolicy = policy
	}
	if f.deviceFS != "" {
		opts.DeviceFS = f.deviceFS
	}
	if f.blockSize > 0 {
		opts.BlockSize = f.blockSize
	}
	if f.keepalive > 0 {
		opts.KeepaliveInterval = f.keepalive
	}

	return opts, nil
}

// consoleReporter prints progress lines to stderr
func consoleReporter() progress.Reporter {
	return progress.NewCallbackReporter(func(update progress.Update) {
		switch update.Type {
		case progress.UpdateStart:
			fmt.Fprintf(os.Stderr, "%s (%s)\n", update.Path, progress.FormatBytes(update.BytesTotal))
		case progress.UpdateProgress:
			fmt.Fprintf(os.Stderr, "\r%s %s", progress.FormatProgress(update.BytesCopied, update.BytesTotal, 40),
				progress.FormatSpeed(update.BytesPerSecond))
		case progress.UpdateComplete:
			fmt.Fprintf(os.Stderr, "\r%s done\n", progress.FormatProgress(update.BytesTotal, update.BytesTotal, 40))
		case progress.UpdateError:
			fmt.Fprintf(os.Stderr, "\rtransfer failed: %v\n", update.Err)
		}
	})
}

// runTransfer executes one transfer and reports the outcome. A transfer that
// did not end verified (or, with verification off, did not complete) exits
// non-zero.
func runTransfer(cmd *cobra.Command, st *rootState, flags *transferFlags,
	direction domain.Direction, device, src, dst string) error {

	opts, err := flags.options(st)
	if err != nil {
		return err
	}

	svc, err := service.NewTransferService(st.cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !flags.quiet {
		svc.SetProgressReporter(consoleReporter())
	}

	outcome, err := svc.Run(cmd.Context(), device, direction, src, dst, opts)
	if err != nil {
		return err
	}

	fmt.Printf("exists=%t transferred=%t verified=%t\n",
		outcome.Exists, outcome.Transferred, outcome.Verified)

	if opts.VerifyHash && !outcome.Verified {
		return fmt.Errorf("transfer did not verify")
	}
	if !opts.VerifyHash && !outcome.Transferred {
		return fmt.Errorf("transfer did not run")
	}
	return nil
}

func newPutCmd(st *rootState) *cobra.Command {
	flags := &transferFlags{}

	cmd := &cobra.Command{
		Use:   "put <device> <local-file> [remote-name]",
		Short: "Copy a local file to a device",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := ""
			if len(args) == 3 {
				dst = args[2]
			}
			return runTransfer(cmd, st, flags, domain.DirectionPut, args[0], args[1], dst)
		},
	}
	flags.register(cmd)
	return cmd
}

func newGetCmd(st *rootState) *cobra.Command {
	flags := &transferFlags{}

	cmd := &cobra.Command{
		Use:   "get <device> <remote-file> [local-name]",
		Short: "Copy a file from a device",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := ""
			if len(args) == 3 {
				dst = args[2]
			}
			return runTransfer(cmd, st, flags, domain.DirectionGet, args[0], args[1], dst)
		},
	}
	flags.register(cmd)
	return cmd
}
