package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Devicesync/internal/service"
	"github.com/Ning0612/Devicesync/internal/state"
)

func newHistoryCmd(st *rootState) *cobra.Command {
	var (
		device string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled transfers, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service.NewTransferService(st.cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			records, err := svc.History(device, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no transfers recorded")
				return nil
			}

			printHistory(records)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&device, "device", "", "only show transfers for this device")
	fl.IntVar(&limit, "limit", 20, "maximum number of records")

	return cmd
}

func printHistory(records []state.TransferRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDEVICE\tDIR\tSOURCE\tDESTINATION\tRESULT")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartTime.Local().Format("2006-01-02 15:04:05"),
			r.Device, r.Direction, r.Source, r.Destination, historyResult(r))
	}
	w.Flush()
}

func historyResult(r state.TransferRecord) string {
	switch {
	case r.Error != "":
		return "error: " + r.Error
	case r.Verified:
		return "verified"
	case r.Transferred:
		return "transferred"
	case r.Exists:
		return "up to date"
	default:
		return "skipped"
	}
}
