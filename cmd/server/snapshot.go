package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/server"
	"github.com/nicktill/tinyrec/pkg/snapshot"
)

// snapshotSummary is what "snapshot inspect" prints
type snapshotSummary struct {
	Version     int          `json:"version"`
	Size        string       `json:"size"`
	LogMessages int          `json:"log_messages"`
	LogCapacity int          `json:"log_capacity"`
	Days        []daySummary `json:"days"`
}

type daySummary struct {
	Date  string `json:"date"`
	Calls uint64 `json:"calls"`
	Cells int    `json:"cells"`
}

func newSnapshotCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Work with persisted snapshots",
	}

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of the current snapshot",
		Long:  "Opens the configured snapshot store and prints the snapshot summary as JSON. The server must not be running against the same data directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.SnapshotBackend == config.BackendMemory {
				return fmt.Errorf("the %s backend keeps nothing to inspect", config.BackendMemory)
			}

			store, err := server.InitializeSnapshotStore(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer store.Close()

			return inspectSnapshot(cmd.Context(), store, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(inspect)
	return cmd
}

func inspectSnapshot(ctx context.Context, store snapshot.Store, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTimeout)
	defer cancel()

	data, err := store.Load(ctx)
	if err != nil {
		return err
	}
	st, err := snapshot.Decode(data)
	if err != nil {
		return err
	}

	summary := snapshotSummary{
		Version:     st.Version,
		Size:        humanize.Bytes(uint64(len(data))),
		LogMessages: len(st.Logs.Messages),
		LogCapacity: st.Logs.Capacity,
		Days:        make([]daySummary, 0, len(st.Days)),
	}
	for _, d := range st.Days {
		ds := daySummary{Date: d.Key.String()}
		for _, calls := range d.CallCount {
			ds.Calls += calls
			if calls > 0 {
				ds.Cells++
			}
		}
		summary.Days = append(summary.Days, ds)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
