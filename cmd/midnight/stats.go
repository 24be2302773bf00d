package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/midnightlabs/midnight/internal/core/service"
	"github.com/midnightlabs/midnight/internal/infrastructure/local"
)

func addStats(root *cobra.Command) {
	o := &overrides{}
	var at string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard figures for the locally stored data",
		Example: `
midnight stats
midnight stats --at 2025-07-02
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), o)
			if err != nil {
				return err
			}
			now := time.Now()
			if at != "" {
				if now, err = time.ParseInLocation(service.DayKeyLayout, at, time.Local); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			data, ok, err := local.Open(filepath.Join(cfg.DataDir, "store")).LoadData()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "no local data yet")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(service.ComputeStats(data, now))
		},
	}
	o.bind(cmd)
	cmd.Flags().StringVar(&at, "at", "", "evaluate on this day (YYYY-MM-DD) instead of today")
	root.AddCommand(cmd)
}
