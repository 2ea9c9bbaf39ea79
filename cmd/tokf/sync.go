package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpecan/tokf-sub002/internal/config"
	"github.com/mpecan/tokf-sub002/internal/hashutil"
	"github.com/mpecan/tokf-sub002/internal/machine"
	"github.com/mpecan/tokf-sub002/internal/store"
	"github.com/mpecan/tokf-sub002/internal/syncclient"
	"github.com/mpecan/tokf-sub002/internal/tokfapp"
)

func syncCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upload pending usage events to the configured sync endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			s, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("sync: open store: %w", err)
			}
			defer s.Close()

			if status {
				return runSyncStatus(s)
			}
			return runSync(s, cfg)
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print last-sync timestamp and pending count instead of syncing")
	return cmd
}

func runSyncStatus(s *store.Store) error {
	ctx := context.Background()
	pending, err := s.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("sync: pending count: %w", err)
	}
	lastAt, err := s.LastSyncedAt(ctx)
	if err != nil {
		return fmt.Errorf("sync: read last-sync timestamp: %w", err)
	}
	if lastAt.IsZero() {
		fmt.Println("last sync: never")
	} else {
		fmt.Printf("last sync: %s\n", lastAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	fmt.Printf("pending events: %d\n", pending)
	return nil
}

func runSync(s *store.Store, cfg config.Config) error {
	ctx := context.Background()

	table, _, err := tokfapp.DiscoverFilters(tokfapp.ScopeAll)
	if err != nil {
		return fmt.Errorf("sync: discover filters: %w", err)
	}
	known := make(map[string]string, len(table))
	for name, rf := range table {
		hash, err := hashutil.Canonical(rf.Config)
		if err != nil {
			continue
		}
		known[name] = hash
	}
	if unrecognized, err := s.BackfillFilterHashes(ctx, known); err == nil && len(unrecognized) > 0 {
		fmt.Printf("sync: %d event(s) reference unrecognized filters: %v\n", len(unrecognized), unrecognized)
	}

	m, err := machine.LoadOrRegister(hostname())
	if err != nil {
		return fmt.Errorf("sync: machine registration: %w", err)
	}

	lastID, err := s.LastSyncedID(ctx)
	if err != nil {
		return fmt.Errorf("sync: read cursor: %w", err)
	}

	client := syncclient.New(cfg.SyncBaseURL, cfg.SyncAPIKey)
	total := 0
	for {
		events, err := s.PendingEvents(ctx, syncclient.BatchSize)
		if err != nil {
			return fmt.Errorf("sync: load pending events: %w", err)
		}
		if len(events) == 0 {
			break
		}

		req := syncclient.BuildRequest(m.MachineID, lastID, events)
		resp, err := client.Sync(ctx, req)
		if err != nil {
			return classifySyncErr(err)
		}

		if resp.Cursor > lastID {
			lastID = resp.Cursor
		}
		if err := s.SetCursor(ctx, lastID, config.Now()); err != nil {
			return fmt.Errorf("sync: advance cursor: %w", err)
		}
		total += resp.Accepted
		if len(events) < syncclient.BatchSize {
			break
		}
	}

	fmt.Printf("synced %d event(s), cursor now at %d\n", total, lastID)
	return nil
}

func classifySyncErr(err error) error {
	switch {
	case errors.Is(err, syncclient.ErrAuthError):
		return fmt.Errorf("sync: authentication required, run the login flow again: %w", err)
	case errors.Is(err, syncclient.ErrRateLimited):
		return fmt.Errorf("sync: rate limited, try again later: %w", err)
	case errors.Is(err, syncclient.ErrNetworkError):
		return fmt.Errorf("sync: transient network error, safe to retry: %w", err)
	default:
		return err
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
