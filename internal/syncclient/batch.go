package syncclient

import (
	"time"

	"github.com/mpecan/tokf-sub002/internal/store"
)

// BatchSize caps how many pending events one sync call uploads; spec §6
// only requires ascending-id batching, not a specific size, so this picks
// a CLI-invocation-friendly default.
const BatchSize = 500

// BuildRequest converts a page of pending usage events (already in
// ascending id order, as returned by store.Store.PendingEvents) into the
// wire request shape. lastSyncedID is echoed back so the server can detect
// a stale client resuming from an older cursor than it remembers.
func BuildRequest(machineID string, lastSyncedID int64, events []store.UsageEvent) SyncRequest {
	wire := make([]SyncEvent, 0, len(events))
	for _, e := range events {
		se := SyncEvent{
			ID:           e.ID,
			InputTokens:  e.InputTokensEst,
			OutputTokens: e.OutputTokensEst,
			CommandCount: 1,
			RecordedAt:   e.RecordedAt.UTC().Format(time.RFC3339),
		}
		if e.FilterName != nil {
			se.FilterName = *e.FilterName
		}
		if e.FilterHash != nil {
			se.FilterHash = *e.FilterHash
		}
		wire = append(wire, se)
	}
	return SyncRequest{MachineID: machineID, LastEventID: lastSyncedID, Events: wire}
}
