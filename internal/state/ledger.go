package state

import (
	"maps"

	"github.com/desertthunder/sptx/internal/models"
)

// SavedStatus is a ledger entry's displayed state.
type SavedStatus int

const (
	StatusUnknown SavedStatus = iota
	StatusSaved
	StatusUnsaved
	StatusPending
)

func (s SavedStatus) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusUnsaved:
		return "unsaved"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

func statusOf(saved bool) SavedStatus {
	if saved {
		return StatusSaved
	}
	return StatusUnsaved
}

// LedgerEntry is the saved/followed record for one entity.
//
// Confirmed is the last value the server reported (Saved, Unsaved or Unknown).
// While Status is Pending, Target is the optimistic value and Latest is the
// request ID allowed to resolve it.
type LedgerEntry struct {
	Status    SavedStatus
	Confirmed SavedStatus
	Target    bool
	Latest    string
}

// Ledger maps entities to their saved/followed state. Writes need a non-nil map;
// [NewState] and [Store] allocate it.
type Ledger map[models.EntityRef]LedgerEntry

// Status returns the displayed status, Unknown for entities never seen.
func (l Ledger) Status(e models.EntityRef) SavedStatus {
	return l[e].Status
}

// Entry returns the full record for e.
func (l Ledger) Entry(e models.EntityRef) (LedgerEntry, bool) {
	entry, ok := l[e]
	return entry, ok
}

// Saved reports the value to show: the optimistic target while pending,
// otherwise the confirmed value.
func (l Ledger) Saved(e models.EntityRef) bool {
	entry := l[e]
	if entry.Status == StatusPending {
		return entry.Target
	}
	return entry.Status == StatusSaved
}

// Begin marks e pending with the optimistic target save on behalf of requestID.
// Repeated calls while pending are accepted; the newest request wins the display.
func (l Ledger) Begin(e models.EntityRef, requestID string, save bool) {
	entry := l[e]
	entry.Status = StatusPending
	entry.Target = save
	entry.Latest = requestID
	l[e] = entry
}

// Confirm records the server's answer for requestID. The entry resolves only when
// requestID is the latest request for e; otherwise it stays pending for the newer one.
func (l Ledger) Confirm(e models.EntityRef, requestID string, saved bool) {
	entry := l[e]
	entry.Confirmed = statusOf(saved)
	if entry.Status != StatusPending || entry.Latest == requestID {
		entry.Status = entry.Confirmed
		entry.Latest = ""
	}
	l[e] = entry
}

// Rollback abandons requestID. The confirmed value is untouched, and if requestID
// is the latest request the entry returns to it exactly (Unknown stays Unknown).
func (l Ledger) Rollback(e models.EntityRef, requestID string) {
	entry, ok := l[e]
	if !ok || entry.Status != StatusPending || entry.Latest != requestID {
		return
	}
	entry.Status = entry.Confirmed
	entry.Latest = ""
	if entry.Status == StatusUnknown {
		delete(l, e)
		return
	}
	l[e] = entry
}

// Seed records a listing-derived confirmation without resolving a pending entry.
func (l Ledger) Seed(e models.EntityRef, saved bool) {
	entry := l[e]
	entry.Confirmed = statusOf(saved)
	if entry.Status != StatusPending {
		entry.Status = entry.Confirmed
	}
	l[e] = entry
}

// PendingCount returns the number of entries awaiting confirmation.
func (l Ledger) PendingCount() int {
	n := 0
	for _, entry := range l {
		if entry.Status == StatusPending {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	return maps.Clone(l)
}
