package storage

import "sync"

// LockTable implements spec §5's shared-resource policy: a per-event
// advisory lock for manual edits (point edits on the same event
// serialize; different events proceed in parallel) and a per-org lock
// for the solver publish step. It is grounded on the teacher's
// filters.Engine coarse sync.RWMutex, generalized from one lock guarding
// everything to one lock per key, since spec.md §5 requires per-event
// (not global) serialization.
type LockTable struct {
	mu    sync.Mutex
	byKey map[string]*sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{byKey: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use. The
// returned unlock func must be called exactly once.
func (t *LockTable) Lock(key string) (unlock func()) {
	t.mu.Lock()
	m, ok := t.byKey[key]
	if !ok {
		m = &sync.Mutex{}
		t.byKey[key] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// EventLock and OrgPublishLock are thin, semantically-named wrappers
// over one LockTable each so callers can't accidentally take an event
// lock where an org-publish lock was intended.
type EventLock struct{ table *LockTable }

func NewEventLock() *EventLock { return &EventLock{table: NewLockTable()} }

func (l *EventLock) Lock(eventID string) (unlock func()) { return l.table.Lock(eventID) }

type OrgPublishLock struct{ table *LockTable }

func NewOrgPublishLock() *OrgPublishLock { return &OrgPublishLock{table: NewLockTable()} }

func (l *OrgPublishLock) Lock(orgID string) (unlock func()) { return l.table.Lock(orgID) }

// PersonLock guards calendar-token mutations, which spec §5 calls
// "write-rare; mutations take a short per-person lock".
type PersonLock struct{ table *LockTable }

func NewPersonLock() *PersonLock { return &PersonLock{table: NewLockTable()} }

func (l *PersonLock) Lock(personID string) (unlock func()) { return l.table.Lock(personID) }
