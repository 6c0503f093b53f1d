package privilege

import (
	"sort"

	"github.com/jet/privy/tokenbuf"
)

// Record is one privilege held by a token
type Record struct {
	Name       string
	Attributes tokenbuf.Attributes
}

// Enabled reports whether the privilege is currently enabled
func (r Record) Enabled() bool {
	return r.Attributes.Has(tokenbuf.Enabled)
}

// EnabledByDefault reports whether the privilege is enabled when the token is created
func (r Record) EnabledByDefault() bool {
	return r.Attributes.Has(tokenbuf.EnabledByDefault)
}

// Removed reports whether the privilege was removed from the token
func (r Record) Removed() bool {
	return r.Attributes.Has(tokenbuf.Removed)
}

// Intent is the change requested for one privilege
type Intent int

const (
	Enable Intent = iota + 1
	Disable
	Remove
)

func (i Intent) String() string {
	switch i {
	case Enable:
		return "enable"
	case Disable:
		return "disable"
	case Remove:
		return "remove"
	}
	return "unknown"
}

func (i Intent) attributes() (tokenbuf.Attributes, bool) {
	switch i {
	case Enable:
		return tokenbuf.Enabled, true
	case Disable:
		return 0, true
	case Remove:
		return tokenbuf.Removed, true
	}
	return 0, false
}

// DesiredState maps privilege names to the change wanted for each.
// Names that are absent are left alone.
type DesiredState map[string]Intent

// Names returns the names of the state, sorted
func (s DesiredState) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot maps each privilege a change touched to whether it was enabled before
type Snapshot map[string]bool

// Undo returns the state that puts the snapshotted privileges back.
// A privilege that was removed cannot be restored; applying Undo for it
// reports NotAllAssigned.
func (s Snapshot) Undo() DesiredState {
	state := make(DesiredState, len(s))
	for name, enabled := range s {
		if enabled {
			state[name] = Enable
		} else {
			state[name] = Disable
		}
	}
	return state
}

// Change is the outcome of one adjustment of a token
type Change struct {
	// Previous holds the prior state of every privilege the system changed
	Previous Snapshot

	// Failed holds the names that could not be resolved; they were left out
	// of the adjustment
	Failed map[string]error

	// NotAllAssigned is set when the token did not hold some of the
	// requested privileges, so they were not changed
	NotAllAssigned bool
}

func newChange() *Change {
	return &Change{
		Previous: make(Snapshot),
		Failed:   make(map[string]error),
	}
}
