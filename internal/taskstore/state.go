package taskstore

import "fmt"

// Op identifies a kind of store operation.
type Op int

// Store operations. Toggles report under OpUpdate and bulk deletes under OpRemove.
const (
	OpRefresh Op = iota
	OpAdd
	OpUpdate
	OpRemove
)

var opNames = [...]string{"refresh", "add", "update", "remove"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// OpState tracks the most recent run of an operation:
// idle → pending → settled | failed.
type OpState int

// Operation states
const (
	StateIdle OpState = iota
	StatePending
	StateSettled
	StateFailed
)

func (s OpState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("OpState(%d)", int(s))
}

type opStatus struct {
	state   OpState
	lastErr error
}
