// Package status defines the order lifecycle shared by the API server and
// its clients: the open/closed tab status and the kitchen preparation stages.
package status

// Order is the tab status of an order. Closed is terminal; there is no
// reopen transition.
type Order string

const (
	Open   Order = "open"
	Closed Order = "closed"
)

func (s Order) Valid() bool {
	return s == Open || s == Closed
}

// Kitchen is the preparation stage of an open order. Orders created before
// the kitchen board existed carry an empty stage and are treated as Waiting.
type Kitchen string

const (
	Waiting   Kitchen = "Waiting"
	Preparing Kitchen = "Preparing"
	Ready     Kitchen = "Ready"
	Served    Kitchen = "Served"
)

// stages in progression order.
var stages = []Kitchen{Waiting, Preparing, Ready, Served}

func (k Kitchen) Valid() bool {
	for _, s := range stages {
		if k == s {
			return true
		}
	}
	return false
}

// normalize maps the legacy empty stage to Waiting.
func (k Kitchen) normalize() Kitchen {
	if k == "" {
		return Waiting
	}
	return k
}

func (k Kitchen) index() int {
	n := k.normalize()
	for i, s := range stages {
		if n == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage. ok is false once the order is Served.
func (k Kitchen) Next() (next Kitchen, ok bool) {
	i := k.index()
	if i < 0 || i == len(stages)-1 {
		return k, false
	}
	return stages[i+1], true
}

// CanAdvance reports whether moving from one stage to another is a legal
// kitchen progression. Stages only move forward, one step at a time.
func CanAdvance(from, to Kitchen) bool {
	next, ok := from.Next()
	return ok && to == next
}
