package sim

import (
	"cmp"
	"slices"
)

// Lane owns the vehicles currently assigned to one lane. After sort the
// vehicles are in non-decreasing position order; appends and interior
// inserts set the dirty flag instead of sorting eagerly.
type Lane struct {
	index    int
	vehicles []*Vehicle
	dirty    bool
}

func newLane(index, capacity int) *Lane {
	return &Lane{index: index, vehicles: make([]*Vehicle, 0, capacity)}
}

// Index returns the lane number; 0 is the rightmost lane.
func (l *Lane) Index() int { return l.index }

// Vehicles returns the lane's vehicles. The slice is owned by the lane
// and is only valid until the next Step.
func (l *Lane) Vehicles() []*Vehicle { return l.vehicles }

// Len returns the number of vehicles in the lane.
func (l *Lane) Len() int { return len(l.vehicles) }

// Dirty reports whether the lane needs a sort before it is sensed.
func (l *Lane) Dirty() bool { return l.dirty }

func (l *Lane) markDirty() { l.dirty = true }

// leading returns the frontmost vehicle, or nil for an empty lane.
func (l *Lane) leading() *Vehicle {
	if len(l.vehicles) == 0 {
		return nil
	}
	return l.vehicles[len(l.vehicles)-1]
}

// trailing returns the rearmost vehicle, or nil for an empty lane.
func (l *Lane) trailing() *Vehicle {
	if len(l.vehicles) == 0 {
		return nil
	}
	return l.vehicles[0]
}

func (l *Lane) removeLeading() *Vehicle {
	v := l.leading()
	if v != nil {
		l.vehicles[len(l.vehicles)-1] = nil
		l.vehicles = l.vehicles[:len(l.vehicles)-1]
	}
	return v
}

func (l *Lane) removeTrailing() *Vehicle {
	v := l.trailing()
	if v != nil {
		l.vehicles = slices.Delete(l.vehicles, 0, 1)
	}
	return v
}

// append adds v at the front end. The caller decides whether order held.
func (l *Lane) append(v *Vehicle) {
	l.vehicles = append(l.vehicles, v)
}

// prepend adds v at the rear end.
func (l *Lane) prepend(v *Vehicle) {
	l.vehicles = slices.Insert(l.vehicles, 0, v)
}

// insertSorted places v at its position-ordered index. Only meaningful on
// a sorted lane; the lane is still marked dirty so the next tick re-sorts.
func (l *Lane) insertSorted(v *Vehicle) {
	i, _ := slices.BinarySearchFunc(l.vehicles, v.x, func(e *Vehicle, x float64) int {
		return cmp.Compare(e.x, x)
	})
	l.vehicles = slices.Insert(l.vehicles, i, v)
	l.dirty = true
}

// remove deletes v from the lane and reports whether it was present.
func (l *Lane) remove(v *Vehicle) bool {
	i := slices.Index(l.vehicles, v)
	if i < 0 {
		return false
	}
	l.vehicles = slices.Delete(l.vehicles, i, i+1)
	return true
}

// sort restores position order and clears the dirty flag.
func (l *Lane) sort() {
	slices.SortStableFunc(l.vehicles, func(a, b *Vehicle) int {
		return cmp.Compare(a.x, b.x)
	})
	l.dirty = false
}

// isSorted reports whether positions are non-decreasing.
func (l *Lane) isSorted() bool {
	return slices.IsSortedFunc(l.vehicles, func(a, b *Vehicle) int {
		return cmp.Compare(a.x, b.x)
	})
}

// neighboursAt returns the vehicles immediately behind and ahead of
// position x in a sorted lane, either of which may be nil.
func (l *Lane) neighboursAt(x float64) (back, front *Vehicle) {
	i, _ := slices.BinarySearchFunc(l.vehicles, x, func(e *Vehicle, x float64) int {
		return cmp.Compare(e.x, x)
	})
	if i > 0 {
		back = l.vehicles[i-1]
	}
	if i < len(l.vehicles) {
		front = l.vehicles[i]
	}
	return back, front
}
