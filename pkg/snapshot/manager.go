// Package snapshot coordinates state rollback across components so a failed
// multi-component operation leaves no trace.
package snapshot

// Snapshotter is implemented by components that support rollback.
type Snapshotter interface {
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// Frame is a set of component snapshots captured together.
type Frame struct {
	parts []Snapshotter
	ids   []int
}

// Capture takes a snapshot of every given component.
func Capture(parts ...Snapshotter) *Frame {
	f := &Frame{
		parts: parts,
		ids:   make([]int, len(parts)),
	}
	for i, p := range parts {
		f.ids[i] = p.Snapshot()
	}
	return f
}

// Revert restores every component to its captured snapshot.
func (f *Frame) Revert() {
	for i, p := range f.parts {
		p.RevertToSnapshot(f.ids[i])
	}
}

// Discard drops the snapshots without reverting.
func (f *Frame) Discard() {
	for i, p := range f.parts {
		p.DiscardSnapshot(f.ids[i])
	}
}
