package facetrack

import (
	"sort"
	"sync"
)

// Graphic is the on-screen representation of one tracked face.
type Graphic interface {
	// UpdatePose refreshes the graphic from the latest detection of its face.
	UpdatePose(face DetectedFace, facing CameraFacing)
}

// Overlay owns the graphics currently drawn on screen.
type Overlay interface {
	Add(g Graphic)
	Remove(g Graphic)
}

// GraphicFactory builds a new graphic for an overlay.
type GraphicFactory func(o Overlay) Graphic

// TrackedFace pairs the last detection of a face with its graphic.
type TrackedFace struct {
	Face    DetectedFace
	Graphic Graphic
}

// Tracker reconciles per-frame detections with the faces on the overlay.
//
// For every tracking ID in the registry exactly one graphic is attached to
// the overlay, and the registry holds only IDs from the most recently
// reconciled batch.
type Tracker struct {
	overlay    Overlay
	newGraphic GraphicFactory

	mu    sync.RWMutex
	faces map[int]*TrackedFace
}

// NewTracker creates a tracker drawing onto overlay with graphics from newGraphic.
func NewTracker(overlay Overlay, newGraphic GraphicFactory) *Tracker {
	return &Tracker{
		overlay:    overlay,
		newGraphic: newGraphic,
		faces:      make(map[int]*TrackedFace),
	}
}

// Reconcile updates the tracked faces to match batch, the complete set of
// faces detected in one frame.
//
// Faces whose ID is absent from batch are removed from the overlay first.
// Then every face in batch either gets a new graphic (first sighting) or
// reuses its existing one, and the graphic's pose is updated. Duplicate IDs
// in one batch share a graphic and the last one wins.
func (t *Tracker) Reconcile(batch []DetectedFace, facing CameraFacing) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(batch)

	for _, face := range batch {
		entry, ok := t.faces[face.TrackingID]
		if !ok {
			g := t.newGraphic(t.overlay)
			t.overlay.Add(g)
			entry = &TrackedFace{Graphic: g}
			t.faces[face.TrackingID] = entry
		}
		entry.Face = face
		entry.Graphic.UpdatePose(face, facing)
	}
}

// prune drops every tracked face not present in batch. Caller holds t.mu.
func (t *Tracker) prune(batch []DetectedFace) {
	present := make(map[int]struct{}, len(batch))
	for _, face := range batch {
		present[face.TrackingID] = struct{}{}
	}

	var gone []int
	for id := range t.faces {
		if _, ok := present[id]; !ok {
			gone = append(gone, id)
		}
	}

	for _, id := range gone {
		t.overlay.Remove(t.faces[id].Graphic)
		delete(t.faces, id)
	}
}

// Clear removes every tracked face and its graphic.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(nil)
}

// Len returns the number of tracked faces.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.faces)
}

// IDs returns the tracked IDs in ascending order.
func (t *Tracker) IDs() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int, 0, len(t.faces))
	for id := range t.faces {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Lookup returns a copy of the tracked face for id.
func (t *Tracker) Lookup(id int) (TrackedFace, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.faces[id]
	if !ok {
		return TrackedFace{}, false
	}
	return *entry, true
}

// Snapshot returns copies of all tracked faces ordered by ID.
func (t *Tracker) Snapshot() []TrackedFace {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TrackedFace, 0, len(t.faces))
	for _, entry := range t.faces {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Face.TrackingID < out[j].Face.TrackingID
	})
	return out
}
