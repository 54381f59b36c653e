package detection

import "image"

type track struct {
	id  int
	box image.Rectangle
}

// IDAssigner gives detections tracking IDs that stay stable while a face
// keeps overlapping its box from the previous frame.
//
// Only the previous frame is remembered, so a face missed for a single frame
// comes back with a fresh ID.
type IDAssigner struct {
	threshold float64
	nextID    int
	prev      []track
}

// NewIDAssigner creates an assigner that keeps an ID when IoU exceeds threshold.
func NewIDAssigner(threshold float64) *IDAssigner {
	return &IDAssigner{threshold: threshold}
}

// Assign returns one tracking ID per box, in order.
// Each previous track is matched at most once, greedily by best IoU.
func (a *IDAssigner) Assign(boxes []image.Rectangle) []int {
	ids := make([]int, len(boxes))
	used := make([]bool, len(a.prev))
	next := make([]track, 0, len(boxes))

	for i, box := range boxes {
		best, bestIoU := -1, a.threshold
		for j, tr := range a.prev {
			if used[j] {
				continue
			}
			if v := IoU(box, tr.box); v > bestIoU {
				best, bestIoU = j, v
			}
		}

		if best >= 0 {
			used[best] = true
			ids[i] = a.prev[best].id
		} else {
			a.nextID++
			ids[i] = a.nextID
		}
		next = append(next, track{id: ids[i], box: box})
	}

	a.prev = next
	return ids
}

// Reset forgets all tracks. IDs keep increasing after a reset.
func (a *IDAssigner) Reset() {
	a.prev = nil
}

// IoU returns the intersection over union of two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
