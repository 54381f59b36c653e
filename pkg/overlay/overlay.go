// Package overlay holds the graphics drawn over the camera preview and maps
// image coordinates onto the preview view.
package overlay

import (
	"sync"
	"time"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

// Drawable is a graphic that can render itself into a Shape.
type Drawable interface {
	facetrack.Graphic
	Draw(t Transform) Shape
}

// Transform maps image pixels onto view pixels.
type Transform struct {
	ViewWidth   int
	ViewHeight  int
	ImageWidth  int
	ImageHeight int
	Facing      facetrack.CameraFacing
}

func (t Transform) widthFactor() float64 {
	if t.ImageWidth == 0 {
		return 1
	}
	return float64(t.ViewWidth) / float64(t.ImageWidth)
}

func (t Transform) heightFactor() float64 {
	if t.ImageHeight == 0 {
		return 1
	}
	return float64(t.ViewHeight) / float64(t.ImageHeight)
}

// ScaleX scales a horizontal image distance to the view.
func (t Transform) ScaleX(x float64) float64 { return x * t.widthFactor() }

// ScaleY scales a vertical image distance to the view.
func (t Transform) ScaleY(y float64) float64 { return y * t.heightFactor() }

// TranslateX maps an image x coordinate to the view, mirrored for the front camera.
func (t Transform) TranslateX(x float64) float64 {
	if t.Facing == facetrack.FacingFront {
		return float64(t.ViewWidth) - t.ScaleX(x)
	}
	return t.ScaleX(x)
}

// TranslateY maps an image y coordinate to the view.
func (t Transform) TranslateY(y float64) float64 { return t.ScaleY(y) }

// Scene is a rendered snapshot of the overlay.
type Scene struct {
	ViewWidth   int       `json:"view_width"`
	ViewHeight  int       `json:"view_height"`
	ImageWidth  int       `json:"image_width"`
	ImageHeight int       `json:"image_height"`
	Facing      string    `json:"facing"`
	Shapes      []Shape   `json:"shapes"`
	Time        time.Time `json:"time"`
}

// Overlay keeps the attached graphics in insertion order.
// It implements facetrack.Overlay.
type Overlay struct {
	mu        sync.RWMutex
	graphics  []facetrack.Graphic
	transform Transform

	onInvalidate func(Scene)
}

// New creates an overlay for a view of the given size.
// Until SetCameraInfo is called the image is assumed to match the view.
func New(viewWidth, viewHeight int) *Overlay {
	return &Overlay{
		transform: Transform{
			ViewWidth:   viewWidth,
			ViewHeight:  viewHeight,
			ImageWidth:  viewWidth,
			ImageHeight: viewHeight,
		},
	}
}

// SetCameraInfo sets the size and facing of the images being analysed.
func (o *Overlay) SetCameraInfo(imageWidth, imageHeight int, facing facetrack.CameraFacing) {
	o.mu.Lock()
	o.transform.ImageWidth = imageWidth
	o.transform.ImageHeight = imageHeight
	o.transform.Facing = facing
	o.mu.Unlock()
}

// SetViewSize sets the size of the view the overlay is drawn on.
func (o *Overlay) SetViewSize(width, height int) {
	o.mu.Lock()
	o.transform.ViewWidth = width
	o.transform.ViewHeight = height
	o.mu.Unlock()
}

// OnInvalidate registers fn to receive a fresh Scene on every Invalidate.
func (o *Overlay) OnInvalidate(fn func(Scene)) {
	o.mu.Lock()
	o.onInvalidate = fn
	o.mu.Unlock()
}

// Add attaches g.
func (o *Overlay) Add(g facetrack.Graphic) {
	o.mu.Lock()
	o.graphics = append(o.graphics, g)
	o.mu.Unlock()
}

// Remove detaches g. Removing a graphic that is not attached does nothing.
func (o *Overlay) Remove(g facetrack.Graphic) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, cur := range o.graphics {
		if cur == g {
			o.graphics = append(o.graphics[:i], o.graphics[i+1:]...)
			return
		}
	}
}

// Clear detaches every graphic.
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.graphics = nil
	o.mu.Unlock()
}

// Len returns the number of attached graphics.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.graphics)
}

// Transform returns the current image-to-view mapping.
func (o *Overlay) Transform() Transform {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.transform
}

// Snapshot renders every drawable graphic.
func (o *Overlay) Snapshot() Scene {
	o.mu.RLock()
	t := o.transform
	graphics := make([]facetrack.Graphic, len(o.graphics))
	copy(graphics, o.graphics)
	o.mu.RUnlock()

	scene := Scene{
		ViewWidth:   t.ViewWidth,
		ViewHeight:  t.ViewHeight,
		ImageWidth:  t.ImageWidth,
		ImageHeight: t.ImageHeight,
		Facing:      t.Facing.String(),
		Shapes:      make([]Shape, 0, len(graphics)),
		Time:        time.Now(),
	}
	for _, g := range graphics {
		if d, ok := g.(Drawable); ok {
			scene.Shapes = append(scene.Shapes, d.Draw(t))
		}
	}
	return scene
}

// Refresh adopts the size and facing of an analysed frame, then
// invalidates. Devices may deliver a size other than the one requested,
// so the transform follows the frames rather than the capture settings.
func (o *Overlay) Refresh(meta facetrack.FrameMetadata) {
	if meta.Width > 0 && meta.Height > 0 {
		o.SetCameraInfo(meta.Width, meta.Height, meta.CameraFacing)
	}
	o.Invalidate()
}

// Invalidate renders a Scene and hands it to the OnInvalidate callback.
func (o *Overlay) Invalidate() {
	o.mu.RLock()
	fn := o.onInvalidate
	o.mu.RUnlock()

	if fn != nil {
		fn(o.Snapshot())
	}
}
