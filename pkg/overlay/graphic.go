package overlay

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

// Drawing constants, in view pixels.
const (
	FacePositionRadius = 10.0
	IDTextSize         = 40.0
	IDYOffset          = 50.0
	IDXOffset          = -50.0
	BoxStrokeWidth     = 5.0
)

// Palette is cycled through as graphics are created.
var Palette = []string{"#0000ff", "#00ffff", "#00ff00", "#ff00ff", "#ff0000", "#ffffff", "#ffff00"}

var nextColor atomic.Uint32

// PointF is a point in view pixels.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned rectangle in view pixels.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Label is a line of text anchored at a view position.
type Label struct {
	Text string `json:"text"`
	At   PointF `json:"at"`
}

// Mark is a landmark position in view pixels.
type Mark struct {
	Type string `json:"type"`
	At   PointF `json:"at"`
}

// Shape is the rendering of one face graphic.
type Shape struct {
	ID          string  `json:"id"`
	TrackingID  int     `json:"tracking_id"`
	Color       string  `json:"color"`
	Center      PointF  `json:"center"`
	Radius      float64 `json:"radius"`
	Box         Box     `json:"box"`
	StrokeWidth float64 `json:"stroke_width"`
	TextSize    float64 `json:"text_size"`
	Labels      []Label `json:"labels"`
	Landmarks   []Mark  `json:"landmarks,omitempty"`
}

// FaceGraphic draws one tracked face: a dot at its center, its bounding box,
// its ID, classification probabilities when known, and its landmarks.
type FaceGraphic struct {
	id    string
	color string

	mu      sync.RWMutex
	face    facetrack.DetectedFace
	facing  facetrack.CameraFacing
	updated bool
}

// NewFaceGraphic creates a graphic with the next palette color.
func NewFaceGraphic() *FaceGraphic {
	i := nextColor.Add(1) - 1
	return &FaceGraphic{
		id:    uuid.NewString(),
		color: Palette[int(i)%len(Palette)],
	}
}

// Factory is a facetrack.GraphicFactory producing FaceGraphics.
func Factory(facetrack.Overlay) facetrack.Graphic {
	return NewFaceGraphic()
}

// ID returns the graphic's unique identifier.
func (g *FaceGraphic) ID() string { return g.id }

// Color returns the graphic's palette color.
func (g *FaceGraphic) Color() string { return g.color }

// UpdatePose stores the latest detection of the face.
func (g *FaceGraphic) UpdatePose(face facetrack.DetectedFace, facing facetrack.CameraFacing) {
	g.mu.Lock()
	g.face = face
	g.facing = facing
	g.updated = true
	g.mu.Unlock()
}

// Face returns the last detection passed to UpdatePose.
func (g *FaceGraphic) Face() (facetrack.DetectedFace, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.face, g.updated
}

// Draw renders the face with t.
func (g *FaceGraphic) Draw(t Transform) Shape {
	g.mu.RLock()
	face := g.face
	facing := g.facing
	g.mu.RUnlock()

	b := face.Bounds
	x := t.TranslateX(float64(b.Min.X+b.Max.X) / 2)
	y := t.TranslateY(float64(b.Min.Y+b.Max.Y) / 2)
	halfW := t.ScaleX(float64(b.Dx()) / 2)
	halfH := t.ScaleY(float64(b.Dy()) / 2)

	s := Shape{
		ID:          g.id,
		TrackingID:  face.TrackingID,
		Color:       g.color,
		Center:      PointF{X: x, Y: y},
		Radius:      FacePositionRadius,
		Box:         Box{Left: x - halfW, Top: y - halfH, Right: x + halfW, Bottom: y + halfH},
		StrokeWidth: BoxStrokeWidth,
		TextSize:    IDTextSize,
	}

	s.Labels = append(s.Labels, Label{
		Text: fmt.Sprintf("id: %d", face.TrackingID),
		At:   PointF{X: x + IDXOffset, Y: y + IDYOffset},
	})
	if face.SmilingProbability >= 0 {
		s.Labels = append(s.Labels, Label{
			Text: fmt.Sprintf("happiness: %.2f", face.SmilingProbability),
			At:   PointF{X: x + IDXOffset*3, Y: y - IDYOffset},
		})
	}

	// The preview of a front camera is mirrored, so the face's left eye shows
	// on the viewer's right.
	right, left := face.RightEyeOpenProbability, face.LeftEyeOpenProbability
	if facing == facetrack.FacingFront {
		right, left = left, right
	}
	if right >= 0 {
		s.Labels = append(s.Labels, Label{
			Text: fmt.Sprintf("right eye: %.2f", right),
			At:   PointF{X: x - IDXOffset, Y: y},
		})
	}
	if left >= 0 {
		s.Labels = append(s.Labels, Label{
			Text: fmt.Sprintf("left eye: %.2f", left),
			At:   PointF{X: x + IDXOffset*6, Y: y},
		})
	}

	for _, l := range face.Landmarks {
		s.Landmarks = append(s.Landmarks, Mark{
			Type: l.Type.String(),
			At:   PointF{X: t.TranslateX(l.X), Y: t.TranslateY(l.Y)},
		})
	}

	return s
}
