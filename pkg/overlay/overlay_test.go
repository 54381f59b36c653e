package overlay

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

func TestTransform(t *testing.T) {
	tr := Transform{ViewWidth: 1280, ViewHeight: 960, ImageWidth: 640, ImageHeight: 480}

	assert.Equal(t, 200.0, tr.ScaleX(100))
	assert.Equal(t, 200.0, tr.ScaleY(100))
	assert.Equal(t, 200.0, tr.TranslateX(100))
	assert.Equal(t, 200.0, tr.TranslateY(100))

	tr.Facing = facetrack.FacingFront
	assert.Equal(t, 1080.0, tr.TranslateX(100), "front camera mirrors x")
	assert.Equal(t, 200.0, tr.TranslateY(100), "front camera keeps y")
}

func TestTransform_ZeroImage(t *testing.T) {
	tr := Transform{ViewWidth: 100, ViewHeight: 100}
	assert.Equal(t, 5.0, tr.ScaleX(5))
	assert.Equal(t, 5.0, tr.ScaleY(5))
}

func shapeIDs(s Scene) []string {
	ids := make([]string, len(s.Shapes))
	for i, sh := range s.Shapes {
		ids[i] = sh.ID
	}
	return ids
}

func TestOverlay_AddRemove(t *testing.T) {
	o := New(640, 480)
	a, b := NewFaceGraphic(), NewFaceGraphic()

	o.Add(a)
	o.Add(b)
	assert.Equal(t, []string{a.ID(), b.ID()}, shapeIDs(o.Snapshot()))

	o.Remove(a)
	assert.Equal(t, []string{b.ID()}, shapeIDs(o.Snapshot()))

	// Removing twice is harmless.
	o.Remove(a)
	assert.Equal(t, 1, o.Len())

	o.Clear()
	assert.Zero(t, o.Len())
}

func TestOverlay_WithTracker(t *testing.T) {
	o := New(640, 480)
	tr := facetrack.NewTracker(o, Factory)

	tr.Reconcile([]facetrack.DetectedFace{{TrackingID: 1}, {TrackingID: 2}}, facetrack.FacingBack)
	require.Equal(t, 2, o.Len())

	tr.Reconcile([]facetrack.DetectedFace{{TrackingID: 2}, {TrackingID: 3}}, facetrack.FacingBack)
	assert.Equal(t, 2, o.Len())

	scene := o.Snapshot()
	ids := []int{}
	for _, s := range scene.Shapes {
		ids = append(ids, s.TrackingID)
	}
	assert.ElementsMatch(t, []int{2, 3}, ids)

	tr.Reconcile(nil, facetrack.FacingBack)
	assert.Zero(t, o.Len())
}

func TestOverlay_Invalidate(t *testing.T) {
	o := New(640, 480)
	o.SetCameraInfo(320, 240, facetrack.FacingFront)

	var got []Scene
	o.OnInvalidate(func(s Scene) { got = append(got, s) })

	g := NewFaceGraphic()
	g.UpdatePose(facetrack.DetectedFace{TrackingID: 4, Bounds: image.Rect(0, 0, 20, 20)}, facetrack.FacingFront)
	o.Add(g)
	o.Invalidate()

	require.Len(t, got, 1)
	scene := got[0]
	assert.Equal(t, "front", scene.Facing)
	assert.Equal(t, 320, scene.ImageWidth)
	require.Len(t, scene.Shapes, 1)
	assert.Equal(t, g.ID(), scene.Shapes[0].ID)

	// Center (10,10) in a 320-wide image is 20 in a 640-wide view, mirrored.
	assert.Equal(t, 620.0, scene.Shapes[0].Center.X)
	assert.Equal(t, 20.0, scene.Shapes[0].Center.Y)
}

func TestOverlay_SnapshotSkipsNonDrawable(t *testing.T) {
	o := New(10, 10)
	o.Add(plainGraphic{})
	o.Add(NewFaceGraphic())

	assert.Equal(t, 2, o.Len())
	assert.Len(t, o.Snapshot().Shapes, 1)
}

type plainGraphic struct{}

func (plainGraphic) UpdatePose(facetrack.DetectedFace, facetrack.CameraFacing) {}

func TestOverlay_SetViewSize(t *testing.T) {
	o := New(640, 480)
	o.SetCameraInfo(640, 480, facetrack.FacingBack)
	o.SetViewSize(320, 240)

	tr := o.Transform()
	assert.Equal(t, 50.0, tr.ScaleX(100))
	assert.Equal(t, 50.0, tr.ScaleY(100))
}

type stubDetector struct{ faces []facetrack.DetectedFace }

func (d stubDetector) Detect(context.Context, facetrack.Frame) ([]facetrack.DetectedFace, error) {
	return d.faces, nil
}

func (stubDetector) Close() error { return nil }

func TestOverlay_RefreshFollowsDeliveredFrameSize(t *testing.T) {
	// Capture asked for 640x480; the device delivers 1280x720 front frames.
	o := New(640, 480)
	o.SetCameraInfo(640, 480, facetrack.FacingBack)

	var scenes []Scene
	o.OnInvalidate(func(s Scene) { scenes = append(scenes, s) })

	det := stubDetector{faces: []facetrack.DetectedFace{
		{TrackingID: 1, Bounds: image.Rect(1000, 100, 1200, 300)},
	}}
	p := facetrack.NewProcessor(det, facetrack.NewTracker(o, Factory),
		facetrack.WithResultHook(func(_ []facetrack.DetectedFace, meta facetrack.FrameMetadata) {
			o.Refresh(meta)
		}),
	)

	frame := facetrack.Frame{
		Seq:      1,
		Metadata: facetrack.FrameMetadata{Width: 1280, Height: 720, CameraFacing: facetrack.FacingFront},
	}
	require.True(t, p.Process(context.Background(), frame))
	p.Wait()

	require.Len(t, scenes, 1)
	scene := scenes[0]
	assert.Equal(t, 1280, scene.ImageWidth)
	assert.Equal(t, 720, scene.ImageHeight)
	assert.Equal(t, "front", scene.Facing)
	require.Len(t, scene.Shapes, 1)

	// Center x 1100 scales by 0.5 to 550, mirrored in a 640-wide view.
	sh := scene.Shapes[0]
	assert.InDelta(t, 90.0, sh.Center.X, 1e-9)
	assert.InDelta(t, 200.0*480/720, sh.Center.Y, 1e-9)
	assert.GreaterOrEqual(t, sh.Box.Left, 0.0)
	assert.LessOrEqual(t, sh.Box.Right, 640.0)
}

func TestOverlay_RefreshIgnoresEmptyMetadata(t *testing.T) {
	o := New(640, 480)
	o.SetCameraInfo(320, 240, facetrack.FacingFront)

	calls := 0
	o.OnInvalidate(func(Scene) { calls++ })
	o.Refresh(facetrack.FrameMetadata{})

	assert.Equal(t, 1, calls)
	tr := o.Transform()
	assert.Equal(t, 320, tr.ImageWidth)
	assert.Equal(t, facetrack.FacingFront, tr.Facing)
}
