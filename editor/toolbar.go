package editor

import "context"

// Toolbar drop geometry: the drop point is offset from the absolute
// release position so the new element lands under the finger, then
// clamped so it cannot start off-canvas.
const (
	dropOffsetX = 50.0
	dropOffsetY = 100.0
	dropMargin  = 100.0
)

// Toolbar is the edit-mode insertion strip. Each button can be dragged
// onto the canvas; releasing it starts the insertion flow for that
// element kind at the drop position.
type Toolbar struct {
	session *Session
	canvas  Size

	active  Kind
	offsets map[Kind]Point
}

func NewToolbar(session *Session, canvas Size) *Toolbar {
	return &Toolbar{
		session: session,
		canvas:  canvas,
		offsets: map[Kind]Point{},
	}
}

func (t *Toolbar) SetCanvasSize(canvas Size) {
	t.canvas = canvas
}

// Active returns the kind currently being dragged, if any.
func (t *Toolbar) Active() Kind {
	return t.active
}

// Offset returns the live drag offset of a button, for rendering.
func (t *Toolbar) Offset(kind Kind) Point {
	return t.offsets[kind]
}

// DragStart begins dragging one toolbar button. A second button cannot
// start while another drag is in flight.
func (t *Toolbar) DragStart(kind Kind) {
	if t.active != "" {
		return
	}
	switch kind {
	case KindText, KindImage, KindTrack, KindSticker:
		t.active = kind
		t.offsets[kind] = Point{}
	}
}

// DragUpdate moves the active button by the gesture's cumulative
// translation.
func (t *Toolbar) DragUpdate(kind Kind, translationX, translationY float64) {
	if t.active != kind {
		return
	}
	t.offsets[kind] = Point{X: translationX, Y: translationY}
}

// DragEnd releases the button at an absolute screen position and kicks
// off the insertion flow for its kind. The button itself snaps back;
// the offset map is always reset.
func (t *Toolbar) DragEnd(ctx context.Context, kind Kind, absX, absY float64) {
	if t.active != kind {
		return
	}
	t.active = ""
	t.offsets[kind] = Point{}

	drop := t.DropPoint(absX, absY)
	switch kind {
	case KindText:
		t.session.AddText(drop)
	case KindImage:
		t.session.AddImage(ctx, drop)
	case KindTrack:
		t.session.AddTrack(drop)
	case KindSticker:
		t.session.AddSticker(ctx, drop)
	}
}

// DropPoint converts an absolute release position into the new
// element's top-left corner, clamped to the canvas.
func (t *Toolbar) DropPoint(absX, absY float64) Point {
	return Point{
		X: clamp(absX-dropOffsetX, 0, t.canvas.Width-dropMargin),
		Y: clamp(absY-dropOffsetY, 0, t.canvas.Height-dropMargin),
	}
}
