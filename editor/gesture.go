package editor

// Per-element gesture interpretation. Each controller tracks one
// element's in-progress pan or pinch locally and commits the final
// geometry to its delegate only when the gesture ends; mid-gesture
// values are rendering state, never model state.

const (
	// Drag clamping lets an element overhang the canvas this much.
	dragPadding = 20.0

	// Pinch-resize bounds for non-text elements. The upper bound is a
	// fraction of the canvas dimension on each axis.
	minElementSide    = 80.0
	maxCanvasFraction = 0.8

	// Pinch bounds for text font size.
	minFontSize = 12.0
	maxFontSize = 48.0
)

// ElementUpdate is a partial geometry commit; nil fields are untouched.
type ElementUpdate struct {
	Position *Point
	Size     *Size
	FontSize *float64
}

// GestureDelegate receives the discrete events a gesture produces.
// All callbacks fire synchronously from the gesture methods.
type GestureDelegate interface {
	OnSelect(id string)
	OnDragStart(id string)
	OnDragEnd(id string)
	// OnDragToDelete fires at pan end with the element's final top-left
	// position and size so the owner can run the delete-zone hit test.
	OnDragToDelete(id string, position Point, size Size)
	OnUpdate(id string, update ElementUpdate)
	// OnOpenTrack fires when a track card is tapped outside edit mode.
	OnOpenTrack(trackID string)
}

// GestureController interprets pan/pinch/tap input for one element.
// Pan and pinch are mutually exclusive; whichever starts first wins
// until it ends.
type GestureController struct {
	element  Element
	canvas   Size
	delegate GestureDelegate

	editMode bool
	selected bool

	dragging bool
	scaling  bool

	// Live (uncommitted) geometry shown while a gesture is in flight.
	position Point
	size     Size
	fontSize float64

	// Gesture anchors captured at start.
	startPosition Point
	startSize     Size
	baseFontSize  float64
}

func NewGestureController(el Element, canvas Size, delegate GestureDelegate) *GestureController {
	fontSize := el.FontSize
	if fontSize == 0 {
		fontSize = DefaultFontSize
	}
	return &GestureController{
		element:      el,
		canvas:       canvas,
		delegate:     delegate,
		position:     el.Position,
		size:         el.Size,
		fontSize:     fontSize,
		baseFontSize: fontSize,
	}
}

// Sync refreshes the controller from the committed element state, e.g.
// after the owner mutated the model outside a gesture.
func (g *GestureController) Sync(el Element) {
	g.element = el
	if !g.dragging {
		g.position = el.Position
	}
	if !g.scaling {
		g.size = el.Size
		if el.Kind == KindText && el.FontSize > 0 {
			g.fontSize = el.FontSize
			g.baseFontSize = el.FontSize
		}
	}
}

func (g *GestureController) SetEditMode(on bool)    { g.editMode = on }
func (g *GestureController) SetSelected(on bool)    { g.selected = on }
func (g *GestureController) SetCanvasSize(s Size)   { g.canvas = s }
func (g *GestureController) ElementID() string      { return g.element.ID }
func (g *GestureController) Position() Point        { return g.position }
func (g *GestureController) Size() Size             { return g.size }
func (g *GestureController) FontSize() float64      { return g.fontSize }
func (g *GestureController) Dragging() bool         { return g.dragging }
func (g *GestureController) Scaling() bool          { return g.scaling }

// PanStart begins a drag. Ignored outside edit mode or while pinching.
func (g *GestureController) PanStart() {
	if !g.editMode || g.scaling {
		return
	}
	g.dragging = true
	g.startPosition = g.position
	g.delegate.OnSelect(g.element.ID)
	g.delegate.OnDragStart(g.element.ID)
}

// PanUpdate moves the element by the gesture's cumulative translation,
// clamped against canvas bounds. Visual only; nothing is committed.
func (g *GestureController) PanUpdate(translationX, translationY float64) {
	if !g.dragging || g.scaling {
		return
	}
	candidate := Point{
		X: g.startPosition.X + translationX,
		Y: g.startPosition.Y + translationY,
	}
	g.position = ClampPosition(candidate, g.size, g.canvas, dragPadding)
}

// PanEnd commits the final position, then runs the delete-zone check
// through the delegate. A drag ending inside the zone asks for
// confirmation upstream; it never deletes here.
func (g *GestureController) PanEnd() {
	if !g.dragging {
		return
	}
	g.dragging = false

	g.delegate.OnDragToDelete(g.element.ID, g.position, g.size)
	g.delegate.OnDragEnd(g.element.ID)

	position := g.position
	g.element.Position = position
	g.delegate.OnUpdate(g.element.ID, ElementUpdate{Position: &position})
}

// PinchStart begins a resize. Requires edit mode and selection; ignored
// while dragging.
func (g *GestureController) PinchStart() {
	if !g.editMode || !g.selected || g.dragging {
		return
	}
	g.scaling = true
	g.startSize = g.size
	g.delegate.OnSelect(g.element.ID)
}

// PinchUpdate applies a clamped scale factor. Text scales its font
// size; everything else scales its box, each axis clamped between the
// minimum side and a fraction of the canvas dimension.
func (g *GestureController) PinchUpdate(scale float64) {
	if !g.scaling || g.dragging {
		return
	}
	s := ClampScale(scale)

	if g.element.Kind == KindText {
		g.fontSize = clamp(g.baseFontSize*s, minFontSize, maxFontSize)
		return
	}
	g.size = Size{
		Width:  clamp(g.startSize.Width*s, minElementSide, g.canvas.Width*maxCanvasFraction),
		Height: clamp(g.startSize.Height*s, minElementSide, g.canvas.Height*maxCanvasFraction),
	}
}

// PinchEnd commits the final size or font size.
func (g *GestureController) PinchEnd() {
	if !g.scaling {
		return
	}
	g.scaling = false

	if g.element.Kind == KindText {
		g.baseFontSize = g.fontSize
		fontSize := g.fontSize
		g.element.FontSize = fontSize
		g.delegate.OnUpdate(g.element.ID, ElementUpdate{FontSize: &fontSize})
		return
	}
	size := g.size
	g.element.Size = size
	g.delegate.OnUpdate(g.element.ID, ElementUpdate{Size: &size})
}

// Tap selects in edit mode. Outside edit mode it only means something
// for a track card: open the track externally.
func (g *GestureController) Tap() {
	if g.editMode {
		g.delegate.OnSelect(g.element.ID)
		return
	}
	if g.element.Kind == KindTrack && g.element.Track != nil {
		g.delegate.OnOpenTrack(g.element.Track.TrackID)
	}
}
