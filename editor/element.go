package editor

import (
	"fmt"

	"diary-server/core"

	"github.com/oklog/ulid/v2"
)

// Kind discriminates the element variants. The string values double as
// the persisted wire "type" field.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindTrack   Kind = "spotify"
	KindSticker Kind = "sticker"
)

// Element is one placed content item on the page canvas. Exactly one of
// Track/Sticker is set for the corresponding kinds; FontSize is
// meaningful for text only.
type Element struct {
	ID       string
	Kind     Kind
	Content  string
	Position Point
	Size     Size
	Rotation float64
	ZIndex   int
	FontSize float64
	Track    *core.TrackData
	Sticker  *core.StickerData
}

// Per-kind creation defaults.
const (
	DefaultFontSize = 20.0

	textWidth   = 200.0
	textHeight  = 100.0
	imageSide   = 150.0
	trackSide   = 150.0
	stickerSide = 120.0
)

// DefaultSize returns the creation size for a kind.
func DefaultSize(kind Kind) Size {
	switch kind {
	case KindText:
		return Size{Width: textWidth, Height: textHeight}
	case KindSticker:
		return Size{Width: stickerSide, Height: stickerSide}
	case KindTrack:
		return Size{Width: trackSide, Height: trackSide}
	default:
		return Size{Width: imageSide, Height: imageSide}
	}
}

// Instantiate creates a fresh element of the given kind at the drop
// position. orderIndex is the element's position in the page list; the
// stacking order is simply append order.
func Instantiate(kind Kind, drop Point, orderIndex int) Element {
	el := Element{
		ID:       ulid.Make().String(),
		Kind:     kind,
		Position: drop,
		Size:     DefaultSize(kind),
		ZIndex:   orderIndex + 1,
	}
	if kind == KindText {
		el.FontSize = DefaultFontSize
	}
	return el
}

// FromWire converts persisted page contents into live elements. Short
// records (legacy pages saved before geometry existed) get per-kind
// default sizes and a cascading position so they do not stack exactly
// on top of each other. Unknown types are rejected; everything past
// this boundary assumes the closed kind set.
func FromWire(contents []core.PageContent) ([]Element, error) {
	elements := make([]Element, 0, len(contents))
	for i, content := range contents {
		kind := Kind(content.Type)
		switch kind {
		case KindText, KindImage, KindTrack, KindSticker:
		default:
			return nil, fmt.Errorf("page content %d: unknown type %q", i, content.Type)
		}

		el := Element{
			ID:      ulid.Make().String(),
			Kind:    kind,
			Content: content.Content,
			Size:    DefaultSize(kind),
			ZIndex:  i + 1,
		}

		if content.Position != nil {
			el.Position = Point{X: content.Position.X, Y: content.Position.Y}
		} else {
			offset := float64(i) * 20
			el.Position = Point{X: 50 + offset, Y: 50 + offset}
		}
		if content.Size != nil {
			el.Size = Size{Width: content.Size.Width, Height: content.Size.Height}
		}
		if content.Rotation != nil {
			el.Rotation = *content.Rotation
		}
		if content.ZIndex != nil {
			el.ZIndex = *content.ZIndex
		}
		if kind == KindText {
			el.FontSize = DefaultFontSize
			if content.FontSize != nil {
				el.FontSize = *content.FontSize
			}
		}
		if kind == KindTrack && content.TrackData != nil {
			track := *content.TrackData
			el.Track = &track
		}
		if kind == KindSticker && content.StickerData != nil {
			sticker := *content.StickerData
			el.Sticker = &sticker
		}

		elements = append(elements, el)
	}
	return elements, nil
}

// ToWire converts live elements into the persisted page-content form,
// emitting only the optional fields that are meaningful for each kind.
func ToWire(elements []Element) []core.PageContent {
	contents := make([]core.PageContent, 0, len(elements))
	for _, el := range elements {
		rotation := el.Rotation
		zIndex := el.ZIndex
		content := core.PageContent{
			Type:     string(el.Kind),
			Content:  el.Content,
			Position: &core.Position{X: el.Position.X, Y: el.Position.Y},
			Size:     &core.Size{Width: el.Size.Width, Height: el.Size.Height},
			Rotation: &rotation,
			ZIndex:   &zIndex,
		}
		if el.Kind == KindText {
			fontSize := el.FontSize
			if fontSize == 0 {
				fontSize = DefaultFontSize
			}
			content.FontSize = &fontSize
		}
		if el.Kind == KindTrack && el.Track != nil {
			track := *el.Track
			content.TrackData = &track
		}
		if el.Kind == KindSticker && el.Sticker != nil {
			sticker := *el.Sticker
			content.StickerData = &sticker
		}
		contents = append(contents, content)
	}
	return contents
}
