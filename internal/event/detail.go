package event

// Detail is the kind-specific part of an event. Each implementation belongs
// to exactly one Kind.
type Detail interface {
	Kind() Kind
}

// Modifiers are the modifier key flags shared by mouse, keyboard and touch
// events.
type Modifiers struct {
	AltKey   bool `event:"altKey"`
	CtrlKey  bool `event:"ctrlKey"`
	ShiftKey bool `event:"shiftKey"`
	MetaKey  bool `event:"metaKey"`
}

// GenericDetail carries nothing beyond the base fields.
type GenericDetail struct{}

func (GenericDetail) Kind() Kind { return KindGeneric }

// UIDetail is the detail of UI events such as scroll.
type UIDetail struct {
	Detail int `event:"detail"`
	View   any `event:"view"`
}

func (UIDetail) Kind() Kind { return KindUI }

// MouseDetail is the detail of mouse events.
type MouseDetail struct {
	Modifiers     `event:",squash"`
	Button        int     `event:"button"`
	Buttons       int     `event:"buttons"`
	ClientX       float64 `event:"clientX"`
	ClientY       float64 `event:"clientY"`
	ScreenX       float64 `event:"screenX"`
	ScreenY       float64 `event:"screenY"`
	RelatedTarget any     `event:"relatedTarget"`
}

func (MouseDetail) Kind() Kind { return KindMouse }

// PointerDetail is the detail of pointer events.
type PointerDetail struct {
	MouseDetail `event:",squash"`
	PointerID   int     `event:"pointerId"`
	PointerType string  `event:"pointerType"`
	Pressure    float64 `event:"pressure"`
	Width       float64 `event:"width"`
	Height      float64 `event:"height"`
	IsPrimary   bool    `event:"isPrimary"`
}

func (PointerDetail) Kind() Kind { return KindPointer }

// KeyboardDetail is the detail of keyboard events.
type KeyboardDetail struct {
	Modifiers   `event:",squash"`
	Key         string `event:"key"`
	Code        string `event:"code"`
	KeyCode     int    `event:"keyCode"`
	Location    int    `event:"location"`
	Repeat      bool   `event:"repeat"`
	IsComposing bool   `event:"isComposing"`
}

func (KeyboardDetail) Kind() Kind { return KindKeyboard }

// FocusDetail is the detail of focus events.
type FocusDetail struct {
	RelatedTarget any `event:"relatedTarget"`
}

func (FocusDetail) Kind() Kind { return KindFocus }

// InputDetail is the detail of input events.
type InputDetail struct {
	Data        string `event:"data"`
	InputType   string `event:"inputType"`
	IsComposing bool   `event:"isComposing"`
}

func (InputDetail) Kind() Kind { return KindInput }

// WheelDetail is the detail of wheel events.
type WheelDetail struct {
	MouseDetail `event:",squash"`
	DeltaX      float64 `event:"deltaX"`
	DeltaY      float64 `event:"deltaY"`
	DeltaZ      float64 `event:"deltaZ"`
	DeltaMode   int     `event:"deltaMode"`
}

func (WheelDetail) Kind() Kind { return KindWheel }

// TouchDetail is the detail of touch events.
type TouchDetail struct {
	Modifiers      `event:",squash"`
	Touches        []any `event:"touches"`
	TargetTouches  []any `event:"targetTouches"`
	ChangedTouches []any `event:"changedTouches"`
}

func (TouchDetail) Kind() Kind { return KindTouch }

// DragDetail is the detail of drag events.
type DragDetail struct {
	MouseDetail  `event:",squash"`
	DataTransfer any `event:"dataTransfer"`
}

func (DragDetail) Kind() Kind { return KindDrag }

// ClipboardDetail is the detail of clipboard events.
type ClipboardDetail struct {
	ClipboardData any `event:"clipboardData"`
}

func (ClipboardDetail) Kind() Kind { return KindClipboard }

// CompositionDetail is the detail of composition events.
type CompositionDetail struct {
	Data string `event:"data"`
}

func (CompositionDetail) Kind() Kind { return KindComposition }

// AnimationDetail is the detail of animation events.
type AnimationDetail struct {
	AnimationName string  `event:"animationName"`
	ElapsedTime   float64 `event:"elapsedTime"`
	PseudoElement string  `event:"pseudoElement"`
}

func (AnimationDetail) Kind() Kind { return KindAnimation }

// TransitionDetail is the detail of transition events.
type TransitionDetail struct {
	PropertyName  string  `event:"propertyName"`
	ElapsedTime   float64 `event:"elapsedTime"`
	PseudoElement string  `event:"pseudoElement"`
}

func (TransitionDetail) Kind() Kind { return KindTransition }

// newDetail returns a pointer to a zero detail for kind.
func newDetail(kind Kind) any {
	switch kind {
	case KindUI:
		return &UIDetail{}
	case KindMouse:
		return &MouseDetail{}
	case KindPointer:
		return &PointerDetail{}
	case KindKeyboard:
		return &KeyboardDetail{}
	case KindFocus:
		return &FocusDetail{}
	case KindInput:
		return &InputDetail{}
	case KindWheel:
		return &WheelDetail{}
	case KindTouch:
		return &TouchDetail{}
	case KindDrag:
		return &DragDetail{}
	case KindClipboard:
		return &ClipboardDetail{}
	case KindComposition:
		return &CompositionDetail{}
	case KindAnimation:
		return &AnimationDetail{}
	case KindTransition:
		return &TransitionDetail{}
	default:
		return &GenericDetail{}
	}
}
