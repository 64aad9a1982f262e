package event

// Kind is the discriminant of an event record. It selects which Detail type
// the event carries.
type Kind string

const (
	KindGeneric     Kind = "Event"
	KindUI          Kind = "UIEvent"
	KindMouse       Kind = "MouseEvent"
	KindPointer     Kind = "PointerEvent"
	KindKeyboard    Kind = "KeyboardEvent"
	KindFocus       Kind = "FocusEvent"
	KindInput       Kind = "InputEvent"
	KindWheel       Kind = "WheelEvent"
	KindTouch       Kind = "TouchEvent"
	KindDrag        Kind = "DragEvent"
	KindClipboard   Kind = "ClipboardEvent"
	KindComposition Kind = "CompositionEvent"
	KindAnimation   Kind = "AnimationEvent"
	KindTransition  Kind = "TransitionEvent"
)

type typeInfo struct {
	kind       Kind
	bubbles    bool
	cancelable bool
}

// types maps host event type names to their kind and base flags. Types not
// listed fall back to a bubbling, cancelable generic event.
var types = map[string]typeInfo{
	// mouse
	"click":       {KindMouse, true, true},
	"dblclick":    {KindMouse, true, true},
	"auxclick":    {KindMouse, true, true},
	"contextmenu": {KindMouse, true, true},
	"mousedown":   {KindMouse, true, true},
	"mouseup":     {KindMouse, true, true},
	"mousemove":   {KindMouse, true, true},
	"mouseover":   {KindMouse, true, true},
	"mouseout":    {KindMouse, true, true},
	"mouseenter":  {KindMouse, false, false},
	"mouseleave":  {KindMouse, false, false},

	// pointer
	"pointerdown":        {KindPointer, true, true},
	"pointerup":          {KindPointer, true, true},
	"pointermove":        {KindPointer, true, true},
	"pointerover":        {KindPointer, true, true},
	"pointerout":         {KindPointer, true, true},
	"pointercancel":      {KindPointer, true, false},
	"pointerenter":       {KindPointer, false, false},
	"pointerleave":       {KindPointer, false, false},
	"gotpointercapture":  {KindPointer, true, false},
	"lostpointercapture": {KindPointer, true, false},

	// keyboard
	"keydown":  {KindKeyboard, true, true},
	"keyup":    {KindKeyboard, true, true},
	"keypress": {KindKeyboard, true, true},

	// focus
	"focus":    {KindFocus, false, false},
	"blur":     {KindFocus, false, false},
	"focusin":  {KindFocus, true, false},
	"focusout": {KindFocus, true, false},

	// input
	"input":       {KindInput, true, false},
	"beforeinput": {KindInput, true, true},

	// wheel
	"wheel": {KindWheel, true, true},

	// touch
	"touchstart":  {KindTouch, true, true},
	"touchend":    {KindTouch, true, true},
	"touchmove":   {KindTouch, true, true},
	"touchcancel": {KindTouch, true, false},

	// drag
	"drag":      {KindDrag, true, true},
	"dragend":   {KindDrag, true, false},
	"dragenter": {KindDrag, true, true},
	"dragexit":  {KindDrag, true, false},
	"dragleave": {KindDrag, true, false},
	"dragover":  {KindDrag, true, true},
	"dragstart": {KindDrag, true, true},
	"drop":      {KindDrag, true, true},

	// clipboard
	"copy":  {KindClipboard, true, true},
	"cut":   {KindClipboard, true, true},
	"paste": {KindClipboard, true, true},

	// composition
	"compositionstart":  {KindComposition, true, true},
	"compositionupdate": {KindComposition, true, true},
	"compositionend":    {KindComposition, true, true},

	// animation
	"animationstart":     {KindAnimation, true, false},
	"animationend":       {KindAnimation, true, false},
	"animationiteration": {KindAnimation, true, false},

	// transition
	"transitionrun":    {KindTransition, true, false},
	"transitionstart":  {KindTransition, true, false},
	"transitionend":    {KindTransition, true, false},
	"transitioncancel": {KindTransition, true, false},

	// ui
	"scroll": {KindUI, false, false},
	"resize": {KindUI, false, false},
	"select": {KindUI, true, false},
}

// KindOf returns the kind for a host event type, falling back to
// KindGeneric for unknown types.
func KindOf(typ string) Kind {
	if info, ok := types[typ]; ok {
		return info.kind
	}
	return KindGeneric
}

func lookup(typ string) typeInfo {
	if info, ok := types[typ]; ok {
		return info
	}
	return typeInfo{kind: KindGeneric, bubbles: true, cancelable: true}
}
