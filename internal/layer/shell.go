package layer

/*
#cgo pkg-config: gtk-layer-shell-0
#include <stdlib.h>
#include <gtk-layer-shell.h>
*/
import "C"
import (
	"unsafe"

	"github.com/gotk3/gotk3/gtk"
)

type Layer int

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

type Edge int

const (
	EdgeLeft   Edge = 0
	EdgeRight  Edge = 1
	EdgeTop    Edge = 2
	EdgeBottom Edge = 3
)

// KeyboardMode controls whether the surface receives keyboard input.
type KeyboardMode int

const (
	KeyboardModeNone      KeyboardMode = 0
	KeyboardModeExclusive KeyboardMode = 1
	KeyboardModeOnDemand  KeyboardMode = 2
)

// Margins are the distances kept from each anchored screen edge.
type Margins struct {
	Top, Bottom, Left, Right int
}

func native(window *gtk.Window) *C.GtkWindow {
	return (*C.GtkWindow)(unsafe.Pointer(window.Native()))
}

func cbool(b bool) C.gboolean {
	if b {
		return 1
	}
	return 0
}

// IsSupported reports whether the compositor speaks the layer shell protocol.
func IsSupported() bool {
	return C.gtk_layer_is_supported() != 0
}

// InitForWindow turns window into a layer surface. It must run before the
// window is realized.
func InitForWindow(window *gtk.Window) {
	C.gtk_layer_init_for_window(native(window))
}

func SetNamespace(window *gtk.Window, namespace string) {
	cs := C.CString(namespace)
	defer C.free(unsafe.Pointer(cs))
	C.gtk_layer_set_namespace(native(window), cs)
}

func SetLayer(window *gtk.Window, layer Layer) {
	C.gtk_layer_set_layer(native(window), C.GtkLayerShellLayer(layer))
}

func SetAnchor(window *gtk.Window, edge Edge, anchorTo bool) {
	C.gtk_layer_set_anchor(native(window), C.GtkLayerShellEdge(edge), cbool(anchorTo))
}

// SetExclusiveZone reserves zone pixels at the anchored edge. -1 asks to be
// placed over other exclusive zones instead of next to them.
func SetExclusiveZone(window *gtk.Window, zone int) {
	C.gtk_layer_set_exclusive_zone(native(window), C.int(zone))
}

func SetMargin(window *gtk.Window, edge Edge, margin int) {
	C.gtk_layer_set_margin(native(window), C.GtkLayerShellEdge(edge), C.int(margin))
}

func SetKeyboardMode(window *gtk.Window, mode KeyboardMode) {
	C.gtk_layer_set_keyboard_mode(native(window), C.GtkLayerShellKeyboardMode(mode))
}

// SetupOverlay makes window a full-screen overlay inset by margins that takes
// all keyboard input while shown.
func SetupOverlay(window *gtk.Window, namespace string, margins Margins) {
	InitForWindow(window)
	SetNamespace(window, namespace)
	SetLayer(window, LayerOverlay)

	for edge, margin := range map[Edge]int{
		EdgeTop:    margins.Top,
		EdgeBottom: margins.Bottom,
		EdgeLeft:   margins.Left,
		EdgeRight:  margins.Right,
	} {
		SetAnchor(window, edge, true)
		SetMargin(window, edge, margin)
	}

	SetExclusiveZone(window, -1)
	SetKeyboardMode(window, KeyboardModeExclusive)
}
