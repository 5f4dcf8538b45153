package ordering

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sadopc/nexus/internal/store"
)

var (
	ErrUnknownWidget = errors.New("unknown widget")
	ErrSameWidget    = errors.New("cannot swap a widget with itself")
	ErrDragDisabled  = errors.New("reordering is disabled")
)

// Swap exchanges the order values of widgets a and b and leaves every other
// placement untouched. The input layout is not modified.
func Swap(layout store.WidgetLayout, a, b string) (store.WidgetLayout, error) {
	if a == b {
		return layout, fmt.Errorf("%w: %s", ErrSameWidget, a)
	}
	pa, ok := layout[a]
	if !ok {
		return layout, fmt.Errorf("%w: %s", ErrUnknownWidget, a)
	}
	pb, ok := layout[b]
	if !ok {
		return layout, fmt.Errorf("%w: %s", ErrUnknownWidget, b)
	}

	out := make(store.WidgetLayout, len(layout))
	for k, p := range layout {
		out[k] = p
	}
	pa.Order, pb.Order = pb.Order, pa.Order
	out[a], out[b] = pa, pb
	return out, nil
}

// SwapIfEnabled is Swap gated on the drag toggle.
func SwapIfEnabled(layout store.WidgetLayout, dragEnabled bool, a, b string) (store.WidgetLayout, error) {
	if !dragEnabled {
		return layout, ErrDragDisabled
	}
	return Swap(layout, a, b)
}

// SortedWidgets returns the layout's widget keys by ascending order. Equal
// orders fall back to key order so the result is always total.
func SortedWidgets(layout store.WidgetLayout) []string {
	keys := make([]string, 0, len(layout))
	for k := range layout {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if oa, ob := layout[a].Order, layout[b].Order; oa != ob {
			return oa - ob
		}
		return strings.Compare(a, b)
	})
	return keys
}

// VisibleWidgets is SortedWidgets without hidden widgets.
func VisibleWidgets(layout store.WidgetLayout) []string {
	return slices.DeleteFunc(SortedWidgets(layout), func(k string) bool { return !layout[k].Visible })
}

// Neighbor returns the visible widget adjacent to key in direction dir
// (-1 previous, +1 next), or "" at either end.
func Neighbor(layout store.WidgetLayout, key string, dir int) string {
	visible := VisibleWidgets(layout)
	i := slices.Index(visible, key)
	if i < 0 {
		return ""
	}
	j := i + dir
	if j < 0 || j >= len(visible) {
		return ""
	}
	return visible[j]
}

// SetVisible shows or hides a widget without touching its order.
func SetVisible(layout store.WidgetLayout, key string, visible bool) (store.WidgetLayout, error) {
	p, ok := layout[key]
	if !ok {
		return layout, fmt.Errorf("%w: %s", ErrUnknownWidget, key)
	}
	out := make(store.WidgetLayout, len(layout))
	for k, v := range layout {
		out[k] = v
	}
	p.Visible = visible
	out[key] = p
	return out, nil
}
