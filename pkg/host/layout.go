package host

// Layout holds the auto-layout attributes of an instance.
type Layout struct {
	Align            string  `json:"layoutAlign,omitempty"`
	Grow             float64 `json:"layoutGrow,omitempty"`
	Mode             string  `json:"layoutMode,omitempty"`
	Positioning      string  `json:"layoutPositioning,omitempty"`
	Wrap             string  `json:"layoutWrap,omitempty"`
	PrimaryAxisAlign string  `json:"primaryAxisAlignItems,omitempty"`
	CounterAxisAlign string  `json:"counterAxisAlignItems,omitempty"`
	PrimarySizing    string  `json:"primaryAxisSizingMode,omitempty"`
	CounterSizing    string  `json:"counterAxisSizingMode,omitempty"`
	PaddingLeft      float64 `json:"paddingLeft,omitempty"`
	PaddingRight     float64 `json:"paddingRight,omitempty"`
	PaddingTop       float64 `json:"paddingTop,omitempty"`
	PaddingBottom    float64 `json:"paddingBottom,omitempty"`
	ItemSpacing      float64 `json:"itemSpacing,omitempty"`
}

// DefaultLayout is the layout a freshly created instance reports.
func DefaultLayout() Layout {
	return Layout{
		Align:            "STRETCH",
		Mode:             "NONE",
		Positioning:      "AUTO",
		Wrap:             "NO_WRAP",
		PrimaryAxisAlign: "MIN",
		CounterAxisAlign: "MIN",
		PrimarySizing:    "AUTO",
		CounterSizing:    "AUTO",
	}
}

// NonDefault returns a layout holding only the fields of l that differ from
// DefaultLayout; the rest are zero.
func (l Layout) NonDefault() Layout {
	d := DefaultLayout()
	var out Layout
	if l.Align != "" && l.Align != d.Align {
		out.Align = l.Align
	}
	if l.Grow != 0 {
		out.Grow = l.Grow
	}
	if l.Mode != "" && l.Mode != d.Mode {
		out.Mode = l.Mode
	}
	if l.Positioning != "" && l.Positioning != d.Positioning {
		out.Positioning = l.Positioning
	}
	if l.Wrap != "" && l.Wrap != d.Wrap {
		out.Wrap = l.Wrap
	}
	if l.PrimaryAxisAlign != "" && l.PrimaryAxisAlign != d.PrimaryAxisAlign {
		out.PrimaryAxisAlign = l.PrimaryAxisAlign
	}
	if l.CounterAxisAlign != "" && l.CounterAxisAlign != d.CounterAxisAlign {
		out.CounterAxisAlign = l.CounterAxisAlign
	}
	if l.PrimarySizing != "" && l.PrimarySizing != d.PrimarySizing {
		out.PrimarySizing = l.PrimarySizing
	}
	if l.CounterSizing != "" && l.CounterSizing != d.CounterSizing {
		out.CounterSizing = l.CounterSizing
	}
	out.PaddingLeft = l.PaddingLeft
	out.PaddingRight = l.PaddingRight
	out.PaddingTop = l.PaddingTop
	out.PaddingBottom = l.PaddingBottom
	out.ItemSpacing = l.ItemSpacing
	return out
}

// IsZero reports whether no field is set.
func (l Layout) IsZero() bool {
	return l == Layout{}
}

// Overlay copies every non-zero field of patch onto l.
func (l Layout) Overlay(patch Layout) Layout {
	if patch.Align != "" {
		l.Align = patch.Align
	}
	if patch.Grow != 0 {
		l.Grow = patch.Grow
	}
	if patch.Mode != "" {
		l.Mode = patch.Mode
	}
	if patch.Positioning != "" {
		l.Positioning = patch.Positioning
	}
	if patch.Wrap != "" {
		l.Wrap = patch.Wrap
	}
	if patch.PrimaryAxisAlign != "" {
		l.PrimaryAxisAlign = patch.PrimaryAxisAlign
	}
	if patch.CounterAxisAlign != "" {
		l.CounterAxisAlign = patch.CounterAxisAlign
	}
	if patch.PrimarySizing != "" {
		l.PrimarySizing = patch.PrimarySizing
	}
	if patch.CounterSizing != "" {
		l.CounterSizing = patch.CounterSizing
	}
	if patch.PaddingLeft != 0 {
		l.PaddingLeft = patch.PaddingLeft
	}
	if patch.PaddingRight != 0 {
		l.PaddingRight = patch.PaddingRight
	}
	if patch.PaddingTop != 0 {
		l.PaddingTop = patch.PaddingTop
	}
	if patch.PaddingBottom != 0 {
		l.PaddingBottom = patch.PaddingBottom
	}
	if patch.ItemSpacing != 0 {
		l.ItemSpacing = patch.ItemSpacing
	}
	return l
}
