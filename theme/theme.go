// Package theme normalizes the runtime display-theme signal into the two
// themes the renderer distinguishes.
package theme

import "context"

// Theme is the display theme a diagram is rendered for.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// Parse maps a theme signal to a Theme. Only "dark" selects Dark; every other
// value, including "", "system" and unknown names, selects Light.
func Parse(signal string) Theme {
	if signal == string(Dark) {
		return Dark
	}
	return Light
}

// String implements fmt.Stringer.
func (t Theme) String() string {
	return string(t)
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool {
	return t == Dark
}

// Signal reports the currently resolved display theme name, for example
// "dark", "light" or "system".
type Signal interface {
	ResolvedTheme(ctx context.Context) string
}

// SignalFunc adapts a function to the Signal interface.
type SignalFunc func(ctx context.Context) string

// ResolvedTheme calls f(ctx).
func (f SignalFunc) ResolvedTheme(ctx context.Context) string {
	return f(ctx)
}

// Static is a Signal that always reports the same theme name.
type Static string

// ResolvedTheme returns the static theme name.
func (s Static) ResolvedTheme(context.Context) string {
	return string(s)
}

// Current reads sig and normalizes the result. A nil signal yields Light.
func Current(ctx context.Context, sig Signal) Theme {
	if sig == nil {
		return Light
	}
	return Parse(sig.ResolvedTheme(ctx))
}
