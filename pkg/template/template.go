package template

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{"
	endTag   = "}"
)

// Template is a pair of placeholder-bearing strings.
type Template struct {
	Title   string `json:"title" yaml:"title"`
	Message string `json:"message" yaml:"message"`
}

// Render renders both strings of t against ctx.
func Render(t Template, ctx map[string]string) (title, message string) {
	return RenderString(t.Title, ctx), RenderString(t.Message, ctx)
}

// RenderString substitutes every {name} in s with ctx[name].
// Missing names become an inline error marker, see MissingMarker.
func RenderString(s string, ctx map[string]string) string {
	if !strings.Contains(s, startTag) {
		return s
	}
	return fasttemplate.ExecuteFuncString(s, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		name := strings.TrimSpace(tag)
		if v, ok := ctx[name]; ok {
			return io.WriteString(w, v)
		}
		return io.WriteString(w, MissingMarker(name))
	})
}

// MissingMarker is the text substituted for a placeholder with no value.
func MissingMarker(name string) string {
	return fmt.Sprintf("[template error: missing %q]", name)
}

// Placeholders returns the distinct placeholder names in s in order of first
// appearance.
func Placeholders(s string) []string {
	var names []string
	seen := make(map[string]struct{})
	for {
		start := strings.Index(s, startTag)
		if start < 0 {
			return names
		}
		s = s[start+len(startTag):]
		end := strings.Index(s, endTag)
		if end < 0 {
			return names
		}
		name := strings.TrimSpace(s[:end])
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		s = s[end+len(endTag):]
	}
}

// Missing reports the placeholders of t that ctx does not provide, joined as
// ErrMissingPlaceholder errors. It returns nil when ctx is complete.
// Useful for validating seeded templates; rendering does not need it.
func Missing(t Template, ctx map[string]string) error {
	var missing []string
	for _, s := range []string{t.Title, t.Message} {
		for _, name := range Placeholders(s) {
			if _, ok := ctx[name]; !ok {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingPlaceholder, strings.Join(missing, ", "))
}
