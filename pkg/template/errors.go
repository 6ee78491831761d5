package template

import "errors"

// ErrMissingPlaceholder is reported by Missing for each placeholder that has no
// value in the context. Render itself never returns it.
var ErrMissingPlaceholder = errors.New("template: missing placeholder")
