// Package transform provides the per-element transformations the cache
// memoizes.
package transform

import (
	"context"

	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Func adapts a plain function to ports.Transformer.
type Func func(ctx context.Context, input string) (string, error)

func (f Func) Transform(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

// Uppercase maps input to its full Unicode upper case, so special casings
// expand ("ß" becomes "SS"). It is the stand-in for an external computation
// and never fails.
type Uppercase struct{}

func (Uppercase) Transform(_ context.Context, input string) (string, error) {
	// Casers keep state and must not be shared between goroutines
	return cases.Upper(language.Und).String(input), nil
}

var (
	_ ports.Transformer = Func(nil)
	_ ports.Transformer = Uppercase{}
)
