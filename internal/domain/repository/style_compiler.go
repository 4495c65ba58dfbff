package repository

import "context"

// StyleCompiler turns markup into a stylesheet holding only the utility classes it uses.
// Implementations degrade to "" instead of failing.
type StyleCompiler interface {
	Compile(ctx context.Context, markup string) string
}
