package translate

import "context"

// Backend translates a single piece of text.
type Backend interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Limited is implemented by backends that reject input longer than MaxChars runes.
type Limited interface {
	MaxChars() int
}

// ByteLimited is implemented by backends whose cap is measured in UTF-8 bytes.
type ByteLimited interface {
	MaxBytes() int
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc struct {
	Label string
	Fn    func(ctx context.Context, text, source, target string) (string, error)
}

func (b BackendFunc) Name() string { return b.Label }

func (b BackendFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return b.Fn(ctx, text, source, target)
}
