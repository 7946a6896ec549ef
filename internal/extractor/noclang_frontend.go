//go:build !clang

package extractor

import (
	"context"

	"github.com/pkg/errors"
)

// stubFrontend satisfies Frontend when the binary was built without the
// "clang" tag, so the rest of the package (and anything that only needs
// the portable walker) still compiles and links without cgo or libclang.
type stubFrontend struct{}

// NewClangFrontend returns a Frontend that fails every Parse call. Build
// with -tags clang to get the real github.com/go-clang/clang-v14 adapter.
func NewClangFrontend() *stubFrontend {
	return &stubFrontend{}
}

func (*stubFrontend) Parse(ctx context.Context, path string, args []string) (TranslationUnit, error) {
	return nil, errors.New("clang support not built into this binary; rebuild with -tags clang")
}

func (*stubFrontend) ResourceDir() string { return "" }

func (*stubFrontend) Dispose() {}
