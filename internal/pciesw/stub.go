//go:build !h3ppci

package pciesw

import "github.com/h3platform/pciemon/internal/errors"

// New reports the vendor library as unavailable. Builds carrying the
// h3ppci tag replace this with the cgo binding.
func New() (Library, error) {
	return nil, errors.New().WithMessage(ErrLibraryUnavailable,
		"built without the h3ppci vendor library; rebuild with -tags h3ppci or run with --simulate")
}
