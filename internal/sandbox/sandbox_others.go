//go:build !openbsd

package sandbox

// Protect is a no-op outside OpenBSD, which is the only platform pledge(2)
// exists on (same split as src/protector/protector_openbsd.go, generalized
// with a build-tag sibling since the teacher snapshot only shipped the
// OpenBSD variant).
func Protect() {}
