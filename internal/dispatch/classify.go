package dispatch

import (
	"errors"

	"github.com/ryanccn-fork/moldau/internal/cache"
	"github.com/ryanccn-fork/moldau/internal/descriptor"
	"github.com/ryanccn-fork/moldau/internal/registryclient"
	"github.com/ryanccn-fork/moldau/internal/resolver"
	"github.com/ryanccn-fork/moldau/internal/verify"
)

type class int

const (
	classUnknown class = iota
	classConfig
	classNetwork
	classVerification
	classFilesystem
)

// classify buckets a pipeline error into the four non-success exit-code
// categories. Errors not recognized here fall back to classConfig (exit 1)
// in ExitCode, matching the scheme's catch-all.
func classify(err error) class {
	var (
		kindMismatch      *KindMismatchError
		descKindMismatch  *descriptor.KindMismatchError
		unsupportedBerry  *resolver.UnsupportedBerryError
		tagUnknown        *resolver.TagUnknownError
		noMatchingVersion *resolver.NoMatchingVersionError
		resolverPin       *resolver.IntegrityPinMismatchError

		notFound  *registryclient.NotFoundError
		authErr   *registryclient.AuthError
		unavail   *registryclient.UnavailableError

		shasumMismatch  *verify.ShasumMismatchError
		integrityMismatch *verify.IntegrityMismatchError
		pinMismatch     *verify.IntegrityPinMismatchError
		sigInvalid      *verify.SignatureInvalidError
		collisionFound  *verify.CollisionDetectedError

		fsErr       *cache.FilesystemError
		unsafeEntry *cache.UnsafeEntryError
	)

	switch {
	case errors.As(err, &kindMismatch),
		errors.As(err, &descKindMismatch),
		errors.As(err, &unsupportedBerry),
		errors.As(err, &tagUnknown),
		errors.As(err, &noMatchingVersion),
		errors.As(err, &resolverPin):
		return classConfig

	case errors.As(err, &notFound),
		errors.As(err, &authErr),
		errors.As(err, &unavail),
		errors.Is(err, registryclient.ErrNotFound):
		return classNetwork

	case errors.As(err, &shasumMismatch),
		errors.As(err, &integrityMismatch),
		errors.As(err, &pinMismatch),
		errors.As(err, &sigInvalid),
		errors.As(err, &collisionFound):
		return classVerification

	case errors.As(err, &fsErr),
		errors.As(err, &unsafeEntry):
		return classFilesystem

	default:
		return classUnknown
	}
}
