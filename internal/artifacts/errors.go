package artifacts

import "errors"

// Sentinel errors - store
var (
	ErrStoreCorrupted = errors.New("artifacts: store file corrupted")
	ErrStorePersist   = errors.New("artifacts: failed to persist store")
)

// Sentinel errors - lookups
var (
	ErrArtifactNotFound   = errors.New("artifacts: artifact not found")
	ErrDeploymentNotFound = errors.New("artifacts: deployment not found")
	ErrDeploymentExists   = errors.New("artifacts: deployment already recorded")
)

// Sentinel errors - bundles
var (
	ErrBundleCorrupted = errors.New("artifacts: bundle checksum mismatch")
	ErrBundleMalformed = errors.New("artifacts: bundle is malformed")
)
