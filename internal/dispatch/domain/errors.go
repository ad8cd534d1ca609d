package domain

import (
	"errors"
	"fmt"
)

// Configuration-consistency errors raised while building the candidate list.
var (
	ErrClusterConfigMissing        = errors.New("cluster config missing")
	ErrTenantNotAllowedOnCluster   = errors.New("tenant not allowed on cluster")
	ErrEnvNotAllowedOnCluster      = errors.New("env not allowed on cluster")
	ErrClaimRequired               = errors.New("claim is required for tfworkspaces platforms")
	ErrApplicationConfigMissing    = errors.New("application config missing")
	ErrConflictingServiceSelectors = errors.New("service_names and image_keys are mutually exclusive")
)

// Version and image resolution errors.
var (
	ErrNoMatchingRelease      = errors.New("no release matches the semver filter")
	ErrUnparsableSemverFilter = errors.New("semver filter has no numeric components")
	ErrBuildSummaryNotFound   = errors.New("build summary not found")
	ErrImageNotInBuildSummary = errors.New("no build summary entry matches")
	ErrAmbiguousBuildSummary  = errors.New("more than one build summary entry matches")
	ErrNotFound               = errors.New("not found")
)

// ValidationError attaches the identity of the offending deployment to a
// configuration-consistency error.
type ValidationError struct {
	Application string
	Tenant      string
	Flavor      string
	Type        string
	Env         string
	Platform    string
	Err         error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (application=%s tenant=%s flavor=%s type=%s env=%s platform=%s)",
		e.Err, e.Application, e.Tenant, e.Flavor, e.Type, e.Env, e.Platform)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err with the identifying fields of d.
func NewValidationError(d Deployment, err error) *ValidationError {
	return &ValidationError{
		Application: d.Application,
		Tenant:      d.Tenant,
		Flavor:      d.Flavor,
		Type:        string(d.Type),
		Env:         d.Env,
		Platform:    d.Platform,
		Err:         err,
	}
}
