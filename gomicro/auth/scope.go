package auth

import "github.com/nexzo/platform/gomicro/apperror"

// EnsureTenantScope fails with Forbidden unless the caller has a tenant and
// it equals the target tenant. Callers check it against the tenant named in
// the request before any read, and again against the tenant loaded from
// storage before any write.
func EnsureTenantScope(callerTenantID, targetTenantID string) error {
	return EnsureTenantScopef(callerTenantID, targetTenantID, "Cross-tenant access is not permitted")
}

// EnsureTenantScopef is EnsureTenantScope with a caller-specific message
func EnsureTenantScopef(callerTenantID, targetTenantID, message string) error {
	if !InScope(callerTenantID, targetTenantID) {
		return apperror.Forbidden(message)
	}
	return nil
}

// InScope reports whether a caller tenant may act on the target tenant
func InScope(callerTenantID, targetTenantID string) bool {
	return callerTenantID != "" && callerTenantID == targetTenantID
}
