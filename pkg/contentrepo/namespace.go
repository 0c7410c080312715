package contentrepo

import (
	"context"
	"strings"
)

type tenantKey struct{}

// WithTenant returns a copy of ctx carrying the tenant name.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFromContext returns the tenant name stored by WithTenant.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(string)
	return tenant, ok
}

// Namespace derives the storage namespace from a tenant name by removing all
// spaces and trimming surrounding whitespace.
func Namespace(tenant string) string {
	return strings.TrimSpace(strings.ReplaceAll(tenant, " ", ""))
}

// NamespaceFromContext resolves the namespace of the tenant carried by ctx.
func NamespaceFromContext(ctx context.Context) (string, error) {
	tenant, _ := TenantFromContext(ctx)
	ns := Namespace(tenant)
	if ns == "" {
		return "", NewError(ErrEmptyNamespace, "resolve namespace", tenant, "no tenant in request context")
	}
	return ns, nil
}
