package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token of an admin client required
)

// RouteSecurityConfig maps "METHOD path-template" to its required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	// Public
	"GET /health":             SecurityPublic,
	"POST /api/v1/auth/token": SecurityPublic,

	// Rentals
	"POST /api/v1/rentals":              SecurityAccess,
	"GET /api/v1/rentals/{id}":          SecurityAccess,
	"POST /api/v1/rentals/{id}/return":  SecurityAccess,
	"POST /api/v1/rentals/{id}/charges": SecurityAdmin,
	"GET /api/v1/rentals/overdue":       SecurityAccess,

	// Ledger and reporting
	"GET /api/v1/ledger":                SecurityAdmin,
	"GET /api/v1/ledger/entries":        SecurityAdmin,
	"GET /api/v1/inventory/utilization": SecurityAccess,
	"GET /api/v1/quotes":                SecurityAccess,
	"GET /api/v1/late-fees":             SecurityAccess,

	// Catalog
	"GET /api/v1/inventory/items":                SecurityAccess,
	"GET /api/v1/inventory/items/{id}":           SecurityAccess,
	"POST /api/v1/inventory/items":               SecurityAdmin,
	"PUT /api/v1/inventory/items/{id}/condition": SecurityAdmin,
	"POST /api/v1/customers":                     SecurityAdmin,
	"GET /api/v1/customers/{id}/risk":            SecurityAccess,
	"PUT /api/v1/customers/{id}/risk":            SecurityAdmin,
	"DELETE /api/v1/customers/{id}/risk":         SecurityAdmin,
	"GET /api/v1/customers/{id}/rentals":         SecurityAccess,
	"PUT /api/v1/customers/{id}/status":          SecurityAdmin,
	"PUT /api/v1/customers/{id}/blacklist":       SecurityAdmin,

	// gRPC, keyed by full method name
	"/grpc.health.v1.Health/Check":                                   SecurityPublic,
	"/grpc.health.v1.Health/Watch":                                   SecurityPublic,
	"/grpc.health.v1.Health/List":                                    SecurityPublic,
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityAccess,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityAccess,
}

// GetSecurityLevel returns the security level for a route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
