package services

// GuestIdentity is the sentinel identity used when no authenticated user is
// attached to the request.
const GuestIdentity = "guest"

// Storage key kinds. One cart key plus three checkout staging keys exist per
// identity; the staging keys are only present while a checkout is in flight.
const (
	kindCart      = "cart"
	kindStage     = "checkoutStage"
	kindBackup    = "checkoutBackup"
	kindCompleted = "checkoutCompleted"
)

// storageKey derives the durable-storage key for one kind of state scoped to
// one identity. All key construction goes through here so the layout can be
// asserted in one place.
func storageKey(kind, identity string) string {
	if identity == "" {
		identity = GuestIdentity
	}
	return kind + ":" + identity
}
