package auth

// Identity is the authenticated caller, resolved once at the HTTP boundary
// and passed explicitly into services. Components never re-derive it.
type Identity struct {
	UserID   uint64
	Username string
	IsAdmin  bool
}
