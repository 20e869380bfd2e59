package domain

// Identity is the persisted profile for a speaker, keyed by their stable
// avatar key. Exactly one entry exists per key; it is created lazily on
// first contact and never hard-deleted by the chat path.
type Identity struct {
	Key         AvatarKey
	DisplayName string
	Role        Role

	// Free-text notes used to personalise generated replies.
	PersonalityNotes string
	FavoriteDrink    string

	CreatedAt Timestamp
	LastSeen  Timestamp
}
