package domain

// Exchange is one completed message/reply pair. Records are append-only from
// the engine's perspective; the RoleLabel is a snapshot taken at write time
// for audit purposes and must not be treated as the speaker's current role.
type Exchange struct {
	ID          MessageID
	AvatarKey   AvatarKey
	AvatarName  string
	RoleLabel   string
	MessageText string
	Reply       string
	SessionID   SessionID
	Timestamp   Timestamp
}
