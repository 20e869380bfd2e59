package domain

// RelayMessage is a note left with the concierge for an avatar who is not
// present, delivered the next time that avatar checks in.
type RelayMessage struct {
	ID          MessageID
	FromKey     AvatarKey
	FromName    string
	ToKey       AvatarKey
	Content     string
	Delivered   bool
	CreatedAt   Timestamp
	DeliveredAt *Timestamp
}
