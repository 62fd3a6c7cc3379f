package model

// Migratable lists every table owned by the realtime core, in dependency order.
func Migratable() []interface{} {
	return []interface{}{
		&User{},
		&Notification{},
		&NotificationRead{},
		&DirectMessage{},
		&DirectMessageReaction{},
		&DirectConversation{},
		&ChatLog{},
	}
}
