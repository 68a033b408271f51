package storage

import (
	"context"
	"time"
)

// MessageRecord is the persisted shape of one direct message. The ciphertext
// is opaque to the gateway; it is produced and consumed by the clients.
type MessageRecord struct {
	ID         string    `bson:"_id" json:"messageId"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	Ciphertext string    `bson:"ciphertext" json:"ciphertext"`
	AvatarURL  string    `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Read       bool      `bson:"read" json:"read"`
	Deleted    bool      `bson:"deleted" json:"deleted"`
	EditedAt   time.Time `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// MessagePatch is the author-scoped mutation shared by edit and soft-delete.
type MessagePatch struct {
	Ciphertext *string
	AvatarURL  *string
	Deleted    *bool
}

// MessageStore is the persistence collaborator the delivery core calls.
// MarkRead and UpdateIfAuthor return (nil, nil) when no document matches;
// the router turns that into best-effort silence or a generic denial.
type MessageStore interface {
	CreateMessage(ctx context.Context, senderID, receiverID, ciphertext, avatarURL string) (*MessageRecord, error)
	MarkRead(ctx context.Context, messageID string) (*MessageRecord, error)
	UpdateIfAuthor(ctx context.Context, messageID, authorID string, patch MessagePatch) (*MessageRecord, error)
}
