package storage

import (
	"context"
	"sync"
	"time"

	"CipherChat/tools/ids"
)

// MemoryStore is a goroutine-safe in-memory MessageStore. Used by tests and
// single-binary demos; production runs the Mongo store.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string]*MessageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string]*MessageRecord)}
}

func (s *MemoryStore) CreateMessage(_ context.Context, senderID, receiverID, ciphertext, avatarURL string) (*MessageRecord, error) {
	rec := &MessageRecord{
		ID:         ids.GenerateString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Ciphertext: ciphertext,
		AvatarURL:  avatarURL,
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.messages[rec.ID] = rec
	s.mu.Unlock()

	out := *rec
	return &out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, messageID string) (*MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.messages[messageID]
	if !ok || rec.Deleted {
		return nil, nil
	}
	rec.Read = true
	out := *rec
	return &out, nil
}

func (s *MemoryStore) UpdateIfAuthor(_ context.Context, messageID, authorID string, patch MessagePatch) (*MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.messages[messageID]
	if !ok || rec.SenderID != authorID {
		// Absence and ownership mismatch are indistinguishable on purpose.
		return nil, nil
	}
	if patch.Ciphertext != nil {
		rec.Ciphertext = *patch.Ciphertext
		rec.EditedAt = time.Now()
	}
	if patch.AvatarURL != nil {
		rec.AvatarURL = *patch.AvatarURL
	}
	if patch.Deleted != nil {
		rec.Deleted = *patch.Deleted
	}
	out := *rec
	return &out, nil
}
