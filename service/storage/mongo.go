package storage

import (
	"context"
	"time"

	"CipherChat/tools/ids"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const msgCollection = "messages"

// MongoStore persists direct messages in a single `messages` collection.
type MongoStore struct {
	coll *mongo.Collection
}

type MongoConfig struct {
	Uri         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize uint64
}

func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.Uri)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(cctx, nil); err != nil {
		return nil, pkgerrors.Wrap(err, "mongo ping")
	}
	return &MongoStore{coll: client.Database(cfg.Database).Collection(msgCollection)}, nil
}

func (s *MongoStore) CreateMessage(ctx context.Context, senderID, receiverID, ciphertext, avatarURL string) (*MessageRecord, error) {
	rec := &MessageRecord{
		ID:         ids.GenerateString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Ciphertext: ciphertext,
		AvatarURL:  avatarURL,
		CreatedAt:  time.Now(),
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return nil, pkgerrors.Wrap(err, "insert message")
	}
	return rec, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, messageID string) (*MessageRecord, error) {
	filter := bson.M{"_id": messageID, "deleted": false}
	update := bson.M{"$set": bson.M{"read": true}}

	var rec MessageRecord
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mark read")
	}
	return &rec, nil
}

// UpdateIfAuthor applies the patch only when messageID exists AND authorID
// wrote it; both misses look the same to the caller.
func (s *MongoStore) UpdateIfAuthor(ctx context.Context, messageID, authorID string, patch MessagePatch) (*MessageRecord, error) {
	set := bson.M{}
	if patch.Ciphertext != nil {
		set["ciphertext"] = *patch.Ciphertext
		set["edited_at"] = time.Now()
	}
	if patch.AvatarURL != nil {
		set["avatar_url"] = *patch.AvatarURL
	}
	if patch.Deleted != nil {
		set["deleted"] = *patch.Deleted
	}
	if len(set) == 0 {
		return nil, pkgerrors.New("empty patch")
	}

	filter := bson.M{"_id": messageID, "sender_id": authorID}
	var rec MessageRecord
	err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "update if author")
	}
	return &rec, nil
}
