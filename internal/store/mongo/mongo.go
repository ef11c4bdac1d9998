package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/store"
)

// snapshotDocument stores the encoded snapshot as a string so decimal and
// time fields keep the same representation as the other backends.
type snapshotDocument struct {
	WorkspaceID string    `bson:"_id"`
	Payload     string    `bson:"payload"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type Store struct {
	client   *mongo.Client
	dbName   string
	collName string
}

func New(ctx context.Context, uri string, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	if dbName == "" {
		dbName = "sweetlive"
	}
	return &Store{client: client, dbName: dbName, collName: "workspace_snapshots"}, nil
}

func (s *Store) collection() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.collName)
}

func (s *Store) Load(ctx context.Context, workspaceID string) (domain.Snapshot, error) {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	var doc snapshotDocument
	err = s.collection().FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Snapshot{}.Normalize(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return store.Decode([]byte(doc.Payload))
}

func (s *Store) Save(ctx context.Context, workspaceID string, snapshot domain.Snapshot) error {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return err
	}
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}

	doc := snapshotDocument{WorkspaceID: key, Payload: string(payload), UpdatedAt: time.Now().UTC()}
	_, err = s.collection().ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
