// Package mongo implements store.Store on MongoDB. Each ledger and rollup is
// one document, replaced wholesale on save.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/ledger"
	ledgerstore "github.com/xraph/taxledger/store"
)

// Collection name constants.
const (
	colLedgers = "taxledger_ledgers"
	colRollups = "taxledger_rollups"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	db     *mongo.Database
	client *mongo.Client
}

// New creates a store on an existing database handle. Close leaves the
// client connected.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Open connects to uri and uses database. Close disconnects the client.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("taxledger/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // already failing
		return nil, fmt.Errorf("taxledger/mongo: ping: %w", err)
	}
	return &Store{db: client.Database(database), client: client}, nil
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all taxledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("taxledger/mongo: %w: %s indexes: %w", taxledger.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close disconnects the client if the store opened it.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// ==================== Ledger Store ====================

func (s *Store) SaveLedger(ctx context.Context, st *ledger.State) error {
	if st == nil || st.Owner == "" {
		return taxledger.ErrNoOwner
	}
	m := toLedgerModel(st)
	_, err := s.db.Collection(colLedgers).ReplaceOne(ctx,
		bson.M{"owner": st.Owner}, m,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("taxledger/mongo: save ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, owner string) (*ledger.State, error) {
	var m ledgerModel
	err := s.db.Collection(colLedgers).FindOne(ctx, bson.M{"owner": owner}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, taxledger.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("taxledger/mongo: get ledger: %w", err)
	}
	return fromLedgerModel(&m)
}

func (s *Store) ListLedgers(ctx context.Context) ([]*ledger.State, error) {
	cursor, err := s.db.Collection(colLedgers).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "owner", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("taxledger/mongo: list ledgers: %w", err)
	}

	var models []ledgerModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("taxledger/mongo: list ledgers: %w", err)
	}

	out := make([]*ledger.State, 0, len(models))
	for i := range models {
		st, err := fromLedgerModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("taxledger/mongo: %w", err)
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Store) DeleteLedger(ctx context.Context, owner string) error {
	res, err := s.db.Collection(colLedgers).DeleteOne(ctx, bson.M{"owner": owner})
	if err != nil {
		return fmt.Errorf("taxledger/mongo: delete ledger: %w", err)
	}
	if res.DeletedCount == 0 {
		return taxledger.ErrLedgerNotFound
	}
	return nil
}

// ==================== Rollup Store ====================

func (s *Store) SaveRollup(ctx context.Context, st *ledger.RollupState) error {
	if st == nil || st.Account == "" {
		return taxledger.ValidationError{Field: "account", Message: "is required"}
	}
	m := toRollupModel(st)
	_, err := s.db.Collection(colRollups).ReplaceOne(ctx,
		bson.M{"account": st.Account}, m,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("taxledger/mongo: save rollup: %w", err)
	}
	return nil
}

func (s *Store) GetRollup(ctx context.Context, account string) (*ledger.RollupState, error) {
	var m rollupModel
	err := s.db.Collection(colRollups).FindOne(ctx, bson.M{"account": account}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, taxledger.ErrRollupNotFound
		}
		return nil, fmt.Errorf("taxledger/mongo: get rollup: %w", err)
	}
	return fromRollupModel(&m)
}

func (s *Store) ListRollups(ctx context.Context) ([]*ledger.RollupState, error) {
	cursor, err := s.db.Collection(colRollups).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "account", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("taxledger/mongo: list rollups: %w", err)
	}

	var models []rollupModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("taxledger/mongo: list rollups: %w", err)
	}

	out := make([]*ledger.RollupState, 0, len(models))
	for i := range models {
		st, err := fromRollupModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("taxledger/mongo: %w", err)
		}
		out = append(out, st)
	}
	return out, nil
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colLedgers: {
			{
				Keys:    bson.D{{Key: "owner", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "updated_at", Value: -1}}},
		},
		colRollups: {
			{
				Keys:    bson.D{{Key: "account", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
