package ddbstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// Store is a DynamoDB-compatible table store backed by BadgerDB.
// Each write runs in one badger transaction, so conditional puts are
// atomic compare-and-swap operations.
type Store struct {
	db *badger.DB

	mu     sync.RWMutex
	tables map[string]table.TableDefinition
}

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// maxTxnAttempts bounds retries of transactions that lose a badger
// write-write conflict against a concurrent writer.
const maxTxnAttempts = 32

// New opens a store. Tables created by earlier runs on the same path are
// loaded; defs are created if they do not exist yet.
func New(opts StoreOptions, defs ...table.TableDefinition) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)

	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		tables: make(map[string]table.TableDefinition),
	}
	if err := s.loadTables(); err != nil {
		db.Close()
		return nil, err
	}
	for _, def := range defs {
		if _, exists := s.tables[def.Name]; exists {
			continue
		}
		if err := s.saveTable(def); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getTable(tableName *string) (table.TableDefinition, error) {
	if tableName == nil {
		return table.TableDefinition{}, fmt.Errorf("table name is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.tables[*tableName]
	if !ok {
		return table.TableDefinition{}, &types.ResourceNotFoundException{
			Message: ptrStr(fmt.Sprintf("Requested resource not found: Table: %s not found", *tableName)),
		}
	}
	return def, nil
}

func (s *Store) loadTables() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: metaTablePrefix(), PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var def table.TableDefinition
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &def)
			})
			if err != nil {
				return fmt.Errorf("load table definition %q: %w", it.Item().Key(), err)
			}
			s.tables[def.Name] = def
		}
		return nil
	})
}

// saveTable persists def and registers it. Callers hold s.mu or own s exclusively.
func (s *Store) saveTable(def table.TableDefinition) error {
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode table definition: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaTableKey(def.Name), raw)
	})
	if err != nil {
		return fmt.Errorf("save table definition %q: %w", def.Name, err)
	}
	s.tables[def.Name] = def
	return nil
}

// update runs fn in a read-write transaction, retrying when badger reports
// a conflict with a concurrent transaction. fn is re-run from scratch, so
// conditions are evaluated against the state that is finally committed.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnAttempts {
		err = s.db.Update(fn)
		if err != badger.ErrConflict {
			return err
		}
	}
	return fmt.Errorf("transaction kept conflicting after %d attempts: %w", maxTxnAttempts, err)
}

func ptrStr(s string) *string {
	return &s
}
