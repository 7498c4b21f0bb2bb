package docstore

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"github.com/cssvb94/vectorlitedb/pkg/encryption"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
)

const entryKeyPrefix = "entry:"

func entryKey(id knowledge.ID) []byte {
	return append([]byte(entryKeyPrefix), []byte(id)...)
}

// BadgerStore is a DocumentStore backed by a BadgerDB directory. Content is
// optionally encrypted at rest when constructed with a non-empty password;
// everything else in the entry (metadata, tags, relations, the embedding)
// is stored in the clear, since the ANN index needs the embedding and
// filters need the metadata without a decrypt round trip.
type BadgerStore struct {
	db  *badger.DB
	enc *encryption.Encryptor
}

// OpenBadgerStore opens (creating if absent) a BadgerDB database at path.
// An empty password disables content encryption.
func OpenBadgerStore(path, password string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, enc: encryption.NewEncryptorWithPassword(password)}, nil
}

type wireEntry struct {
	knowledge.KnowledgeEntry
	ContentEncrypted string `json:"contentEncrypted,omitempty"`
}

func (s *BadgerStore) encode(e *knowledge.KnowledgeEntry) ([]byte, error) {
	w := wireEntry{KnowledgeEntry: *e}
	if s.enc.IsEnabled() {
		ciphertext, err := s.enc.EncryptString(e.Content)
		if err != nil {
			return nil, err
		}
		w.ContentEncrypted = ciphertext
		w.Content = ""
	}
	return json.Marshal(w)
}

func (s *BadgerStore) decode(data []byte) (*knowledge.KnowledgeEntry, error) {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.ContentEncrypted != "" {
		plaintext, err := s.enc.DecryptString(w.ContentEncrypted)
		if err != nil {
			return nil, err
		}
		w.Content = plaintext
	}
	entry := w.KnowledgeEntry
	return &entry, nil
}

func (s *BadgerStore) Get(id knowledge.ID) (*knowledge.KnowledgeEntry, bool, error) {
	var entry *knowledge.KnowledgeEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := s.decode(val)
			if err != nil {
				return err
			}
			entry = decoded
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return entry, entry != nil, nil
}

func (s *BadgerStore) Put(entry *knowledge.KnowledgeEntry) error {
	data, err := s.encode(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ID), data)
	})
}

func (s *BadgerStore) Delete(id knowledge.ID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(entryKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (s *BadgerStore) All() ([]*knowledge.KnowledgeEntry, error) {
	var out []*knowledge.KnowledgeEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				entry, err := s.decode(val)
				if err != nil {
					return err
				}
				out = append(out, entry)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
