// Package db persists chat sessions and conversation turns in badger.
// Keys: "session:<id>" for sessions, "chat:<session>:<nanos>" for turns
// so a prefix scan returns a session's history in order.
package db

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"askdb/models"
)

type DB struct {
	badgerDB *badger.DB
}

func New(dbPath string) (*DB, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable badger logging for cleaner output

	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{badgerDB: badgerDB}, nil
}

func (d *DB) Close() error {
	return d.badgerDB.Close()
}

// AddChatHistory appends one turn to its session. The orchestrator calls
// this fire-and-forget; errors are logged by the caller, never fatal.
func (d *DB) AddChatHistory(turn models.ChatTurn) error {
	if turn.SessionID == "" {
		turn.SessionID = models.DefaultChatSessionID
	}
	if turn.CreatedAt == "" {
		turn.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		key := []byte(fmt.Sprintf("chat:%s:%d", turn.SessionID, time.Now().UnixNano()))
		data, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// GetSessionMessages returns a session's turns oldest first.
func (d *DB) GetSessionMessages(sessionID string) ([]models.ChatTurn, error) {
	var turns []models.ChatTurn

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fmt.Sprintf("chat:%s:", sessionID))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var turn models.ChatTurn
				if err := json.Unmarshal(val, &turn); err != nil {
					return err
				}
				turns = append(turns, turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return turns, err
}

func (d *DB) StoreChatSession(sess *models.ChatSession) error {
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		return txn.Set([]byte("session:"+sess.ID), data)
	})
}

func (d *DB) GetChatSession(sessionID string) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := d.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("session:" + sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListChatSessions returns every session, most recently updated first.
func (d *DB) ListChatSessions() ([]models.ChatSession, error) {
	var sessions []models.ChatSession

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("session:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var sess models.ChatSession
				if err := json.Unmarshal(val, &sess); err != nil {
					return err
				}
				sessions = append(sessions, sess)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt > sessions[j].UpdatedAt
	})
	return sessions, nil
}

func (d *DB) UpdateChatSessionTitle(sessionID, title string) error {
	sess, err := d.GetChatSession(sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}
	sess.Title = strings.TrimSpace(title)
	sess.UpdatedAt = time.Now().Format(time.RFC3339)
	return d.StoreChatSession(sess)
}

// DeleteChatSession removes a session and all its turns.
func (d *DB) DeleteChatSession(sessionID string) error {
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte("session:" + sessionID)); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fmt.Sprintf("chat:%s:", sessionID))
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureDefaultChatSession creates the default session on first use.
func (d *DB) EnsureDefaultChatSession() error {
	sess, err := d.GetChatSession(models.DefaultChatSessionID)
	if err != nil {
		return err
	}
	if sess != nil {
		return nil
	}
	now := time.Now().Format(time.RFC3339)
	return d.StoreChatSession(&models.ChatSession{
		ID:        models.DefaultChatSessionID,
		Title:     "New chat",
		CreatedAt: now,
		UpdatedAt: now,
	})
}
