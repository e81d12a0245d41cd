// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{
		backend: backend,
	}
}

// SaveSession persists the turns of a session, replacing what was stored.
func (r *SessionRepository) SaveSession(ctx context.Context, sessionID string, turns []core.Turn) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSessionKey(sessionID), storage.MarshalTurns(turns)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadSessions retrieves every stored session.
func (r *SessionRepository) LoadSessions(ctx context.Context) (map[string][]core.Turn, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	sessions := make(map[string][]core.Turn)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeSessionKey("")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			sessionID := strings.TrimPrefix(string(item.Key()), string(prefix))
			err := item.Value(func(val []byte) error {
				turns, err := storage.UnmarshalTurns(val)
				if err != nil {
					return err
				}
				sessions[sessionID] = turns
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a stored session.
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSessionKey(sessionID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
