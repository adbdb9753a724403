package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/discovered-games/careerbingo/internal/bingo/match"
	"github.com/discovered-games/careerbingo/internal/byteutil"
	"github.com/discovered-games/careerbingo/internal/cache"
	"github.com/discovered-games/careerbingo/internal/database"
	"github.com/discovered-games/careerbingo/internal/database/eventlog/model"
	bolt "go.etcd.io/bbolt"
)

const (
	eventsPrefix    = "events"
	summariesBucket = "summaries"
)

var ErrNotFound = fmt.Errorf("not found")

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

// DB is the durable side of the persistence contract: an append-only event
// log per session plus one summary row per finished session, with an LRU
// cache on the summary read path.
type DB struct {
	sDB   *database.DB
	cache cache.Cache
}

var _ match.Recorder = (*DB)(nil)

func (db *DB) eventsBucket(sessionID string) []byte {
	return []byte(eventsPrefix + sessionID)
}

// Record appends one event to the session's log. A session_completed event
// additionally lands in the summaries bucket as the session's last known
// state.
func (db *DB) Record(sessionID string, ev match.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("json marshal payload: %w", err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(db.eventsBucket(sessionID))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		row := model.Event{
			SessionID: sessionID,
			Seq:       seq,
			Kind:      ev.Kind(),
			Payload:   payload,
			CreatedAt: time.Now(),
		}

		raw, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("json marshal event: %w", err)
		}

		if err := b.Put(byteutil.EncodeUint64ToBytes(seq), raw); err != nil {
			return fmt.Errorf("put event: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	if completed, ok := ev.(match.SessionCompleted); ok {
		if err := db.storeSummary(sessionID, completed); err != nil {
			return fmt.Errorf("store summary: %w", err)
		}
	}

	return nil
}

// FetchSession returns a session's full event log in append order.
func (db *DB) FetchSession(sessionID string) ([]model.Event, error) {
	var list []model.Event

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(db.eventsBucket(sessionID))
		if b == nil {
			return ErrNotFound
		}

		if err := b.ForEach(func(k, v []byte) error {
			var row model.Event
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, row)
			return nil
		}); err != nil {
			return fmt.Errorf("bucket for each: %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) storeSummary(sessionID string, ev match.SessionCompleted) error {
	scores, err := json.Marshal(ev.FinalScores)
	if err != nil {
		return fmt.Errorf("json marshal scores: %w", err)
	}

	summary := model.Summary{
		SessionID:   sessionID,
		Reason:      string(ev.Reason),
		FinalScores: scores,
		CreatedAt:   time.Now(),
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("json marshal summary: %w", err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(summariesBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		if err := b.Put([]byte(sessionID), raw); err != nil {
			return fmt.Errorf("put summary: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(sessionID, summary)
	}

	return nil
}

// FetchSummary loads a finished session's summary, from cache when warm.
func (db *DB) FetchSummary(sessionID string) (model.Summary, error) {
	if db.cache != nil {
		if v, ok := db.cache.Get(sessionID); ok {
			if summary, ok := v.(model.Summary); ok {
				return summary, nil
			}
		}
	}

	var summary model.Summary
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(summariesBucket))
		if b == nil {
			return ErrNotFound
		}

		raw := b.Get([]byte(sessionID))
		if raw == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(raw, &summary); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return summary, ErrNotFound
		}
		return summary, fmt.Errorf("view transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(sessionID, summary)
	}

	return summary, nil
}
