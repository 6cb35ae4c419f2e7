package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aequanimitas-app/backend/internal/models"
)

const (
	// PreferencesCollection holds one document per user, keyed by user ID.
	PreferencesCollection = "preferences"
	// JournalCollection holds the journal entries written by the journaling
	// feature. This service only reads it.
	JournalCollection = "journal_entries"
)

// MongoStore implements RemoteStore on top of MongoDB change streams.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// ReadPreferences returns the user's preference record, or ErrNotFound.
// A document that fails to decode is treated as absent, never as fatal.
func (s *MongoStore) ReadPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	var raw bson.Raw
	err := s.db.Collection(PreferencesCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	var prefs models.UserPreferences
	if err := bson.Unmarshal(raw, &prefs); err != nil {
		log.Printf("malformed preference record for user %s: %v", userID, err)
		return nil, ErrNotFound
	}
	return &prefs, nil
}

// WritePreferences upserts the record with $set so fields owned by other
// features survive. All preference fields are written explicitly, including
// cleared ones, so a reset actually clears them.
func (s *MongoStore) WritePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	update := bson.M{"$set": bson.M{
		"name":                 prefs.Name,
		"goals":                prefs.Goals,
		"familiarity":          prefs.Familiarity,
		"reflection_window":    prefs.ReflectionWindow,
		"completed_onboarding": prefs.CompletedOnboarding,
	}}
	_, err := s.db.Collection(PreferencesCollection).UpdateOne(
		ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// ReadJournal returns the user's entries ordered by created_at descending.
// Entries that fail to decode are skipped rather than failing the snapshot.
func (s *MongoStore) ReadJournal(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	findOptions := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.db.Collection(JournalCollection).Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]models.JournalEntry, 0)
	for cursor.Next(ctx) {
		var entry models.JournalEntry
		if err := cursor.Decode(&entry); err != nil {
			log.Printf("skipping malformed journal entry for user %s: %v", userID, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// WatchPreferences streams the user's preference document. The current state
// is delivered before the first change so consumers always start from a
// complete snapshot.
func (s *MongoStore) WatchPreferences(ctx context.Context, userID string, onChange func(*models.UserPreferences), onErr func(error)) (StopFunc, error) {
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: userID}}}}}
	csOptions := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	wctx, cancel := context.WithCancel(ctx)
	cs, err := s.db.Collection(PreferencesCollection).Watch(wctx, pipeline, csOptions)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	w := newWatcher(cancel)
	go func() {
		defer cs.Close(context.Background())

		current, err := s.ReadPreferences(wctx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			if wctx.Err() == nil {
				w.fail(onErr, err)
			}
			return
		}
		w.emit(func() { onChange(current) })

		for cs.Next(wctx) {
			var ev struct {
				OperationType string   `bson:"operationType"`
				FullDocument  bson.Raw `bson:"fullDocument"`
			}
			if err := cs.Decode(&ev); err != nil {
				continue
			}
			if ev.OperationType == "delete" {
				w.emit(func() { onChange(nil) })
				continue
			}
			var prefs models.UserPreferences
			if err := bson.Unmarshal(ev.FullDocument, &prefs); err != nil {
				// Malformed snapshot: treated as no record.
				log.Printf("malformed preference snapshot for user %s: %v", userID, err)
				w.emit(func() { onChange(nil) })
				continue
			}
			p := prefs
			w.emit(func() { onChange(&p) })
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil {
			w.fail(onErr, fmt.Errorf("preference stream: %w", err))
		}
	}()
	return w.stop, nil
}

// WatchJournal re-reads the user's full ordered snapshot on every change
// event. Delete events carry no full document, so the watch covers the whole
// collection and filters by owner where it can.
func (s *MongoStore) WatchJournal(ctx context.Context, userID string, onSnapshot func([]models.JournalEntry), onErr func(error)) (StopFunc, error) {
	wctx, cancel := context.WithCancel(ctx)
	cs, err := s.db.Collection(JournalCollection).Watch(wctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	w := newWatcher(cancel)
	go func() {
		defer cs.Close(context.Background())

		deliver := func() bool {
			entries, err := s.ReadJournal(wctx, userID)
			if err != nil {
				if wctx.Err() == nil {
					w.fail(onErr, err)
				}
				return false
			}
			w.emit(func() { onSnapshot(entries) })
			return true
		}
		if !deliver() {
			return
		}

		for cs.Next(wctx) {
			var ev struct {
				FullDocument struct {
					UserID string `bson:"user_id"`
				} `bson:"fullDocument"`
			}
			if err := cs.Decode(&ev); err == nil && ev.FullDocument.UserID != "" && ev.FullDocument.UserID != userID {
				continue
			}
			if !deliver() {
				return
			}
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil {
			w.fail(onErr, fmt.Errorf("journal stream: %w", err))
		}
	}()
	return w.stop, nil
}

// watcher serializes snapshot delivery against teardown: once stop returns,
// no further callbacks are delivered.
type watcher struct {
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

func newWatcher(cancel context.CancelFunc) *watcher {
	return &watcher{cancel: cancel}
}

func (w *watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.cancel()
}

func (w *watcher) emit(deliver func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	deliver()
}

// fail reports the watch error once and silences the watch. The consumer is
// expected to re-subscribe if it wants updates again.
func (w *watcher) fail(onErr func(error), err error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()
	onErr(err)
}
