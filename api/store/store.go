/* store.go
 * Contains the Mongo backed Store and NewStore function. Each kind of state lives in its own collection: rosters
 * keyed by roster key, change logs and reports keyed by tournament id, and the player identity cache keyed by id
 */

package store

import (
	"context"
	"time"

	"entrylist-tracker/api/shared"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections struct {
		Rosters    *mongo.Collection
		ChangeLogs *mongo.Collection
		Reports    *mongo.Collection
		Players    *mongo.Collection
	}
}

// Function for initialising Store. Connects to Mongo and sets the collection handles
// Preconditions: Receives context, the mongo URI and the database name
// Postconditions: Returns pointer to the Store object, or error if it occurs
func NewStore(ctx context.Context, mongoURI string, dbName string) (*Store, error) {
	if mongoURI == "" || dbName == "" {
		return nil, errors.New("mongo uri or database name cannot be empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	db := client.Database(dbName)

	s := &Store{Client: client, Database: db}
	s.Collections.Rosters = db.Collection("rosters")
	s.Collections.ChangeLogs = db.Collection("change_logs")
	s.Collections.Reports = db.Collection("reports")
	s.Collections.Players = db.Collection("players")
	return s, nil
}

// LoadRoster fetches the last persisted names for a roster key
func (s *Store) LoadRoster(ctx context.Context, key string) ([]string, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	var doc RosterDoc
	err := s.Collections.Rosters.FindOne(ctx, bson.D{{Key: "key", Value: key}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "fetching roster %s", key)
	}
	if doc.Names == nil {
		doc.Names = []string{}
	}
	return doc.Names, true, nil
}

// SaveRoster replaces the persisted names for a roster key
func (s *Store) SaveRoster(ctx context.Context, key string, names []string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	doc := RosterDoc{Key: key, Names: names, Updated: time.Now().UTC()}
	return upsert(ctx, s.Collections.Rosters, bson.M{"key": key}, doc)
}

// LoadChangeLog fetches the change log for a tournament. A missing log is empty
func (s *Store) LoadChangeLog(ctx context.Context, tournamentID string) ([]shared.ChangeEvent, error) {
	if err := checkKey(tournamentID); err != nil {
		return nil, err
	}

	var doc ChangeLogDoc
	err := s.Collections.ChangeLogs.FindOne(ctx, bson.D{{Key: "tournament_id", Value: tournamentID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []shared.ChangeEvent{}, nil
		}
		return nil, errors.Wrapf(err, "fetching change log %s", tournamentID)
	}
	if doc.Events == nil {
		doc.Events = []shared.ChangeEvent{}
	}
	return doc.Events, nil
}

// SaveChangeLog replaces the change log for a tournament
func (s *Store) SaveChangeLog(ctx context.Context, tournamentID string, events []shared.ChangeEvent) error {
	if err := checkKey(tournamentID); err != nil {
		return err
	}
	if events == nil {
		events = []shared.ChangeEvent{}
	}
	doc := ChangeLogDoc{TournamentID: tournamentID, Events: events}
	return upsert(ctx, s.Collections.ChangeLogs, bson.M{"tournament_id": tournamentID}, doc)
}

// LoadReport fetches the last fresh report for a tournament
func (s *Store) LoadReport(ctx context.Context, tournamentID string) (TournamentReport, bool, error) {
	if err := checkKey(tournamentID); err != nil {
		return TournamentReport{}, false, err
	}

	var doc ReportDoc
	err := s.Collections.Reports.FindOne(ctx, bson.D{{Key: "tournament_id", Value: tournamentID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return TournamentReport{}, false, nil
		}
		return TournamentReport{}, false, errors.Wrapf(err, "fetching report %s", tournamentID)
	}
	return doc.Report, true, nil
}

// SaveReport replaces the stored report for the report's tournament
func (s *Store) SaveReport(ctx context.Context, report TournamentReport) error {
	if err := checkKey(report.TournamentID); err != nil {
		return err
	}
	doc := ReportDoc{TournamentID: report.TournamentID, Report: report}
	return upsert(ctx, s.Collections.Reports, bson.M{"tournament_id": report.TournamentID}, doc)
}

// LoadPlayers reads the whole identity cache
func (s *Store) LoadPlayers(ctx context.Context) (map[string]shared.PlayerRecord, error) {
	cursor, err := s.Collections.Players.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "fetching players")
	}
	defer cursor.Close(ctx)

	var docs []PlayerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding players")
	}

	players := make(map[string]shared.PlayerRecord, len(docs))
	for _, doc := range docs {
		players[doc.ID] = shared.PlayerRecord{Name: doc.Name, Country: doc.Country}
	}
	return players, nil
}

// SavePlayers writes every cached identity. Existing ids are updated in place
func (s *Store) SavePlayers(ctx context.Context, players map[string]shared.PlayerRecord) error {
	if len(players) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(players))
	for id, p := range players {
		doc := PlayerDoc{ID: id, Name: p.Name, Country: p.Country}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": id}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := s.Collections.Players.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return errors.Wrap(err, "players bulk write failed")
	}
	return nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}

// upsert inserts doc when nothing matches filter, otherwise sets it on the existing document
func upsert(ctx context.Context, col *mongo.Collection, filter bson.M, doc interface{}) error {
	var existing bson.M
	err := col.FindOne(ctx, filter).Decode(&existing)
	notFound := errors.Is(err, mongo.ErrNoDocuments)

	if err != nil && !notFound {
		return errors.Wrapf(err, "lookup for existing record in %s failed", col.Name())
	}

	if notFound {
		if _, err := col.InsertOne(ctx, doc); err != nil {
			return errors.Wrapf(err, "%s insert failed", col.Name())
		}
		return nil
	}

	update := bson.D{{Key: "$set", Value: doc}}
	if _, err := col.UpdateOne(ctx, filter, update); err != nil {
		return errors.Wrapf(err, "%s update failed", col.Name())
	}
	return nil
}
