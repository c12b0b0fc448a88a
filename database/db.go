// Package database persists validation outcomes and calibrated durations to
// an rqlite cluster.
package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/kanzen/strata/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createOutcomeTableSQL = "CREATE TABLE IF NOT EXISTS outcome (id TEXT PRIMARY KEY, pair TEXT, direction TEXT, accepted INTEGER, confidence REAL, reason TEXT, duration INTEGER, createdon INTEGER)"
	createMetadataSQL     = "CREATE TABLE IF NOT EXISTS metadata (id TEXT PRIMARY KEY, total INTEGER, accepted INTEGER, rejected INTEGER, createdon INTEGER)"
	persistOutcomeSQL     = "INSERT INTO outcome(id, pair, direction, accepted, confidence, reason, duration, createdon) VALUES(?,?,?,?,?,?,?,?)"
	findMetadataSQL       = "SELECT * FROM metadata WHERE id = ?"
	updateMetadataSQL     = "UPDATE metadata SET total = total + 1, accepted = accepted + ?, rejected = rejected + ? WHERE id = ?"
	persistMetadataSQL    = "INSERT INTO metadata(id, total, accepted, rejected, createdon) VALUES(?,?,?,?,?)"
)

// Outcome represents a persisted validation outcome.
type Outcome struct {
	// ID uniquely identifies the outcome.
	ID string
	// Pair is the validated pair.
	Pair string
	// Direction is the proposed trade direction.
	Direction shared.Direction
	// Result is the validation decision.
	Result shared.ValidationResult
	// Duration is the calibrated holding duration in minutes.
	Duration int
	// CreatedOn is the decision time.
	CreatedOn time.Time
}

// OutcomeStorer defines the requirements for storing validation outcomes.
type OutcomeStorer interface {
	// PersistOutcome stores the provided validation outcome to the database.
	PersistOutcome(ctx context.Context, outcome *Outcome) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the OutcomeStorer interface.
var _ OutcomeStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createOutcomeTableSQL},
		{SQL: createMetadataSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateMetadataID generates deterministic ids for metadata using the
// current month, week and pair.
func generateMetadataID(currentTime time.Time, pair string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	id := fmt.Sprintf("%s-Week-%d-%s", month, week, pair)
	return id
}

// PersistOutcome stores the provided validation outcome to the database.
func (db *Database) PersistOutcome(ctx context.Context, outcome *Outcome) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistOutcomeSQL,
			PositionalParams: []any{outcome.ID, outcome.Pair, outcome.Direction.String(),
				outcome.Result.Accepted, outcome.Result.Confidence, outcome.Result.Reason,
				outcome.Duration, outcome.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		db.cfg.Logger.Error().Msgf("persisting outcome failed: %s", spew.Sdump(outcome))
		return err
	}

	var accepted, rejected int
	switch outcome.Result.Accepted {
	case true:
		accepted++
	default:
		rejected++
	}

	now, _, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	id := generateMetadataID(now, outcome.Pair)
	resp, err := db.client.QuerySingle(ctx, findMetadataSQL, id)
	if err != nil {
		return err
	}

	exists := len(resp.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateMetadataSQL,
				PositionalParams: []any{accepted, rejected, id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating metadata %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              persistMetadataSQL,
				PositionalParams: []any{id, 1, accepted, rejected, now.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("persisting metadata %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}
