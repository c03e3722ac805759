package cache

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/use-agent/flightscrape/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteBackend keeps every route in one SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at dsn, e.g.
// "file:flights.db" or "file::memory:".
func OpenSQLite(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ioError("failed to open sqlite cache", err)
	}
	// One connection: SQLite serialises writers anyway, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, ioError("failed to apply sqlite cache schema", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load(route models.Route) ([]models.FlightObservation, error) {
	var key string
	err := b.db.QueryRow(`SELECT route FROM routes WHERE route = ?`, route.Key()).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ioError("failed to look up route", err)
	}

	rows, err := b.db.Query(`
		SELECT leave_date, return_date, depart_time, arrival_time, airlines, travel_time,
		       origin, destination, num_stops, layover_time, stop_location,
		       co2_emission_kg, emission_diff, price, trip_type, access_date
		FROM flights WHERE route = ? ORDER BY seq`, route.Key())
	if err != nil {
		return nil, ioError("failed to query flights", err)
	}
	defer rows.Close()

	out := []models.FlightObservation{}
	for rows.Next() {
		var (
			obs      models.FlightObservation
			layover  sql.NullString
			stops    sql.NullString
			co2      sql.NullFloat64
			emission sql.NullInt64
		)
		if err := rows.Scan(
			&obs.LeaveDate, &obs.ReturnDate, &obs.DepartTime, &obs.ArrivalTime,
			&obs.Airlines, &obs.TravelTime, &obs.Origin, &obs.Destination, &obs.Stops,
			&layover, &stops, &co2, &emission, &obs.Price, &obs.TripType, &obs.AccessDate,
		); err != nil {
			return nil, corrupt(route, err)
		}
		if layover.Valid {
			v := layover.String
			obs.LayoverDuration = &v
		}
		if stops.Valid {
			if err := json.Unmarshal([]byte(stops.String), &obs.StopLocations); err != nil {
				return nil, corrupt(route, err)
			}
		}
		if co2.Valid {
			v := co2.Float64
			obs.CO2EmissionKg = &v
		}
		if emission.Valid {
			v := int(emission.Int64)
			obs.EmissionDiffPercent = &v
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, corrupt(route, err)
	}
	return out, nil
}

// Save replaces all rows of the route inside one transaction.
func (b *SQLiteBackend) Save(route models.Route, rows []models.FlightObservation) error {
	tx, err := b.db.Begin()
	if err != nil {
		return ioError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	key := route.Key()
	if _, err := tx.Exec(`INSERT OR IGNORE INTO routes (route) VALUES (?)`, key); err != nil {
		return ioError("failed to upsert route", err)
	}
	if _, err := tx.Exec(`DELETE FROM flights WHERE route = ?`, key); err != nil {
		return ioError("failed to clear route", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO flights (
			route, seq, leave_date, return_date, depart_time, arrival_time, airlines,
			travel_time, origin, destination, num_stops, layover_time, stop_location,
			co2_emission_kg, emission_diff, price, trip_type, access_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ioError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for i, obs := range rows {
		var stops any
		if obs.StopLocations != nil {
			data, err := json.Marshal(obs.StopLocations)
			if err != nil {
				return ioError("failed to encode stop locations", err)
			}
			stops = string(data)
		}
		if _, err := stmt.Exec(
			key, i, obs.LeaveDate, obs.ReturnDate, obs.DepartTime, obs.ArrivalTime,
			obs.Airlines, obs.TravelTime, obs.Origin, obs.Destination, obs.Stops,
			nullable(obs.LayoverDuration), stops, nullable(obs.CO2EmissionKg),
			nullable(obs.EmissionDiffPercent), obs.Price, obs.TripType, obs.AccessDate,
		); err != nil {
			return ioError("failed to insert flight", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ioError("failed to commit route", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(route models.Route) error {
	tx, err := b.db.Begin()
	if err != nil {
		return ioError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM flights WHERE route = ?`, route.Key()); err != nil {
		return ioError("failed to delete flights", err)
	}
	if _, err := tx.Exec(`DELETE FROM routes WHERE route = ?`, route.Key()); err != nil {
		return ioError("failed to delete route", err)
	}
	return tx.Commit()
}

func (b *SQLiteBackend) List() ([]models.Route, error) {
	rows, err := b.db.Query(`SELECT route FROM routes ORDER BY route`)
	if err != nil {
		return nil, ioError("failed to list routes", err)
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, ioError("failed to scan route", err)
		}
		route, err := models.ParseRouteKey(key)
		if err != nil {
			continue
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
