package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-ticket-booking/internal/model"
)

// TrainRepo provides data access to the trains table.
type TrainRepo struct {
	db *sql.DB
}

// NewTrainRepo returns a new TrainRepo bound to the provided database.
func NewTrainRepo(db *sql.DB) *TrainRepo { return &TrainRepo{db: db} }

// Create inserts a new train and fills in its generated ID.
func (r *TrainRepo) Create(ctx context.Context, t *model.Train) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trains (name, source, destination, departure_time) VALUES (?, ?, ?, ?)`,
		t.Name, t.Source, t.Destination, t.DepartureTime,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID loads a single train. Returns ErrTrainNotFound when no row matches.
func (r *TrainRepo) GetByID(ctx context.Context, id uint64) (*model.Train, error) {
	var t model.Train
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, source, destination, departure_time FROM trains WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Source, &t.Destination, &t.DepartureTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrainNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all trains in insertion order.
func (r *TrainRepo) List(ctx context.Context) ([]model.Train, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, source, destination, departure_time FROM trains ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrains(rows)
}

// Search returns trains whose name, source or destination contains the
// term (case-insensitive LIKE, matching the public search contract).
func (r *TrainRepo) Search(ctx context.Context, term string) ([]model.Train, error) {
	like := "%" + term + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, source, destination, departure_time
		 FROM trains
		 WHERE name LIKE ? OR source LIKE ? OR destination LIKE ?
		 ORDER BY id`,
		like, like, like,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrains(rows)
}

func scanTrains(rows *sql.Rows) ([]model.Train, error) {
	var trains []model.Train
	for rows.Next() {
		var t model.Train
		if err := rows.Scan(&t.ID, &t.Name, &t.Source, &t.Destination, &t.DepartureTime); err != nil {
			return nil, err
		}
		trains = append(trains, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trains, nil
}
