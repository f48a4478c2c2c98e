package storage

import "passenger-insights/models"

// PassengerSource is the interface any dataset provider must satisfy. Load
// returns a *models.SchemaError when a required field is absent.
type PassengerSource interface {
	Load() ([]*models.RawPassenger, error)
	Close() error
}

// PassengerWriter persists unprocessed passenger rows.
type PassengerWriter interface {
	Write(rows []*models.RawPassenger) error
	Close() error
}

// DatasetWriter persists prepared passengers with their derived features.
type DatasetWriter interface {
	WriteDataset(ds *models.Dataset) error
	Close() error
}
