package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"
)

// MongoStorage implements the Storage interface using MongoDB
type MongoStorage struct {
	client            *mongo.Client
	database          *mongo.Database
	alertCollection   *mongo.Collection
	dayCollection     *mongo.Collection
	patientCollection *mongo.Collection
}

// NewMongoStorage creates a new MongoDB storage instance
func NewMongoStorage(connectionString, databaseName string) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test the connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(databaseName)

	return &MongoStorage{
		client:            client,
		database:          database,
		alertCollection:   database.Collection("alerts"),
		dayCollection:     database.Collection("daily_records"),
		patientCollection: database.Collection("patient"),
	}, nil
}

// Close closes the MongoDB connection
func (ms *MongoStorage) Close(ctx context.Context) error {
	return ms.client.Disconnect(ctx)
}

// Alert operations

func (ms *MongoStorage) PutAlert(a *alert.Alert) error {
	ctx := context.Background()

	opts := options.Replace().SetUpsert(true)
	_, err := ms.alertCollection.ReplaceOne(ctx, bson.M{"_id": a.ID}, a, opts)
	if err != nil {
		return fmt.Errorf("failed to put alert: %w", err)
	}
	return nil
}

func (ms *MongoStorage) GetAlert(id int64) (*alert.Alert, error) {
	ctx := context.Background()

	var a alert.Alert
	err := ms.alertCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &a, nil
}

func (ms *MongoStorage) ListAlerts() ([]*alert.Alert, error) {
	ctx := context.Background()

	cursor, err := ms.alertCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var list []*alert.Alert
	for cursor.Next(ctx) {
		var a alert.Alert
		if err := cursor.Decode(&a); err != nil {
			return nil, fmt.Errorf("failed to decode alert: %w", err)
		}
		list = append(list, &a)
	}
	return list, cursor.Err()
}

func (ms *MongoStorage) DeleteAlert(id int64) error {
	ctx := context.Background()

	if _, err := ms.alertCollection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

// Day record operations

func (ms *MongoStorage) PutDay(d *diary.DayRecord) error {
	ctx := context.Background()

	opts := options.Replace().SetUpsert(true)
	_, err := ms.dayCollection.ReplaceOne(ctx, bson.M{"_id": d.Date}, d, opts)
	if err != nil {
		return fmt.Errorf("failed to put day record: %w", err)
	}
	return nil
}

func (ms *MongoStorage) GetDay(date string) (*diary.DayRecord, error) {
	ctx := context.Background()

	var d diary.DayRecord
	err := ms.dayCollection.FindOne(ctx, bson.M{"_id": date}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get day record: %w", err)
	}
	return &d, nil
}

func (ms *MongoStorage) ListDays() ([]*diary.DayRecord, error) {
	ctx := context.Background()

	cursor, err := ms.dayCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list day records: %w", err)
	}
	defer cursor.Close(ctx)

	var list []*diary.DayRecord
	for cursor.Next(ctx) {
		var d diary.DayRecord
		if err := cursor.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode day record: %w", err)
		}
		list = append(list, &d)
	}
	return list, cursor.Err()
}

// Patient operations

func (ms *MongoStorage) PutPatient(p *patient.Profile) error {
	ctx := context.Background()

	opts := options.Replace().SetUpsert(true)
	_, err := ms.patientCollection.ReplaceOne(ctx, bson.M{"_id": patient.RecordID}, p, opts)
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

func (ms *MongoStorage) GetPatient() (*patient.Profile, error) {
	ctx := context.Background()

	var p patient.Profile
	err := ms.patientCollection.FindOne(ctx, bson.M{"_id": patient.RecordID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
