package store

import (
	"context"
	"errors"
	"time"

	"physio-backend/internal/db"
	"physio-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongo returns a store backed by the clinic collections.
func NewMongo(cols *db.Collections) *Store {
	return &Store{
		Users:        &mongoUsers{col: cols.Users},
		Patients:     &mongoPatients{col: cols.Patients},
		Appointments: &mongoAppointments{col: cols.Appointments},
		Transactions: &mongoTransactions{col: cols.Transactions},
	}
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	items := make([]T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func windowQuery(from, to time.Time) bson.M {
	q := bson.M{}
	if !from.IsZero() {
		q["$gte"] = from
	}
	if !to.IsZero() {
		q["$lt"] = to
	}
	return q
}

func appointmentQuery(filter AppointmentFilter) bson.M {
	query := bson.M{}
	if filter.TherapistID != "" {
		query["therapistId"] = filter.TherapistID
	}
	if w := windowQuery(filter.From, filter.To); len(w) > 0 {
		query["startTime"] = w
	}
	return query
}

func transactionQuery(filter TransactionFilter) bson.M {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if w := windowQuery(filter.From, filter.To); len(w) > 0 {
		query["date"] = w
	}
	return query
}

type mongoUsers struct{ col *mongo.Collection }

func (r *mongoUsers) List(ctx context.Context) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.User](ctx, cursor)
}

func (r *mongoUsers) Get(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, mongoErr(err)
	}
	return u, nil
}

func (r *mongoUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return models.User{}, mongoErr(err)
	}
	return u, nil
}

func (r *mongoUsers) Create(ctx context.Context, user models.User) error {
	_, err := r.col.InsertOne(ctx, user)
	return mongoErr(err)
}

func (r *mongoUsers) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) (models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": at}}

	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return models.User{}, mongoErr(err)
	}
	return updated, nil
}

func (r *mongoUsers) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	update := bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": at}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoPatients struct{ col *mongo.Collection }

func (r *mongoPatients) List(ctx context.Context) ([]models.Patient, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Patient](ctx, cursor)
}

func (r *mongoPatients) Get(ctx context.Context, id string) (models.Patient, error) {
	var p models.Patient
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Patient{}, mongoErr(err)
	}
	return p, nil
}

func (r *mongoPatients) Create(ctx context.Context, patient models.Patient) error {
	_, err := r.col.InsertOne(ctx, patient)
	return mongoErr(err)
}

type mongoAppointments struct{ col *mongo.Collection }

func (r *mongoAppointments) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	cursor, err := r.col.Find(ctx, appointmentQuery(filter), options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Appointment](ctx, cursor)
}

func (r *mongoAppointments) Get(ctx context.Context, id string) (models.Appointment, error) {
	var a models.Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Appointment{}, mongoErr(err)
	}
	return a, nil
}

func (r *mongoAppointments) Create(ctx context.Context, appointment models.Appointment) error {
	_, err := r.col.InsertOne(ctx, appointment)
	return mongoErr(err)
}

func (r *mongoAppointments) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (models.Appointment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": status}}

	var updated models.Appointment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return models.Appointment{}, mongoErr(err)
	}
	return updated, nil
}

type mongoTransactions struct{ col *mongo.Collection }

func (r *mongoTransactions) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	cursor, err := r.col.Find(ctx, transactionQuery(filter), options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Transaction](ctx, cursor)
}

func (r *mongoTransactions) Create(ctx context.Context, tx models.Transaction) error {
	_, err := r.col.InsertOne(ctx, tx)
	return mongoErr(err)
}
