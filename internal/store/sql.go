package store

import (
	"context"
	"errors"
	"time"

	"physio-backend/internal/models"

	"gorm.io/gorm"
)

type userRow struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	FullName     string
	PasswordHash string
	Role         string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type patientRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Age       int
	Address   string
	Phone     string
	Insurance string
	Pathology string
	Email     string
	CreatedAt time.Time
}

func (patientRow) TableName() string { return "patients" }

type appointmentRow struct {
	ID            string `gorm:"primaryKey"`
	PatientID     string `gorm:"index"`
	PatientName   string
	TherapistID   string `gorm:"index"`
	TherapistName string
	Type          string
	Status        string
	StartTime     time.Time `gorm:"index"`
	EndTime       time.Time
	Price         float64
	Notes         string
}

func (appointmentRow) TableName() string { return "appointments" }

type transactionRow struct {
	ID            string `gorm:"primaryKey"`
	Type          string `gorm:"index"`
	Category      string
	Method        string
	Amount        float64
	Date          time.Time `gorm:"index"`
	AppointmentID string
}

func (transactionRow) TableName() string { return "transactions" }

// Times are written in UTC so that window comparisons stay ordered on
// drivers that store them as text.

// NewSQL migrates the schema and returns a store backed by gdb.
func NewSQL(ctx context.Context, gdb *gorm.DB) (*Store, error) {
	if err := gdb.WithContext(ctx).AutoMigrate(&userRow{}, &patientRow{}, &appointmentRow{}, &transactionRow{}); err != nil {
		return nil, err
	}
	return &Store{
		Users:        &sqlUsers{db: gdb},
		Patients:     &sqlPatients{db: gdb},
		Appointments: &sqlAppointments{db: gdb},
		Transactions: &sqlTransactions{db: gdb},
	}, nil
}

func sqlErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func applyWindow(q *gorm.DB, column string, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		q = q.Where(column+" >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where(column+" < ?", to.UTC())
	}
	return q
}

func toUser(r userRow) models.User {
	return models.User{
		ID:           r.ID,
		Username:     r.Username,
		FullName:     r.FullName,
		PasswordHash: r.PasswordHash,
		Role:         models.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromUser(u models.User) userRow {
	return userRow{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

type sqlUsers struct{ db *gorm.DB }

func (r *sqlUsers) List(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, toUser(row))
	}
	return out, nil
}

func (r *sqlUsers) Get(ctx context.Context, id string) (models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.User{}, sqlErr(err)
	}
	return toUser(row), nil
}

func (r *sqlUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "username = ?", username).Error; err != nil {
		return models.User{}, sqlErr(err)
	}
	return toUser(row), nil
}

func (r *sqlUsers) Create(ctx context.Context, user models.User) error {
	row := fromUser(user)
	return sqlErr(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *sqlUsers) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) (models.User, error) {
	res := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"role": string(role), "updated_at": at})
	if res.Error != nil {
		return models.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *sqlUsers) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password_hash": hash, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlUsers) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type sqlPatients struct{ db *gorm.DB }

func (r *sqlPatients) List(ctx context.Context) ([]models.Patient, error) {
	var rows []patientRow
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Patient, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Patient(row))
	}
	return out, nil
}

func (r *sqlPatients) Get(ctx context.Context, id string) (models.Patient, error) {
	var row patientRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.Patient{}, sqlErr(err)
	}
	return models.Patient(row), nil
}

func (r *sqlPatients) Create(ctx context.Context, patient models.Patient) error {
	row := patientRow(patient)
	row.CreatedAt = row.CreatedAt.UTC()
	return sqlErr(r.db.WithContext(ctx).Create(&row).Error)
}

func toAppointment(r appointmentRow) models.Appointment {
	return models.Appointment{
		ID:            r.ID,
		PatientID:     r.PatientID,
		PatientName:   r.PatientName,
		TherapistID:   r.TherapistID,
		TherapistName: r.TherapistName,
		Type:          models.TreatmentType(r.Type),
		Status:        models.AppointmentStatus(r.Status),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Price:         r.Price,
		Notes:         r.Notes,
	}
}

type sqlAppointments struct{ db *gorm.DB }

func (r *sqlAppointments) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	q := r.db.WithContext(ctx).Model(&appointmentRow{})
	if filter.TherapistID != "" {
		q = q.Where("therapist_id = ?", filter.TherapistID)
	}
	q = applyWindow(q, "start_time", filter.From, filter.To)

	var rows []appointmentRow
	if err := q.Order("start_time").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAppointment(row))
	}
	return out, nil
}

func (r *sqlAppointments) Get(ctx context.Context, id string) (models.Appointment, error) {
	var row appointmentRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.Appointment{}, sqlErr(err)
	}
	return toAppointment(row), nil
}

func (r *sqlAppointments) Create(ctx context.Context, a models.Appointment) error {
	row := appointmentRow{
		ID:            a.ID,
		PatientID:     a.PatientID,
		PatientName:   a.PatientName,
		TherapistID:   a.TherapistID,
		TherapistName: a.TherapistName,
		Type:          string(a.Type),
		Status:        string(a.Status),
		StartTime:     a.StartTime.UTC(),
		EndTime:       a.EndTime.UTC(),
		Price:         a.Price,
		Notes:         a.Notes,
	}
	return sqlErr(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *sqlAppointments) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (models.Appointment, error) {
	res := r.db.WithContext(ctx).Model(&appointmentRow{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return models.Appointment{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Appointment{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

type sqlTransactions struct{ db *gorm.DB }

func (r *sqlTransactions) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&transactionRow{})
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	q = applyWindow(q, "date", filter.From, filter.To)

	var rows []transactionRow
	if err := q.Order("date").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Transaction{
			ID:            row.ID,
			Type:          models.TransactionType(row.Type),
			Category:      row.Category,
			Method:        models.PaymentMethod(row.Method),
			Amount:        row.Amount,
			Date:          row.Date,
			AppointmentID: row.AppointmentID,
		})
	}
	return out, nil
}

func (r *sqlTransactions) Create(ctx context.Context, tx models.Transaction) error {
	row := transactionRow{
		ID:            tx.ID,
		Type:          string(tx.Type),
		Category:      tx.Category,
		Method:        string(tx.Method),
		Amount:        tx.Amount,
		Date:          tx.Date.UTC(),
		AppointmentID: tx.AppointmentID,
	}
	return sqlErr(r.db.WithContext(ctx).Create(&row).Error)
}
