package models

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTherapist Role = "therapeute"
	RoleSecretary Role = "secretaire"
)

type TreatmentType string

const (
	TreatmentTecar         TreatmentType = "tecartherapie"
	TreatmentShockwave     TreatmentType = "ondes de choc"
	TreatmentOsteopathy    TreatmentType = "ostéopathie"
	TreatmentPhysiotherapy TreatmentType = "kinésithérapie classique"
	TreatmentReathletics   TreatmentType = "réathlétisation"
	TreatmentStrength      TreatmentType = "renforcement"
	TreatmentNutrition     TreatmentType = "nutrition"
	TreatmentConsultation  TreatmentType = "consultation"
)

type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "Confirmé"
	StatusPending   AppointmentStatus = "En attente"
	StatusDone      AppointmentStatus = "Effectué"
	StatusCancelled AppointmentStatus = "Annulé"
)

type TransactionType string

const (
	TransactionGain    TransactionType = "gain"
	TransactionExpense TransactionType = "depense"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Espèces"
	PaymentCard  PaymentMethod = "TPE"
	PaymentCheck PaymentMethod = "Chèque"
)

var validRoles = map[Role]struct{}{
	RoleAdmin:     {},
	RoleTherapist: {},
	RoleSecretary: {},
}

var validTreatments = map[TreatmentType]struct{}{
	TreatmentTecar:         {},
	TreatmentShockwave:     {},
	TreatmentOsteopathy:    {},
	TreatmentPhysiotherapy: {},
	TreatmentReathletics:   {},
	TreatmentStrength:      {},
	TreatmentNutrition:     {},
	TreatmentConsultation:  {},
}

var validMethods = map[PaymentMethod]struct{}{
	PaymentCash:  {},
	PaymentCard:  {},
	PaymentCheck: {},
}

func IsValidRole(value string) bool {
	_, ok := validRoles[Role(value)]
	return ok
}

func IsValidTreatment(value string) bool {
	_, ok := validTreatments[TreatmentType(value)]
	return ok
}

func IsValidPaymentMethod(value string) bool {
	_, ok := validMethods[PaymentMethod(value)]
	return ok
}

func IsValidTransactionType(value string) bool {
	return value == string(TransactionGain) || value == string(TransactionExpense)
}

// Terminal reports whether no further transition is allowed out of s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// User is the stored account. PasswordHash never leaves the store layer in
// responses; handlers and the session only carry a Profile.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	FullName     string    `bson:"fullName" json:"full_name"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}

type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

type Patient struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Age       int       `bson:"age" json:"age"`
	Address   string    `bson:"address" json:"address"`
	Phone     string    `bson:"phone" json:"phone"`
	Insurance string    `bson:"insurance" json:"insurance"`
	Pathology string    `bson:"pathology" json:"pathology"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}

type Appointment struct {
	ID            string            `bson:"_id,omitempty" json:"id"`
	PatientID     string            `bson:"patientId" json:"patient_id"`
	PatientName   string            `bson:"patientName" json:"patient_name"`
	TherapistID   string            `bson:"therapistId" json:"therapist_id"`
	TherapistName string            `bson:"therapistName" json:"therapist_name"`
	Type          TreatmentType     `bson:"type" json:"type_soin"`
	Status        AppointmentStatus `bson:"status" json:"status"`
	StartTime     time.Time         `bson:"startTime" json:"start_time"`
	EndTime       time.Time         `bson:"endTime" json:"end_time"`
	Price         float64           `bson:"price" json:"price"`
	Notes         string            `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Transaction struct {
	ID            string          `bson:"_id,omitempty" json:"id"`
	Type          TransactionType `bson:"type" json:"type"`
	Category      string          `bson:"category" json:"category"`
	Method        PaymentMethod   `bson:"method" json:"method"`
	Amount        float64         `bson:"amount" json:"amount"`
	Date          time.Time       `bson:"date" json:"date"`
	AppointmentID string          `bson:"appointmentId,omitempty" json:"appointment_id,omitempty"`
}
