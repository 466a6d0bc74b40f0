package domain

import (
	"time"

	"github.com/google/uuid"
)

type Users struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          *string    `db:"password_hash" json:"-"`
	FirstName             string     `db:"first_name" json:"firstName"`
	LastName              string     `db:"last_name" json:"lastName"`
	AuthProvider          string     `db:"auth_provider" json:"authProvider"`
	GoogleID              *string    `db:"google_id" json:"-"`
	IsVerified            bool       `db:"is_verified" json:"isVerified"`
	VerificationCode      *string    `db:"verification_code" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`
	ResetToken            *string    `db:"reset_token" json:"-"`
	ResetExpiresAt        *time.Time `db:"reset_expires_at" json:"-"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

type UsersTable struct {
	ID                    string
	Email                 string
	PasswordHash          string
	FirstName             string
	LastName              string
	AuthProvider          string
	GoogleID              string
	IsVerified            string
	VerificationCode      string
	VerificationExpiresAt string
	ResetToken            string
	ResetExpiresAt        string
	CreatedAt             string
	UpdatedAt             string
}

func GetUserTable() UsersTable {
	return UsersTable{
		ID:                    "id",
		Email:                 "email",
		PasswordHash:          "password_hash",
		FirstName:             "first_name",
		LastName:              "last_name",
		AuthProvider:          "auth_provider",
		GoogleID:              "google_id",
		IsVerified:            "is_verified",
		VerificationCode:      "verification_code",
		VerificationExpiresAt: "verification_expires_at",
		ResetToken:            "reset_token",
		ResetExpiresAt:        "reset_expires_at",
		CreatedAt:             "created_at",
		UpdatedAt:             "updated_at",
	}
}

func (t UsersTable) GetTableName() string {
	return "users"
}

// Columns lists every column in struct order
func (t UsersTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.PasswordHash, t.FirstName, t.LastName,
		t.AuthProvider, t.GoogleID, t.IsVerified,
		t.VerificationCode, t.VerificationExpiresAt,
		t.ResetToken, t.ResetExpiresAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
