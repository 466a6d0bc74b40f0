package domain

import (
	"time"

	"github.com/google/uuid"
)

// App groups the tests a user runs against one Android application
type App struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	UserID      uuid.UUID   `db:"user_id" json:"userId"`
	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description"`
	Tests       []uuid.UUID `db:"-" json:"tests"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewApp creates a new app with an empty test list
func NewApp(userID uuid.UUID, name, description string) *App {
	now := time.Now()
	return &App{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Tests:       []uuid.UUID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type AppsTable struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   string
	UpdatedAt   string
}

func GetAppTable() AppsTable {
	return AppsTable{
		ID:          "id",
		UserID:      "user_id",
		Name:        "name",
		Description: "description",
		CreatedAt:   "created_at",
		UpdatedAt:   "updated_at",
	}
}

func (t AppsTable) GetTableName() string {
	return "apps"
}

func (t AppsTable) Columns() []string {
	return []string{t.ID, t.UserID, t.Name, t.Description, t.CreatedAt, t.UpdatedAt}
}
