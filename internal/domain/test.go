package domain

import (
	"time"

	"github.com/google/uuid"
)

// TestStatus represents the status of a test
type TestStatus string

const (
	TestStatusPending   TestStatus = "pending"
	TestStatusCompleted TestStatus = "completed"
)

// Test is one oracle run configuration against an uploaded execution trace
type Test struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	AppID     uuid.UUID  `db:"app_id" json:"appId"`
	UserID    uuid.UUID  `db:"user_id" json:"userId"`
	Name      string     `db:"name" json:"name"`
	Oracle    string     `db:"oracle" json:"oracle"`
	Status    TestStatus `db:"status" json:"status"`
	Result    string     `db:"result" json:"result"`
	Notes     string     `db:"notes" json:"notes"`
	FileID    *uuid.UUID `db:"file_id" json:"fileId"`
	FileName  *string    `db:"file_name" json:"fileName,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// TestCompletion is written against a test after a successful oracle run
type TestCompletion struct {
	Result string
	Status TestStatus
}

// NewTest creates a new pending test
func NewTest(app *App, name, oracle string, fileID *uuid.UUID) *Test {
	return &Test{
		ID:        uuid.New(),
		AppID:     app.ID,
		UserID:    app.UserID,
		Name:      name,
		Oracle:    oracle,
		Status:    TestStatusPending,
		FileID:    fileID,
		CreatedAt: time.Now(),
	}
}

type TestsTable struct {
	ID        string
	AppID     string
	UserID    string
	Name      string
	Oracle    string
	Status    string
	Result    string
	Notes     string
	FileID    string
	CreatedAt string
}

func GetTestTable() TestsTable {
	return TestsTable{
		ID:        "id",
		AppID:     "app_id",
		UserID:    "user_id",
		Name:      "name",
		Oracle:    "oracle",
		Status:    "status",
		Result:    "result",
		Notes:     "notes",
		FileID:    "file_id",
		CreatedAt: "created_at",
	}
}

func (t TestsTable) GetTableName() string {
	return "tests"
}

func (t TestsTable) Columns() []string {
	return []string{
		t.ID, t.AppID, t.UserID, t.Name, t.Oracle,
		t.Status, t.Result, t.Notes, t.FileID, t.CreatedAt,
	}
}
