package domain

import "time"

type ContactSource string

const (
	SourceManual ContactSource = "manual"
	SourceImport ContactSource = "excel_import"
)

type Contact struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Phone     string        `db:"phone" json:"phone"`
	Email     string        `db:"email" json:"email,omitempty"`
	Source    ContactSource `db:"source" json:"source"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}
