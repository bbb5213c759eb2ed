package models

import "time"

// Attachment is the stored-file reference resolved by the attachment
// collaborator; this service only reads rows, never uploads.
type Attachment struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	URL       string    `gorm:"column:url;type:varchar(512);not null" json:"url"`
	FileType  string    `gorm:"column:file_type;type:varchar(64)" json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Attachment) TableName() string {
	return "attachment"
}
