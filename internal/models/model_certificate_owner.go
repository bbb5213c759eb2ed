package models

import "time"

// CertificateOwner is one row of a certificate's ownership history. At most
// one row per certificate has IsOwner=true and IsDeleted=false; transfers
// flip the previous active row and insert a new one, never rewriting
// superseded history.
type CertificateOwner struct {
	ID            uint         `gorm:"column:id;primaryKey" json:"id"`
	CertificateID uint         `gorm:"column:certificate_id;not null;index" json:"certificate_id"`
	UserID        uint         `gorm:"column:user_id;not null;index" json:"user_id"`
	IsOwner       bool         `gorm:"column:is_owner;not null;default:false" json:"is_owner"`
	IsDeleted     bool         `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	Certificate   *Certificate `gorm:"foreignKey:CertificateID" json:"certificate,omitempty"`
	User          *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (CertificateOwner) TableName() string {
	return "certificate_owner"
}
