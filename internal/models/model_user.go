package models

import (
	"time"

	"github.com/authartic/certify/pkg/types"
)

// User is an account row; Role decides whether the account is an
// administrator, a certificate-issuing vendor, or an end consumer.
type User struct {
	ID        uint           `gorm:"column:id;primaryKey" json:"id"`
	UserName  string         `gorm:"column:user_name;type:varchar(128);not null" json:"user_name"`
	Email     string         `gorm:"column:email;type:varchar(256);not null;uniqueIndex" json:"email"`
	Role      types.UserRole `gorm:"column:role;type:varchar(32);not null" json:"role"`
	IsDeleted bool           `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// VendorInfo carries the vendor-side verification state. ValidationCode is
// assigned by an administrator; a nil code means the vendor may not issue.
type VendorInfo struct {
	ID              uint    `gorm:"column:id;primaryKey" json:"id"`
	UserID          uint    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	ValidationCode  *string `gorm:"column:validation_code;type:varchar(64)" json:"validation_code"`
	IsVerifiedEmail bool    `gorm:"column:is_verified_email;not null;default:false" json:"is_verified_email"`
	// AttachmentID references the vendor logo, when uploaded.
	AttachmentID *uint       `gorm:"column:attachment_id" json:"attachment_id"`
	Attachment   *Attachment `gorm:"foreignKey:AttachmentID" json:"attachment,omitempty"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (VendorInfo) TableName() string {
	return "vendor_info"
}

// Verified reports whether an administrator has validated the vendor.
func (v *VendorInfo) Verified() bool {
	return v != nil && v.ValidationCode != nil && *v.ValidationCode != ""
}
