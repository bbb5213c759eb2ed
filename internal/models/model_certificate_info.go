package models

import "time"

// CertificateInfo is a certificate batch: the named template one or more
// physical certificates are minted from. Batches are never physically
// deleted; Issued tracks the running mint count and SavedDraft marks
// templates that have not consumed quota yet.
type CertificateInfo struct {
	ID          uint   `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:varchar(256);not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Font        string `gorm:"column:font;type:varchar(128)" json:"font"`
	FontColor   string `gorm:"column:font_color;type:varchar(32)" json:"font_color"`
	BgColor     string `gorm:"column:bg_color;type:varchar(32)" json:"bg_color"`
	ProductSell string `gorm:"column:product_sell;type:varchar(256)" json:"product_sell"`
	Issued      int    `gorm:"column:issued;not null;default:0" json:"issued"`
	SavedDraft  bool   `gorm:"column:saved_draft;not null;default:false" json:"saved_draft"`
	// IssuedDate is nil until the first non-draft issuance.
	IssuedDate        *time.Time  `gorm:"column:issued_date" json:"issued_date"`
	CreatedByVendorID uint        `gorm:"column:created_by_vendor_id;not null;index" json:"created_by_vendor_id"`
	ProductImageID    uint        `gorm:"column:product_image_id;not null" json:"product_image_id"`
	CustomBgID        *uint       `gorm:"column:custom_bg_id" json:"custom_bg_id"`
	CreatedByVendor   *User       `gorm:"foreignKey:CreatedByVendorID" json:"created_by_vendor,omitempty"`
	ProductImage      *Attachment `gorm:"foreignKey:ProductImageID" json:"product_image,omitempty"`
	CustomBg          *Attachment `gorm:"foreignKey:CustomBgID" json:"custom_bg,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (CertificateInfo) TableName() string {
	return "certificate_info"
}
