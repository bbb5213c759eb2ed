package models

import (
	"time"

	"github.com/authartic/certify/pkg/types"
)

// Certificate is one serially-numbered unit minted from a batch. QRCode is
// the claim URL and is assigned in a second write, once the row's own id is
// known. A re-issue flips Status to reissued and IsDeleted to true; such a
// row can never be re-issued again.
type Certificate struct {
	ID                uint                    `gorm:"column:id;primaryKey" json:"id"`
	SerialNumber      string                  `gorm:"column:serial_number;type:varchar(64);not null;uniqueIndex" json:"serial_number"`
	QRCode            string                  `gorm:"column:qr_code;type:varchar(512)" json:"qr_code"`
	Status            types.CertificateStatus `gorm:"column:status;not null;default:1" json:"status"`
	IsDeleted         bool                    `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
	CertificateInfoID uint                    `gorm:"column:certificate_info_id;not null;index" json:"certificate_info_id"`
	CertificateInfo   *CertificateInfo        `gorm:"foreignKey:CertificateInfoID" json:"certificate_info,omitempty"`
	Owners            []CertificateOwner      `gorm:"foreignKey:CertificateID" json:"owners,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

func (Certificate) TableName() string {
	return "certificate"
}

// Revoked reports whether the certificate was superseded by a re-issue.
func (c *Certificate) Revoked() bool {
	return c != nil && c.IsDeleted && c.Status == types.CertificateStatusReissued
}

// ActiveOwner returns the current active ownership row, if loaded.
func (c *Certificate) ActiveOwner() *CertificateOwner {
	if c == nil {
		return nil
	}
	for i := range c.Owners {
		if c.Owners[i].IsOwner && !c.Owners[i].IsDeleted {
			return &c.Owners[i]
		}
	}
	return nil
}
