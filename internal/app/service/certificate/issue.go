package certificate

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/authartic/certify/internal/app/service/artifact"
	"github.com/authartic/certify/internal/app/service/subscription"
	"github.com/authartic/certify/internal/models"
	"github.com/authartic/certify/pkg/logctx"
	"github.com/authartic/certify/pkg/metrics"
	"github.com/authartic/certify/pkg/tool"
	"github.com/authartic/certify/pkg/types"
)

// CreateCertificateInfoInput describes a new batch and how many certificates
// to mint from it. A draft (or a zero count) creates the batch only: no
// minting, no quota spend, no mail.
type CreateCertificateInfoInput struct {
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description"`
	Font                 string `json:"font"`
	FontColor            string `json:"font_color"`
	BgColor              string `json:"bg_color"`
	ProductSell          string `json:"product_sell"`
	NumberOfCertificates int    `json:"number_of_certificate"`
	SavedDraft           bool   `json:"saved_draft"`
	ProductImageID       uint   `json:"product_image_id" binding:"required"`
	CustomBgID           *uint  `json:"custom_bg"`
}

// Issue creates a batch and mints its certificates. Everything from the
// batch insert through quota spend, artifact packaging and mail dispatch
// runs inside one transaction; a delivery failure rolls all of it back so a
// vendor never pays quota for certificates they did not receive.
func (s *Service) Issue(ctx context.Context, principal *types.Principal, input *CreateCertificateInfoInput) (*models.CertificateInfo, error) {
	status, err := s.vendorGate(ctx, principal)
	if err != nil {
		return nil, err
	}

	count := input.NumberOfCertificates
	if input.SavedDraft || count < 0 {
		count = 0
	}
	if count > 0 && status.RemainingCertificates < count {
		return nil, &subscription.CapacityError{Remaining: status.RemainingCertificates}
	}

	var info models.CertificateInfo
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.resolveAttachments(ctx, tx, input); err != nil {
			return err
		}

		info = models.CertificateInfo{
			Name:              input.Name,
			Description:       input.Description,
			Font:              input.Font,
			FontColor:         input.FontColor,
			BgColor:           input.BgColor,
			ProductSell:       input.ProductSell,
			SavedDraft:        input.SavedDraft,
			CreatedByVendorID: principal.ID,
			ProductImageID:    input.ProductImageID,
			CustomBgID:        input.CustomBgID,
		}
		if count > 0 {
			now := s.now()
			info.Issued = count
			info.IssuedDate = &now
		}
		if err := tx.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to create certificate batch: %w", err)
		}

		if count == 0 {
			return nil
		}
		return s.mintAndDeliver(ctx, tx, &info, status, principal, count)
	})
	if err != nil {
		return nil, err
	}

	if count > 0 {
		metrics.CertificatesMinted.WithLabelValues("create").Add(float64(count))
		logctx.FromCtx(ctx, s.log).Infow("certificates issued",
			"batch_id", info.ID, "vendor_id", principal.ID, "count", count)
	}
	return &info, nil
}

// ReissueBatch mints additional certificates from an existing batch owned by
// the caller, clearing its draft flag.
func (s *Service) ReissueBatch(ctx context.Context, principal *types.Principal, infoID uint, count int) (*models.CertificateInfo, error) {
	status, err := s.vendorGate(ctx, principal)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("number of certificates must be greater than 0")
	}
	if status.RemainingCertificates < count {
		return nil, &subscription.CapacityError{Remaining: status.RemainingCertificates}
	}

	var info models.CertificateInfo
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND created_by_vendor_id = ?", infoID, principal.ID).First(&info).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return fmt.Errorf("failed to load certificate batch: %w", err)
		}

		if err := s.mintAndDeliver(ctx, tx, &info, status, principal, count); err != nil {
			return err
		}

		now := s.now()
		info.SavedDraft = false
		info.Issued += count
		if info.IssuedDate == nil {
			info.IssuedDate = &now
		}
		if err := tx.Save(&info).Error; err != nil {
			return fmt.Errorf("failed to update certificate batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CertificatesMinted.WithLabelValues("reissue_batch").Add(float64(count))
	logctx.FromCtx(ctx, s.log).Infow("certificates re-issued",
		"batch_id", info.ID, "vendor_id", principal.ID, "count", count)
	return &info, nil
}

// ReissueOne revokes a single certificate and mints its replacement in the
// same batch. A certificate that was already revoked by a prior re-issue is
// rejected.
func (s *Service) ReissueOne(ctx context.Context, principal *types.Principal, infoID, certificateID uint) (*models.Certificate, error) {
	status, err := s.vendorGate(ctx, principal)
	if err != nil {
		return nil, err
	}

	var replacement *models.Certificate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Certificate
		err := tx.Joins("JOIN certificate_info ci ON ci.id = certificate.certificate_info_id AND ci.created_by_vendor_id = ?", principal.ID).
			Where("certificate.id = ? AND certificate.certificate_info_id = ?", certificateID, infoID).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCertificateNotFound
			}
			return fmt.Errorf("failed to load certificate: %w", err)
		}
		if existing.Revoked() {
			return ErrAlreadyReissued
		}

		res := tx.Model(&models.Certificate{}).
			Where("id = ? AND is_deleted = ?", existing.ID, false).
			Updates(map[string]interface{}{
				"status":     types.CertificateStatusReissued,
				"is_deleted": true,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to revoke certificate: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReissued
		}

		var info models.CertificateInfo
		if err := tx.Where("id = ?", infoID).First(&info).Error; err != nil {
			return fmt.Errorf("failed to load certificate batch: %w", err)
		}

		cert, err := s.mintOne(ctx, tx, info.ID, principal.ID, 1)
		if err != nil {
			return err
		}
		replacement = cert

		info.SavedDraft = false
		info.Issued++
		if err := tx.Save(&info).Error; err != nil {
			return fmt.Errorf("failed to update certificate batch: %w", err)
		}

		if _, err := s.subSvc.Spend(ctx, tx, status.ID, 1); err != nil {
			return err
		}

		archive, err := s.renderer.RenderBatch(
			[]artifact.Item{{CertificateID: cert.ID, ClaimURL: cert.QRCode}},
			info.Name, info.Description)
		if err != nil {
			return err
		}
		if err := s.mailer.SendBatchArchive(principal.Email, archive); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CertificatesMinted.WithLabelValues("reissue_one").Inc()
	logctx.FromCtx(ctx, s.log).Infow("certificate re-issued",
		"old_certificate_id", certificateID, "new_certificate_id", replacement.ID, "vendor_id", principal.ID)
	return replacement, nil
}

// mintAndDeliver is the shared tail of batch issuance: the per-unit minting
// loop, quota commit, artifact packaging and mail dispatch, all within the
// caller's transaction.
func (s *Service) mintAndDeliver(ctx context.Context, tx *gorm.DB, info *models.CertificateInfo, status *models.SubscriptionStatus, principal *types.Principal, count int) error {
	items := make([]artifact.Item, 0, count)
	for i := 1; i <= count; i++ {
		cert, err := s.mintOne(ctx, tx, info.ID, principal.ID, i)
		if err != nil {
			return err
		}
		items = append(items, artifact.Item{CertificateID: cert.ID, ClaimURL: cert.QRCode})
	}

	if _, err := s.subSvc.Spend(ctx, tx, status.ID, count); err != nil {
		return err
	}

	archive, err := s.renderer.RenderBatch(items, info.Name, info.Description)
	if err != nil {
		return err
	}
	if err := s.mailer.SendBatchArchive(principal.Email, archive); err != nil {
		return err
	}
	return nil
}

// mintOne inserts a certificate, assigns its claim URL once the row id is
// known, and records the issuing vendor as the first active owner. The URL
// cannot be precomputed: it embeds the certificate's own identifier.
func (s *Service) mintOne(ctx context.Context, tx *gorm.DB, infoID, vendorID uint, seq int) (*models.Certificate, error) {
	cert := models.Certificate{
		SerialNumber:      tool.SerialNumber(seq, s.now()),
		Status:            types.CertificateStatusActive,
		CertificateInfoID: infoID,
	}
	if err := tx.Create(&cert).Error; err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert.QRCode = s.claimURL(cert.ID)
	if err := tx.Model(&cert).UpdateColumn("qr_code", cert.QRCode).Error; err != nil {
		return nil, fmt.Errorf("failed to assign claim URL: %w", err)
	}

	owner := models.CertificateOwner{
		CertificateID: cert.ID,
		UserID:        vendorID,
		IsOwner:       true,
	}
	if err := tx.Create(&owner).Error; err != nil {
		return nil, fmt.Errorf("failed to create initial ownership record: %w", err)
	}
	return &cert, nil
}

func (s *Service) resolveAttachments(ctx context.Context, tx *gorm.DB, input *CreateCertificateInfoInput) error {
	var productImage models.Attachment
	if err := tx.Where("id = ?", input.ProductImageID).First(&productImage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product image: %w", ErrAttachmentNotFound)
		}
		return fmt.Errorf("failed to load product image: %w", err)
	}
	if input.CustomBgID != nil {
		var customBg models.Attachment
		if err := tx.Where("id = ?", *input.CustomBgID).First(&customBg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("background image: %w", ErrAttachmentNotFound)
			}
			return fmt.Errorf("failed to load background image: %w", err)
		}
	}
	return nil
}
