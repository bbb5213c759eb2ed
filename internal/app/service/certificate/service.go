package certificate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authartic/certify/internal/app/service/artifact"
	"github.com/authartic/certify/internal/app/service/subscription"
	"github.com/authartic/certify/internal/models"
	"github.com/authartic/certify/internal/platform/mail"
	cfgpkg "github.com/authartic/certify/pkg/config"
	"github.com/authartic/certify/pkg/metrics"
	"github.com/authartic/certify/pkg/types"
)

// Service owns the certificate store: batch creation and issuance, re-issue
// variants, the claim-by-scan ownership transfer and the read paths.
type Service struct {
	db           *gorm.DB
	log          *zap.SugaredLogger
	subSvc       *subscription.Service
	renderer     *artifact.Renderer
	mailer       mail.Mailer
	claimBaseURL string
	now          func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, subSvc *subscription.Service, renderer *artifact.Renderer, mailer mail.Mailer, cfg *cfgpkg.Config) *Service {
	return &Service{
		db:           db,
		log:          log,
		subSvc:       subSvc,
		renderer:     renderer,
		mailer:       mailer,
		claimBaseURL: strings.TrimRight(cfg.ClaimBaseURL, "/"),
		now:          time.Now,
	}
}

func (s *Service) claimURL(certificateID uint) string {
	return fmt.Sprintf("%s/certificate/claim-certificate/%d/scan", s.claimBaseURL, certificateID)
}

// vendorGate runs the issuance eligibility checks in order: vendor role,
// admin-verified vendor info, active non-expired subscription. It returns
// the ledger row for the quota check that follows.
func (s *Service) vendorGate(ctx context.Context, principal *types.Principal) (*models.SubscriptionStatus, error) {
	if !principal.IsVendor() {
		return nil, ErrNotVendor
	}

	var vendorInfo models.VendorInfo
	if err := s.db.WithContext(ctx).Where("user_id = ?", principal.ID).First(&vendorInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotVerified
		}
		return nil, fmt.Errorf("failed to load vendor info: %w", err)
	}
	if !vendorInfo.Verified() {
		return nil, ErrVendorNotVerified
	}

	status, err := s.subSvc.FindByUserID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, ErrNoActiveSubscription
	}
	if !status.Active(s.now()) {
		return nil, ErrSubscriptionExpired
	}
	return status, nil
}

// Scan transfers ownership of a certificate to the scanning user. A repeat
// scan by the current owner is rejected, not treated as a no-op.
func (s *Service) Scan(ctx context.Context, certificateID uint, principal *types.Principal) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var revoked models.Certificate
		err := tx.Where("id = ? AND status = ? AND is_deleted = ?",
			certificateID, types.CertificateStatusReissued, true).First(&revoked).Error
		if err == nil {
			return ErrCertificateUnavailable
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check certificate state: %w", err)
		}

		var cert models.Certificate
		err = tx.Preload("Owners").Where("id = ? AND status = ? AND is_deleted = ?",
			certificateID, types.CertificateStatusActive, false).First(&cert).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCertificateNotFound
			}
			return fmt.Errorf("failed to load certificate: %w", err)
		}

		return s.transferOwnership(tx, &cert, principal)
	})
	if err != nil {
		return err
	}

	metrics.OwnershipTransfers.Inc()
	return nil
}

// transferOwnership flips the active owner row and inserts the claimant's.
// The flip is guarded by the row's current state: a transfer working from a
// read that a concurrent scan has since superseded fails instead of
// double-applying.
func (s *Service) transferOwnership(tx *gorm.DB, cert *models.Certificate, principal *types.Principal) error {
	current := cert.ActiveOwner()
	if current != nil && current.UserID == principal.ID {
		return ErrAlreadyOwner
	}

	if current != nil {
		res := tx.Model(&models.CertificateOwner{}).
			Where("id = ? AND is_owner = ? AND is_deleted = ?", current.ID, true, false).
			UpdateColumn("is_owner", false)
		if res.Error != nil {
			return fmt.Errorf("failed to release current owner: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTransferConflict
		}
	}

	newOwner := models.CertificateOwner{
		CertificateID: cert.ID,
		UserID:        principal.ID,
		IsOwner:       true,
	}
	if err := tx.Create(&newOwner).Error; err != nil {
		return fmt.Errorf("failed to create ownership record: %w", err)
	}
	return nil
}

// InfoPage is one page of a vendor's certificate batches.
type InfoPage struct {
	Data  []models.CertificateInfo `json:"data"`
	Total int64                    `json:"total"`
	Pages int                      `json:"pages"`
}

// ListInfos returns the caller's batches, optionally filtered by name,
// newest first.
func (s *Service) ListInfos(ctx context.Context, principal *types.Principal, name string, savedDraft bool, page, limit int) (*InfoPage, error) {
	if page < 1 || limit < 1 {
		return nil, ErrInvalidPagination
	}
	if !principal.IsVendor() {
		return nil, ErrNotVendor
	}

	q := s.db.WithContext(ctx).Model(&models.CertificateInfo{}).
		Where("created_by_vendor_id = ? AND saved_draft = ?", principal.ID, savedDraft)
	if name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count certificate batches: %w", err)
	}

	var infos []models.CertificateInfo
	err := q.Preload("CreatedByVendor").Preload("ProductImage").Preload("CustomBg").
		Order("id desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list certificate batches: %w", err)
	}

	return &InfoPage{
		Data:  infos,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// GetInfo returns one of the caller's batches by id.
func (s *Service) GetInfo(ctx context.Context, principal *types.Principal, id uint, savedDraft bool) (*models.CertificateInfo, error) {
	if !principal.IsVendor() {
		return nil, ErrNotVendor
	}
	var info models.CertificateInfo
	err := s.db.WithContext(ctx).
		Preload("CreatedByVendor").Preload("ProductImage").Preload("CustomBg").
		Where("id = ? AND created_by_vendor_id = ? AND saved_draft = ?", id, principal.ID, savedDraft).
		First(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to load certificate batch: %w", err)
	}
	return &info, nil
}

// OwnedVendor is the issuing vendor's public identity shown on a claimed
// certificate.
type OwnedVendor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// OwnedCertificate is one certificate currently held by the caller.
type OwnedCertificate struct {
	Certificate models.Certificate `json:"certificate"`
	Vendor      *OwnedVendor       `json:"vendor,omitempty"`
}

// ListOwned returns the certificates the caller actively owns, with their
// batch data and the issuing vendor's name and logo. The listing is the
// consumer-side view; vendors and admins are rejected.
func (s *Service) ListOwned(ctx context.Context, principal *types.Principal, name string) ([]OwnedCertificate, error) {
	if !principal.IsUser() {
		return nil, ErrNotConsumer
	}
	q := s.db.WithContext(ctx).Model(&models.Certificate{}).
		Joins("JOIN certificate_owner co ON co.certificate_id = certificate.id AND co.user_id = ? AND co.is_owner = ? AND co.is_deleted = ?",
			principal.ID, true, false).
		Where("certificate.is_deleted = ?", false).
		Preload("CertificateInfo.CreatedByVendor").
		Preload("CertificateInfo.ProductImage").
		Preload("CertificateInfo.CustomBg")
	if name != "" {
		q = q.Joins("JOIN certificate_info ci ON ci.id = certificate.certificate_info_id").
			Where("LOWER(ci.name) LIKE LOWER(?)", "%"+name+"%")
	}

	var certs []models.Certificate
	if err := q.Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to list owned certificates: %w", err)
	}

	creatorIDs := lo.Uniq(lo.FilterMap(certs, func(c models.Certificate, _ int) (uint, bool) {
		if c.CertificateInfo == nil {
			return 0, false
		}
		return c.CertificateInfo.CreatedByVendorID, true
	}))

	vendorByUser := map[uint]*models.VendorInfo{}
	if len(creatorIDs) > 0 {
		var vendorInfos []models.VendorInfo
		err := s.db.WithContext(ctx).Preload("Attachment").Preload("User").
			Where("user_id IN ?", creatorIDs).Find(&vendorInfos).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load vendor infos: %w", err)
		}
		vendorByUser = lo.SliceToMap(vendorInfos, func(vi models.VendorInfo) (uint, *models.VendorInfo) {
			cp := vi
			return vi.UserID, &cp
		})
	}

	out := make([]OwnedCertificate, 0, len(certs))
	for _, cert := range certs {
		item := OwnedCertificate{Certificate: cert}
		if cert.CertificateInfo != nil {
			if vi, ok := vendorByUser[cert.CertificateInfo.CreatedByVendorID]; ok && vi.User != nil {
				v := &OwnedVendor{ID: vi.User.ID, Name: vi.User.UserName}
				if vi.Attachment != nil {
					v.Logo = vi.Attachment.URL
				}
				item.Vendor = v
			}
		}
		out = append(out, item)
	}
	return out, nil
}
