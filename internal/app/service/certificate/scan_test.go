package certificate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/authartic/certify/internal/models"
	"github.com/authartic/certify/pkg/types"
)

func activeOwnerOf(t *testing.T, svc *Service, certID uint) *models.CertificateOwner {
	t.Helper()
	var owners []models.CertificateOwner
	require.NoError(t, svc.db.Where("certificate_id = ? AND is_owner = ? AND is_deleted = ?", certID, true, false).Find(&owners).Error)
	require.Len(t, owners, 1, "a certificate must have exactly one active owner")
	return &owners[0]
}

func TestScan_TransfersOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &stubMailer{})
	ctx := context.Background()

	vendor := createVendor(t, db, "vendor@example.com", 5)
	imageID := createAttachment(t, db)
	info, err := svc.Issue(ctx, vendor, issueInput("Watch", 1, imageID))
	require.NoError(t, err)

	var cert models.Certificate
	require.NoError(t, db.Where("certificate_info_id = ?", info.ID).First(&cert).Error)
	assert.Equal(t, vendor.ID, activeOwnerOf(t, svc, cert.ID).UserID)

	buyer := createUser(t, db, "buyer@example.com")
	require.NoError(t, svc.Scan(ctx, cert.ID, buyer))
	assert.Equal(t, buyer.ID, activeOwnerOf(t, svc, cert.ID).UserID)

	t.Run("current owner cannot re-scan", func(t *testing.T) {
		err := svc.Scan(ctx, cert.ID, buyer)
		assert.ErrorIs(t, err, ErrAlreadyOwner)
		assert.Equal(t, buyer.ID, activeOwnerOf(t, svc, cert.ID).UserID)
	})

	t.Run("a later scan supersedes, history stays", func(t *testing.T) {
		reseller := createUser(t, db, "reseller@example.com")
		require.NoError(t, svc.Scan(ctx, cert.ID, reseller))
		assert.Equal(t, reseller.ID, activeOwnerOf(t, svc, cert.ID).UserID)

		var history int64
		require.NoError(t, db.Model(&models.CertificateOwner{}).Where("certificate_id = ?", cert.ID).Count(&history).Error)
		assert.EqualValues(t, 3, history)
	})
}

func TestScan_SupersededReadCannotDoubleTransfer(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &stubMailer{})
	ctx := context.Background()

	vendor := createVendor(t, db, "vendor@example.com", 5)
	imageID := createAttachment(t, db)
	info, err := svc.Issue(ctx, vendor, issueInput("Watch", 1, imageID))
	require.NoError(t, err)

	var cert models.Certificate
	require.NoError(t, db.Where("certificate_info_id = ?", info.ID).First(&cert).Error)

	// Both claimants read the certificate while the vendor still owns it.
	var staleRead models.Certificate
	require.NoError(t, db.Preload("Owners").First(&staleRead, cert.ID).Error)

	first := createUser(t, db, "first@example.com")
	second := createUser(t, db, "second@example.com")
	require.NoError(t, svc.Scan(ctx, cert.ID, first))

	// The second claim still holds the pre-claim owner row; its guarded flip
	// must fail rather than hand the certificate over twice.
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.transferOwnership(tx, &staleRead, second)
	})
	assert.ErrorIs(t, err, ErrTransferConflict)

	assert.Equal(t, first.ID, activeOwnerOf(t, svc, cert.ID).UserID)
	var history int64
	require.NoError(t, db.Model(&models.CertificateOwner{}).Where("certificate_id = ?", cert.ID).Count(&history).Error)
	assert.EqualValues(t, 2, history)
}

func TestScan_UnknownCertificate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &stubMailer{})

	buyer := createUser(t, db, "buyer@example.com")
	err := svc.Scan(context.Background(), 9999, buyer)
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestScan_RevokedCertificate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &stubMailer{})
	ctx := context.Background()

	vendor := createVendor(t, db, "vendor@example.com", 5)
	imageID := createAttachment(t, db)
	info, err := svc.Issue(ctx, vendor, issueInput("Watch", 1, imageID))
	require.NoError(t, err)

	var cert models.Certificate
	require.NoError(t, db.Where("certificate_info_id = ?", info.ID).First(&cert).Error)

	_, err = svc.ReissueOne(ctx, vendor, info.ID, cert.ID)
	require.NoError(t, err)

	buyer := createUser(t, db, "buyer@example.com")
	err = svc.Scan(ctx, cert.ID, buyer)
	assert.ErrorIs(t, err, ErrCertificateUnavailable)
}

func TestListOwned(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, &stubMailer{})
	ctx := context.Background()

	vendor := createVendor(t, db, "vendor@example.com", 10)
	imageID := createAttachment(t, db)
	info, err := svc.Issue(ctx, vendor, issueInput("Leather Wallet", 2, imageID))
	require.NoError(t, err)

	var certs []models.Certificate
	require.NoError(t, db.Where("certificate_info_id = ?", info.ID).Order("id").Find(&certs).Error)
	require.Len(t, certs, 2)

	buyer := createUser(t, db, "buyer@example.com")
	require.NoError(t, svc.Scan(ctx, certs[0].ID, buyer))

	owned, err := svc.ListOwned(ctx, buyer, "")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, certs[0].ID, owned[0].Certificate.ID)
	require.NotNil(t, owned[0].Certificate.CertificateInfo)
	assert.Equal(t, "Leather Wallet", owned[0].Certificate.CertificateInfo.Name)
	require.NotNil(t, owned[0].Vendor)
	assert.Equal(t, vendor.ID, owned[0].Vendor.ID)

	t.Run("name filter", func(t *testing.T) {
		owned, err := svc.ListOwned(ctx, buyer, "wallet")
		require.NoError(t, err)
		assert.Len(t, owned, 1)

		owned, err = svc.ListOwned(ctx, buyer, "watch")
		require.NoError(t, err)
		assert.Empty(t, owned)
	})

	t.Run("the listing is consumer-only", func(t *testing.T) {
		vendorPrincipal := &types.Principal{ID: vendor.ID, Role: types.UserRoleVendor, Email: vendor.Email}
		_, err := svc.ListOwned(ctx, vendorPrincipal, "")
		assert.ErrorIs(t, err, ErrNotConsumer)
	})
}
