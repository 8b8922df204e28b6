package orders

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orane_back_end/internal/models"
)

func pendingOrder(total float64) *models.Order {
	return &models.Order{
		ID:            gocql.TimeUUID(),
		OrderNumber:   "ORD-20260828-0001",
		UserID:        "user-1",
		TotalAmount:   total,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestBankTransferFlow(t *testing.T) {
	now := time.Now()
	o := pendingOrder(150)
	p := &models.Payment{ID: gocql.TimeUUID()}

	require.NoError(t, ApplyProofUploaded(o, p, "http://minio/proofs/x.pdf", now))
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentStatusVerification, o.PaymentStatus)
	assert.Equal(t, "bank_transfer", o.PaymentMethod)
	assert.Equal(t, o.TotalAmount, p.Amount)
	assert.Equal(t, models.PaymentPending, p.Status)

	require.NoError(t, ApplyVerified(o, p, "admin-1", now))
	assert.Equal(t, models.StatusPaid, o.Status)
	assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, "admin-1", o.PaymentDetails.VerifiedBy)
	assert.Equal(t, models.PaymentCompleted, p.Status)
}

func TestVerifyRefusesAmountMismatch(t *testing.T) {
	now := time.Now()
	o := pendingOrder(150)
	p := &models.Payment{ID: gocql.TimeUUID()}
	require.NoError(t, ApplyProofUploaded(o, p, "http://minio/proofs/x.pdf", now))

	p.Amount = 140 // virement partiel
	err := ApplyVerified(o, p, "admin-1", now)
	require.ErrorIs(t, err, models.ErrPaymentMismatch)

	// rien n'a bougé
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentStatusVerification, o.PaymentStatus)
	assert.Equal(t, models.PaymentPending, p.Status)
}

func TestVerifyToleratesSubCentDelta(t *testing.T) {
	now := time.Now()
	o := pendingOrder(150)
	p := &models.Payment{ID: gocql.TimeUUID()}
	require.NoError(t, ApplyProofUploaded(o, p, "http://minio/proofs/x.pdf", now))

	p.Amount = 150.005
	require.NoError(t, ApplyVerified(o, p, "admin-1", now))
	assert.Equal(t, models.StatusPaid, o.Status)
}

func TestRejectThenResubmit(t *testing.T) {
	now := time.Now()
	o := pendingOrder(80)
	p := &models.Payment{ID: gocql.TimeUUID()}
	require.NoError(t, ApplyProofUploaded(o, p, "http://minio/proofs/flou.jpg", now))

	require.NoError(t, ApplyRejected(o, p, "Preuve illisible", now))
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, "Preuve illisible", o.PaymentDetails.RejectionReason)
	assert.Equal(t, models.PaymentFailed, p.Status)

	// re-soumission : nouvelle tentative, motif de rejet effacé
	p2 := &models.Payment{ID: gocql.TimeUUID()}
	require.NoError(t, ApplyProofUploaded(o, p2, "http://minio/proofs/net.pdf", now.Add(time.Hour)))
	assert.Equal(t, models.PaymentStatusVerification, o.PaymentStatus)
	assert.Empty(t, o.PaymentDetails.RejectionReason)
}

func TestRejectRequiresPendingVerification(t *testing.T) {
	now := time.Now()
	o := pendingOrder(80)
	p := &models.Payment{ID: gocql.TimeUUID()}

	// aucune preuve soumise : rien à rejeter
	err := ApplyRejected(o, p, "peu importe", now)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestWebhookConfirmed(t *testing.T) {
	now := time.Now()
	o := pendingOrder(42.50)
	p := &models.Payment{ID: gocql.TimeUUID()}

	require.NoError(t, ApplyWebhookConfirmed(o, p, "pi_3abc", 42.50, now))
	assert.Equal(t, models.StatusPaid, o.Status)
	assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, "card", o.PaymentMethod)
	assert.Equal(t, "pi_3abc", o.PaymentDetails.TransactionID)
	assert.Equal(t, "pi_3abc", p.TransactionID)
	assert.Equal(t, models.PaymentCompleted, p.Status)
}

func TestWebhookMismatchLeavesOrderPending(t *testing.T) {
	now := time.Now()
	o := pendingOrder(42.50)
	p := &models.Payment{ID: gocql.TimeUUID()}

	err := ApplyWebhookConfirmed(o, p, "pi_3abc", 40, now)
	require.ErrorIs(t, err, models.ErrPaymentMismatch)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Empty(t, o.PaymentDetails.TransactionID)
}

func TestWebhookOnNonPendingOrder(t *testing.T) {
	now := time.Now()
	o := pendingOrder(42.50)
	o.Status = models.StatusPaid // déjà confirmée par un autre canal

	err := ApplyWebhookConfirmed(o, &models.Payment{}, "pi_3abc", 42.50, now)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCancelGuards(t *testing.T) {
	now := time.Now()

	o := pendingOrder(10)
	require.NoError(t, ApplyCancelled(o, "Annulée par le client", now))
	assert.Equal(t, models.StatusCancelled, o.Status)
	assert.Equal(t, "Annulée par le client", o.CancelReason)

	o = pendingOrder(10)
	o.Status = models.StatusShipped
	err := ApplyCancelled(o, "trop tard", now)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, models.StatusShipped, o.Status)
	assert.Empty(t, o.CancelReason)
}

func TestVerifyAfterCancelFails(t *testing.T) {
	now := time.Now()
	o := pendingOrder(60)
	p := &models.Payment{ID: gocql.TimeUUID(), Amount: 60}
	require.NoError(t, ApplyCancelled(o, "Annulée par le client", now))

	err := ApplyVerified(o, p, "admin-1", now)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, models.StatusCancelled, o.Status)
}

func TestRefundGuards(t *testing.T) {
	now := time.Now()

	o := pendingOrder(10)
	o.Status = models.StatusShipped
	require.NoError(t, ApplyRefunded(o, "Produit défectueux", now))
	assert.Equal(t, models.StatusRefunded, o.Status)
	assert.Equal(t, models.PaymentStatusRefunded, o.PaymentStatus)

	o = pendingOrder(10) // jamais payée
	err := ApplyRefunded(o, "rien à rembourser", now)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
