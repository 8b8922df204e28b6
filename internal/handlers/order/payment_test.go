package order

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"orane_back_end/internal/models"
)

func TestAmountInCents(t *testing.T) {
	assert.Equal(t, int64(1999), amountInCents(19.99), "arrondi, pas de troncature")
	assert.Equal(t, int64(10500000), amountInCents(105000))
	assert.Equal(t, int64(0), amountInCents(0))
	assert.Equal(t, int64(10), amountInCents(0.095))
}

// fakeClaims remplace le stockage des transaction ids pour les tests
type fakeClaims struct {
	claimErr error
	claims   []string
	releases []string
}

func (f *fakeClaims) install(t *testing.T) {
	origClaim, origRelease := claimTransaction, releaseTransaction
	t.Cleanup(func() {
		claimTransaction, releaseTransaction = origClaim, origRelease
	})
	claimTransaction = func(_ context.Context, transactionID string, _ gocql.UUID) error {
		f.claims = append(f.claims, transactionID)
		return f.claimErr
	}
	releaseTransaction = func(_ context.Context, transactionID string) error {
		f.releases = append(f.releases, transactionID)
		return nil
	}
}

func succeededIntentEvent(t *testing.T, intentID, orderID string) stripe.Event {
	raw, err := json.Marshal(map[string]interface{}{
		"id":       intentID,
		"amount":   4250,
		"metadata": map[string]string{"order_id": orderID},
	})
	require.NoError(t, err)
	return stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestWebhookReplayIsIgnored(t *testing.T) {
	claims := &fakeClaims{claimErr: models.ErrDuplicatePayment}
	claims.install(t)

	handleStripeEvent(succeededIntentEvent(t, "pi_rejoue", gocql.TimeUUID().String()))

	// le doublon s'arrête au claim : rien d'autre n'est tenté, rien n'est rendu
	assert.Equal(t, []string{"pi_rejoue"}, claims.claims)
	assert.Empty(t, claims.releases)
}

func TestWebhookReleasesClaimWhenNotApplied(t *testing.T) {
	claims := &fakeClaims{}
	claims.install(t)

	// le claim passe, puis la commande est introuvable (pas de base ici) :
	// le transaction id doit être rendu pour que le retry Stripe soit re-tenté
	handleStripeEvent(succeededIntentEvent(t, "pi_orphelin", gocql.TimeUUID().String()))

	assert.Equal(t, []string{"pi_orphelin"}, claims.claims)
	assert.Equal(t, []string{"pi_orphelin"}, claims.releases)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	claims := &fakeClaims{}
	claims.install(t)

	handleStripeEvent(stripe.Event{Type: "payment_intent.created", Data: &stripe.EventData{Raw: []byte(`{}`)}})
	handleStripeEvent(succeededIntentEvent(t, "pi_sans_ordre", ""))

	assert.Empty(t, claims.claims, "pas de claim sans confirmation exploitable")
}
