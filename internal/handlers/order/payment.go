package order

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"orane_back_end/internal/models"
	"orane_back_end/internal/orders"
	"orane_back_end/internal/service"
	"orane_back_end/internal/services"
	"orane_back_end/internal/utils"
)

// GetPaymentInstructions retourne les coordonnées de virement et le QR SEPA
// (EPC) pour une commande en attente de paiement
func GetPaymentInstructions(c *gin.Context) {
	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}

	if order.Status != models.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'attend plus de paiement"})
		return
	}

	iban := os.Getenv("BANK_IBAN")
	bic := os.Getenv("BANK_BIC")
	beneficiary := os.Getenv("BANK_BENEFICIARY")

	qr, err := utils.GenerateSepaQR(iban, bic, beneficiary, order.OrderNumber, order.TotalAmount)
	if err != nil {
		log.Printf("❌ Erreur génération QR SEPA pour %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"iban":        iban,
		"bic":         bic,
		"beneficiary": beneficiary,
		"reference":   order.OrderNumber,
		"amount":      order.TotalAmount,
		"currency":    "eur",
		"qr_code":     qr,
	})
}

// UploadPaymentProof attache une preuve de virement (PDF ou image) à une
// commande en attente. La commande passe en pending_verification, un admin
// tranchera. Après un rejet, le client peut re-soumettre ici.
func UploadPaymentProof(c *gin.Context) {
	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}

	file, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier de preuve requis"})
		return
	}

	ctx := c.Request.Context()

	proofURL, err := services.UploadPaymentProof(ctx, order.ID.String(), file)
	if err != nil {
		log.Printf("❌ Erreur upload preuve commande %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload fichier"})
		return
	}

	prevStatus, prevPayment := order.Status, order.PaymentStatus

	payment := models.Payment{ID: gocql.TimeUUID()}
	if err := orders.ApplyProofUploaded(order, &payment, proofURL, time.Now()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'attend plus de paiement"})
		return
	}

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil {
		log.Printf("❌ Erreur persistance preuve commande %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "La commande a été modifiée entre-temps, réessayez"})
		return
	}

	if err := insertPayment(ctx, &payment); err != nil {
		log.Printf("⚠️ Tentative de paiement non tracée (commande %s): %v", order.OrderNumber, err)
	}

	go service.IndexOrder(order)
	publishOrderUpdate(order)

	log.Printf("📎 Preuve de virement reçue pour %s", order.OrderNumber)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Preuve de paiement reçue, vérification en cours",
		"proof_url": proofURL,
		"order":     order,
	})
}

// CreateCardPayment crée un PaymentIntent Stripe pour une commande existante.
// Le montant vient de la commande persistée, jamais du client.
func CreateCardPayment(c *gin.Context) {
	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}

	if order.Status != models.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'attend plus de paiement"})
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents(order.TotalAmount)),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"user_id":      order.UserID,
			"email":        order.Email,
		},
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
		return
	}

	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour %s", intent.ID, order.TotalAmount, order.Email)

	c.JSON(http.StatusOK, gin.H{
		"client_secret": intent.ClientSecret,
		"payment_id":    intent.ID,
		"amount":        order.TotalAmount,
		"currency":      "eur",
	})
}

// amountInCents convertit un montant en euros vers des centimes Stripe.
// Arrondi, pas de troncature : int64(19.99 * 100) donnerait 1998.
func amountInCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// StripeWebhook reçoit les confirmations de paiement Stripe
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(event)

	c.Status(http.StatusOK)
}

// handleStripeEvent applique une confirmation de paiement. Les webhooks
// Stripe sont rejoués en cas de doute : le transaction id est réclamé par
// INSERT IF NOT EXISTS avant toute écriture, un doublon est simplement
// ignoré.
func handleStripeEvent(event stripe.Event) {
	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}

	orderIDStr := pi.Metadata["order_id"]
	if orderIDStr == "" {
		log.Println("⚠️ PaymentIntent sans order_id, ignoré:", pi.ID)
		return
	}

	orderID, err := gocql.ParseUUID(orderIDStr)
	if err != nil {
		log.Println("❌ order_id invalide dans les métadonnées:", orderIDStr)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := claimTransaction(ctx, pi.ID, orderID); err != nil {
		if errors.Is(err, models.ErrDuplicatePayment) {
			log.Printf("🔁 Transaction %s déjà traitée, on ignore", pi.ID)
			return
		}
		log.Printf("❌ Erreur réclamation transaction %s: %v", pi.ID, err)
		return
	}

	// À partir d'ici le transaction id est réclamé : tout échec doit le
	// rendre, sinon le retry Stripe passerait pour un doublon et la
	// commande ne serait jamais créditée.
	order, err := loadOrder(ctx, orderID)
	if err != nil {
		log.Printf("❌ Commande %s introuvable pour la transaction %s", orderIDStr, pi.ID)
		rollbackClaim(ctx, pi.ID)
		return
	}

	prevStatus, prevPayment := order.Status, order.PaymentStatus
	amount := float64(pi.Amount) / 100

	payment := models.Payment{ID: gocql.TimeUUID()}
	if err := orders.ApplyWebhookConfirmed(order, &payment, pi.ID, amount, time.Now()); err != nil {
		if errors.Is(err, models.ErrPaymentMismatch) {
			log.Printf("❌ Montant Stripe %.2f€ ≠ total commande %.2f€ (%s) — paiement non appliqué",
				amount, order.TotalAmount, order.OrderNumber)
		} else {
			log.Printf("🔁 Commande %s déjà réglée (%s), webhook ignoré", order.OrderNumber, order.Status)
		}
		rollbackClaim(ctx, pi.ID)
		return
	}

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil || !applied {
		log.Printf("⚠️ Persistance paiement %s non appliquée (applied=%v, err=%v)", pi.ID, applied, err)
		rollbackClaim(ctx, pi.ID)
		return
	}

	if err := insertPayment(ctx, &payment); err != nil {
		log.Printf("⚠️ Tentative de paiement non tracée (commande %s): %v", order.OrderNumber, err)
	}

	// Le paiement encaissé rend la réservation définitive
	if err := ledger.Finalize(ctx, order.ID); err != nil {
		log.Printf("❌ Erreur finalisation stock commande %s: %v", order.OrderNumber, err)
	}

	go service.IndexOrder(order)
	go utils.SendPaymentConfirmedEmail(order)
	publishOrderUpdate(order)

	log.Printf("✅ Commande %s payée par carte (%.2f€)", order.OrderNumber, amount)
}

func rollbackClaim(ctx context.Context, transactionID string) {
	if err := releaseTransaction(ctx, transactionID); err != nil {
		log.Printf("❌ Transaction %s réclamée mais non appliquée et non rendue: %v", transactionID, err)
	}
}

// loadOwnOrder charge la commande du path param et vérifie qu'elle
// appartient bien à l'utilisateur connecté
func loadOwnOrder(c *gin.Context) (*models.Order, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return nil, false
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return nil, false
	}

	order, err := loadOrder(c.Request.Context(), orderID)
	if err != nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}
	return order, true
}
