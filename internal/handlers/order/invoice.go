package order

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"orane_back_end/internal/utils"
)

// SendInvoice génère la facture PDF d'une commande payée et l'envoie par
// e-mail au client
func SendInvoice(c *gin.Context) {
	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}

	if order.PaymentStatus != "paid" && order.PaymentStatus != "refunded" {
		c.JSON(http.StatusConflict, gin.H{"error": "Facture disponible uniquement pour les commandes payées"})
		return
	}

	iban := os.Getenv("BANK_IBAN")
	bic := os.Getenv("BANK_BIC")
	companyName := os.Getenv("COMPANY_NAME")
	if companyName == "" {
		companyName = "Orane SRL"
	}

	qrBase64, err := utils.GenerateSepaQR(iban, bic, companyName, "FACT-"+order.OrderNumber, order.TotalAmount)
	if err != nil {
		log.Println("❌ erreur QR:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR"})
		return
	}

	pdfBytes, err := utils.RenderInvoicePDF(utils.GetFrontendInvoiceBaseURL(), order.ID.String(), qrBase64)
	if err != nil {
		log.Println("❌ erreur PDF:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération PDF"})
		return
	}

	htmlBody := utils.GenerateOrderConfirmationHTML(order)
	if err := utils.SendConfirmationEmail(order.Email, "Votre facture Orane", htmlBody, pdfBytes); err != nil {
		log.Println("❌ erreur envoi mail:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur envoi e-mail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Facture envoyée"})
}
