package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"orane_back_end/internal/models"
)

// SendConfirmationEmail envoie un e-mail HTML avec pièce jointe optionnelle
func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@orane.shop"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("facture_orane.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// sendOrderEmail : envoi asynchrone best-effort, seulement loggé en cas d'échec
func sendOrderEmail(o *models.Order, subject, htmlBody string, pdf []byte) {
	if err := SendConfirmationEmail(o.Email, subject, htmlBody, pdf); err != nil {
		log.Printf("❌ Erreur envoi e-mail (%s, commande %s): %v", subject, o.OrderNumber, err)
	}
}

// SendOrderConfirmationEmail notifie le client que sa commande est créée
func SendOrderConfirmationEmail(o *models.Order) {
	sendOrderEmail(o, "Confirmation de votre commande "+o.OrderNumber, GenerateOrderConfirmationHTML(o), nil)
}

// SendPaymentConfirmedEmail notifie le client que son paiement est validé,
// facture PDF jointe si la génération réussit
func SendPaymentConfirmedEmail(o *models.Order) {
	var pdf []byte
	qr, err := GenerateSepaQR(os.Getenv("BANK_IBAN"), os.Getenv("BANK_BIC"),
		os.Getenv("COMPANY_NAME"), "FACT-"+o.OrderNumber, o.TotalAmount)
	if err == nil {
		pdf, err = RenderInvoicePDF(GetFrontendInvoiceBaseURL(), o.ID.String(), qr)
		if err != nil {
			log.Printf("⚠️ Facture PDF non générée pour %s: %v", o.OrderNumber, err)
			pdf = nil
		}
	}
	sendOrderEmail(o, "Paiement reçu — commande "+o.OrderNumber, GenerateOrderConfirmationHTML(o), pdf)
}

// SendOrderShippedEmail notifie l'expédition avec le numéro de suivi
func SendOrderShippedEmail(o *models.Order) {
	body := fmt.Sprintf(`<p>Bonjour,</p>
<p>Votre commande <strong>%s</strong> a été expédiée.</p>
<p>Transporteur : %s<br>Numéro de suivi : <strong>%s</strong></p>
<p>Cordialement,<br><strong>L'équipe Orane</strong></p>`,
		o.OrderNumber, o.Tracking.Carrier, o.Tracking.TrackingNumber)
	sendOrderEmail(o, "Votre commande "+o.OrderNumber+" est en route", body, nil)
}

// SendOrderCancelledEmail notifie l'annulation
func SendOrderCancelledEmail(o *models.Order) {
	body := fmt.Sprintf(`<p>Bonjour,</p>
<p>Votre commande <strong>%s</strong> a été annulée.</p>
<p>Motif : %s</p>
<p>Cordialement,<br><strong>L'équipe Orane</strong></p>`, o.OrderNumber, o.CancelReason)
	sendOrderEmail(o, "Annulation de votre commande "+o.OrderNumber, body, nil)
}

// SendRefundProcessedEmail notifie le remboursement effectué
func SendRefundProcessedEmail(o *models.Order, amount float64) {
	body := fmt.Sprintf(`<p>Bonjour,</p>
<p>Le remboursement de votre commande <strong>%s</strong> a été effectué.</p>
<p>Montant remboursé : <strong>%.2f€</strong></p>
<p>Cordialement,<br><strong>L'équipe Orane</strong></p>`, o.OrderNumber, amount)
	sendOrderEmail(o, "Remboursement de votre commande "+o.OrderNumber, body, nil)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande %s</h2>
		<p>Bonjour,</p>
		<p>Votre commande a été enregistrée avec succès.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Sous-total:</td>
					<td style="padding: 10px;">%.2f€</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Livraison:</td>
					<td style="padding: 10px;">%.2f€</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Réduction:</td>
					<td style="padding: 10px;">-%.2f€</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">%.2f€</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Orane</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, itemsHTML, order.Subtotal, order.ShippingCost, order.Discount, order.TotalAmount)
}
