package utils

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// RecordAudit trace une action admin sensible (vérification de paiement,
// annulation, remboursement). Asynchrone : un audit raté ne bloque jamais
// l'opération.
func RecordAudit(c *gin.Context, action, resource, resourceID string, success bool, note string) {
	entry := models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   note,
		Timestamp:  time.Now(),
	}

	go func() {
		session, err := database.GetOrdersSession()
		if err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
			return
		}

		if err := session.Query(`
			INSERT INTO audit_logs (id, user_id, user_email, action, resource, resource_id,
				ip_address, user_agent, success, error_msg, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.UserID, entry.UserEmail, entry.Action, entry.Resource, entry.ResourceID,
			entry.IPAddress, entry.UserAgent, entry.Success, entry.ErrorMsg, entry.Timestamp,
		).Exec(); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}
