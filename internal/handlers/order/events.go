package order

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// OrderEvent : notification de changement de statut poussée sur Redis.
// Le handler WebSocket (internal/handlers/user) s'abonne au canal du client.
type OrderEvent struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Timestamp     time.Time `json:"timestamp"`
}

func orderChannel(userID string) string { return "orders:" + userID }

// publishOrderUpdate pousse l'état courant de la commande sur le canal du
// client. Best-effort : un pub/sub raté n'annule jamais la transaction.
func publishOrderUpdate(o *models.Order) {
	event := OrderEvent{
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Timestamp:     time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := database.Redis.Publish(ctx, orderChannel(o.UserID), payload).Err(); err != nil {
		log.Printf("⚠️ Publication événement commande %s échouée: %v", o.OrderNumber, err)
	}
}
