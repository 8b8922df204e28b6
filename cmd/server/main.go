package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"orane_back_end/internal/config"
	"orane_back_end/internal/database"
	"orane_back_end/internal/handlers/order"
	"orane_back_end/internal/routes"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases()

	// ✅ Initialiser les prepared statements pour améliorer les performances
	database.InitPreparedStatements()

	// ✅ Pré-chauffer la connexion Redis
	warmupRedis()

	// Annulation automatique des commandes pending jamais payées
	order.StartExpirySweeper()

	r := gin.Default()
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Orane lancé sur le port", port)
	r.Run(":" + port)
}

// warmupRedis établit la connexion Redis avant le premier appel
func warmupRedis() {
	if err := database.Redis.Ping(context.Background()).Err(); err == nil {
		log.Println("✅ Connexion Redis pré-chauffée")
	}
}
