package database

import (
	"context"
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var (
	// Prepared statements pour le chemin chaud du checkout
	stmtGetOrderByID      *gocql.Query
	stmtGetOrdersByUser   *gocql.Query
	stmtCountOrdersByUser *gocql.Query
	stmtGetProductForCart *gocql.Query
	stmtGetCouponByCode   *gocql.Query

	preparedOnce sync.Once
)

// InitPreparedStatements initialise les prepared statements
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		orders, err := GetOrdersSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}
		products, err := GetProductsSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}

		// Lecture d'une commande complète
		stmtGetOrderByID = orders.Query(`SELECT order_number, user_id, email, items, shipping_address,
			subtotal, shipping_cost, tax, discount, total_amount, coupon_code,
			status, payment_status, payment_method, payment_details, tracking,
			cancel_reason, created_at, updated_at FROM orders WHERE order_id = ?`)

		// Commandes d'un utilisateur (table dénormalisée)
		stmtGetOrdersByUser = orders.Query(`SELECT order_id, order_number, status, payment_status,
			total_amount, created_at FROM orders_by_user WHERE user_id = ?`)

		// Nombre de commandes d'un client (coupons "nouveaux clients")
		stmtCountOrdersByUser = orders.Query(`SELECT COUNT(*) FROM orders_by_user WHERE user_id = ?`)

		// Lecture produit pour le snapshot de panier
		stmtGetProductForCart = products.Query(`SELECT product_id, name, price, stock, stock_reserved,
			category_id, is_active, image_urls FROM products WHERE product_id = ?`)

		// Lecture coupon par code
		stmtGetCouponByCode = orders.Query(`SELECT id, code, type, value, min_amount, max_amount,
			max_uses, used_count, max_uses_per_user, applicable_to_all, product_ids, category_ids,
			new_customers_only, customer_ids, expires_at, starts_at, is_active
			FROM coupons WHERE code = ? LIMIT 1`)

		log.Println("✅ Prepared statements initialisés")
	})
}

// BindPrepared retourne une copie liée du prepared statement. Bind mute la
// requête en place, seule WithContext copie : lier le singleton partagé
// directement ferait courir deux requêtes concurrentes sur les mêmes values.
// Toujours passer par ici, jamais stmt.Bind(...) sur le singleton.
func BindPrepared(ctx context.Context, stmt *gocql.Query, values ...interface{}) *gocql.Query {
	return stmt.WithContext(ctx).Bind(values...)
}

func GetPreparedGetOrderByID() *gocql.Query {
	return stmtGetOrderByID
}

func GetPreparedGetOrdersByUser() *gocql.Query {
	return stmtGetOrdersByUser
}

func GetPreparedCountOrdersByUser() *gocql.Query {
	return stmtCountOrdersByUser
}

func GetPreparedGetProductForCart() *gocql.Query {
	return stmtGetProductForCart
}

func GetPreparedGetCouponByCode() *gocql.Query {
	return stmtGetCouponByCode
}
