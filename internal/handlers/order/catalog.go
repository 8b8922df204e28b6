package order

import (
	"context"

	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// scyllaCatalog expose le catalogue produits au snapshot du panier.
type scyllaCatalog struct{}

func (scyllaCatalog) GetItem(ctx context.Context, productID gocql.UUID) (models.Product, error) {
	var p models.Product
	stmt := database.GetPreparedGetProductForCart()
	if stmt == nil {
		return models.Product{}, gocql.ErrNoConnections
	}
	err := database.BindPrepared(ctx, stmt, productID).Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.StockReserved, &p.CategoryID, &p.IsActive, &p.ImageURLs)
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}
