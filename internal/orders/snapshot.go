package orders

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"orane_back_end/internal/models"
)

// Catalog : contrat minimal vers le service catalogue.
// L'implémentation ScyllaDB vit dans le handler de checkout.
type Catalog interface {
	GetItem(ctx context.Context, productID gocql.UUID) (models.Product, error)
}

// DroppedLine : ligne exclue du snapshot, à re-présenter au client plutôt
// que de facturer silencieusement un montant différent
type DroppedLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"` // "inactive", "out_of_stock", "not_found"
}

// Draft : brouillon de commande figé, pas encore persisté ni tarifé
type Draft struct {
	Items   []models.OrderItem
	Dropped []DroppedLine
}

// Snapshot fige un panier mutable en lignes de commande immuables.
// Chaque ligne est relue depuis le catalogue : c'est le prix courant qui est
// facturé, jamais le prix enregistré à l'ajout au panier. Les produits
// inactifs ou en rupture sont exclus et signalés. Aucun effet sur le panier
// lui-même.
func Snapshot(ctx context.Context, cart *models.Cart, catalog Catalog) (*Draft, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}

	draft := &Draft{}
	for _, line := range cart.Items {
		if line.Quantity < 1 {
			return nil, &models.ValidationError{Field: "quantity", Reason: "doit être ≥ 1"}
		}

		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, &models.ValidationError{Field: "product_id", Reason: "ID produit invalide"}
		}

		product, err := catalog.GetItem(ctx, gocql.UUID(pid))
		if err != nil {
			draft.Dropped = append(draft.Dropped, DroppedLine{
				ProductID: line.ProductID,
				Name:      line.Name,
				Reason:    "not_found",
			})
			continue
		}

		if !product.IsActive {
			draft.Dropped = append(draft.Dropped, DroppedLine{
				ProductID: line.ProductID,
				Name:      product.Name,
				Reason:    "inactive",
			})
			continue
		}

		if product.Available() < line.Quantity {
			draft.Dropped = append(draft.Dropped, DroppedLine{
				ProductID: line.ProductID,
				Name:      product.Name,
				Reason:    "out_of_stock",
			})
			continue
		}

		draft.Items = append(draft.Items, models.OrderItem{
			ProductID:  product.ID,
			CategoryID: product.CategoryID,
			Name:       product.Name,
			Quantity:   line.Quantity,
			UnitPrice:  product.Price, // prix catalogue courant, pas celui du panier
			Subtotal:   product.Price * float64(line.Quantity),
		})
	}

	if len(draft.Items) == 0 && len(draft.Dropped) == 0 {
		return nil, models.ErrEmptyCart
	}

	return draft, nil
}
