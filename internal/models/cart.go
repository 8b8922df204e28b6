package models

import "time"

const CartTTL = 30 * 24 * time.Hour // 30 jours

// Cart : panier mutable stocké dans Redis (clé "cart:<userID>").
// Le prix est rafraîchi opportunément depuis le catalogue à la lecture,
// mais c'est toujours le prix catalogue courant qui est facturé au checkout.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"` // prix au moment de l'ajout, affichage seulement
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// AddItem ajoute un produit ou cumule la quantité s'il est déjà présent
func (c *Cart) AddItem(item CartItem) error {
	if item.Quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "doit être ≥ 1"}
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].Price = item.Price
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity fixe la quantité d'une ligne, 0 = suppression
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	if quantity < 0 {
		return false
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if quantity == 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = quantity
			}
			return true
		}
	}
	return false
}

// RemoveItem retire une ligne du panier
func (c *Cart) RemoveItem(productID string) bool {
	return c.UpdateQuantity(productID, 0)
}

// Clear vide le panier
func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total : montant affiché, basé sur les prix rafraîchis du panier
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
