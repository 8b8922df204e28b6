package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// NewOrderNumber génère le numéro de commande, assigné une seule fois à la
// création et jamais régénéré. Format : ORD-20260415-7F3A2C.
func NewOrderNumber(now time.Time) string {
	const hexDigits = "0123456789ABCDEF"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = hexDigits[rand.Intn(len(hexDigits))]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
