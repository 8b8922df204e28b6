package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC)

	n := NewOrderNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20260415-[0-9A-F]{6}$`), n)

	// le suffixe aléatoire rend les collisions improbables sur un petit lot
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[NewOrderNumber(now)] = true
	}
	assert.Greater(t, len(seen), 40)
}
