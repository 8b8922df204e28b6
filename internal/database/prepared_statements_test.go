package database

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
)

// Deux requêtes concurrentes sur le même prepared statement : BindPrepared
// doit copier avant de lier, sinon les values du singleton partagé sont
// écrasées par l'autre requête (détecté par -race).
func TestBindPreparedCopiesBeforeBinding(t *testing.T) {
	stmt := new(gocql.Session).Query(`SELECT name FROM products WHERE product_id = ?`)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	bound := make(chan *gocql.Query, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			bound <- BindPrepared(ctx, stmt, id)
		}(i)
	}
	wg.Wait()
	close(bound)

	// chaque appelant repart avec sa propre copie, jamais le singleton
	for q := range bound {
		assert.NotSame(t, stmt, q)
	}
}
