package db

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-pos/meridian-pos/internal/testing/guard"
)

func TestUnitOfWorkRunsAtReadCommitted(t *testing.T) {
	// Guarded stock decrements depend on the UPDATE re-checking its
	// predicate under the row lock. Repeatable read would turn the
	// losing concurrent sale into a serialization failure instead of
	// an insufficient-stock result.
	require.Equal(t, pgx.ReadCommitted, txOptions.IsoLevel)
}
