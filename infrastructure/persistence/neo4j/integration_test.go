//go:build integration

package neo4j

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/wait"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/storetest"
)

func TestIntegration_StoreContract(t *testing.T) {
	addr := storetest.Start(t, storetest.Container{
		Image:      "neo4j:5",
		Port:       "7687",
		Env:        map[string]string{"NEO4J_AUTH": "neo4j/integration-pass"},
		WaitingFor: wait.ForLog("Started.").WithStartupTimeout(2 * time.Minute),
	})

	suite.Run(t, &storetest.Suite{
		Open: func(ctx context.Context, t *testing.T) ports.Store {
			store, err := Open(ctx, Config{
				URI:      "neo4j://" + addr,
				Username: "neo4j",
				Password: "integration-pass",
			})
			require.NoError(t, err)
			return store
		},
		EnforcesUniqueness: true,
	})
}
