package solana

import (
	"strings"

	"github.com/pkg/errors"
)

type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// ParseEnvironment resolves a cluster moniker to its public RPC endpoint. Any
// value that already looks like a URL is returned unchanged.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(s) {
	case "devnet", "dev":
		return EnvironmentDev, nil
	case "testnet", "test":
		return EnvironmentTest, nil
	case "mainnet", "mainnet-beta", "prod":
		return EnvironmentProd, nil
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return Environment(s), nil
	}
	return "", errors.Errorf("unknown cluster %q", s)
}
