package swap

import (
	"context"
	"crypto/ed25519"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/config"
	"github.com/dexproxy/proxy-client/pkg/config/env"
	"github.com/dexproxy/proxy-client/pkg/config/wrapper"
	"github.com/dexproxy/proxy-client/pkg/solana"
)

const (
	// EnvPrefix namespaces every runtime setting.
	EnvPrefix = "PROXY_SWAP_"

	// PrivateKeyEnv holds the signer as a base58 encoded 64 byte keypair.
	PrivateKeyEnv = "PRIVATE_KEY"

	EndpointConfigEnvName            = EnvPrefix + "RPC_ENDPOINT"
	CommitmentConfigEnvName          = EnvPrefix + "COMMITMENT"
	SkipPreflightConfigEnvName       = EnvPrefix + "SKIP_PREFLIGHT"
	RentReserveConfigEnvName         = EnvPrefix + "RENT_RESERVE"
	ConfirmationTimeoutConfigEnvName = EnvPrefix + "CONFIRMATION_TIMEOUT"
	ComputeUnitLimitConfigEnvName    = EnvPrefix + "COMPUTE_UNIT_LIMIT"
	ComputeUnitPriceConfigEnvName    = EnvPrefix + "COMPUTE_UNIT_PRICE"
	RateLimitConfigEnvName           = EnvPrefix + "RPC_RATE_LIMIT"
	DeploymentConfigEnvName          = EnvPrefix + "DEPLOYMENT"
	MemoConfigEnvName                = EnvPrefix + "MEMO"

	defaultEndpoint            = "mainnet"
	defaultSkipPreflight       = true
	defaultConfirmationTimeout = 60 * time.Second
	defaultDeployment          = "mainnet"
)

// Config holds the runtime settings, read from the environment on every Get.
type Config struct {
	Endpoint            config.Value[string]
	Commitment          config.Value[solana.Commitment]
	SkipPreflight       config.Value[bool]
	RentReserve         config.Value[uint64]
	ConfirmationTimeout config.Value[time.Duration]
	ComputeUnitLimit    config.Value[uint64]
	ComputeUnitPrice    config.Value[uint64]
	RateLimit           config.Value[uint64]

	// Deployment is a built-in deployment name or a path to a deployment file.
	Deployment config.Value[string]

	// Memo, when set, is attached to every planned transaction.
	Memo config.Value[string]
}

// ConfigFromEnv binds Config to the PROXY_SWAP_ environment variables.
func ConfigFromEnv() *Config {
	return NewConfig(env.NewConfig)
}

// NewConfig binds Config to the sources returned by source for each key.
func NewConfig(source func(key string) config.Config) *Config {
	return &Config{
		Endpoint:            wrapper.NewStringConfig(source(EndpointConfigEnvName), defaultEndpoint),
		Commitment:          wrapper.New(source(CommitmentConfigEnvName), solana.CommitmentConfirmed, toCommitment),
		SkipPreflight:       wrapper.NewBoolConfig(source(SkipPreflightConfigEnvName), defaultSkipPreflight),
		RentReserve:         wrapper.NewUint64Config(source(RentReserveConfigEnvName), DefaultRentReserve),
		ConfirmationTimeout: wrapper.NewDurationConfig(source(ConfirmationTimeoutConfigEnvName), defaultConfirmationTimeout),
		ComputeUnitLimit:    wrapper.NewUint64Config(source(ComputeUnitLimitConfigEnvName), 0),
		ComputeUnitPrice:    wrapper.NewUint64Config(source(ComputeUnitPriceConfigEnvName), 0),
		RateLimit:           wrapper.NewUint64Config(source(RateLimitConfigEnvName), 0),
		Deployment:          wrapper.NewStringConfig(source(DeploymentConfigEnvName), defaultDeployment),
		Memo:                wrapper.NewStringConfig(source(MemoConfigEnvName), ""),
	}
}

func toCommitment(raw interface{}) (solana.Commitment, error) {
	s, err := wrapper.ToString(raw)
	if err != nil {
		return solana.Commitment{}, err
	}
	return solana.ParseCommitment(s)
}

// SubmitOptions derives submission options from the current settings.
func (c *Config) SubmitOptions(ctx context.Context) (SubmitOptions, error) {
	commitment, err := c.Commitment.GetSafe(ctx)
	if err != nil {
		return SubmitOptions{}, WithKind(ErrConfiguration, err, "invalid "+CommitmentConfigEnvName)
	}
	skip, err := c.SkipPreflight.GetSafe(ctx)
	if err != nil {
		return SubmitOptions{}, WithKind(ErrConfiguration, err, "invalid "+SkipPreflightConfigEnvName)
	}
	return SubmitOptions{Commitment: commitment, SkipPreflight: skip}, nil
}

// PlannerOptions derives planner options from the current settings.
func (c *Config) PlannerOptions(ctx context.Context) ([]PlannerOption, error) {
	reserve, err := c.RentReserve.GetSafe(ctx)
	if err != nil {
		return nil, WithKind(ErrConfiguration, err, "invalid "+RentReserveConfigEnvName)
	}
	limit, err := c.ComputeUnitLimit.GetSafe(ctx)
	if err != nil {
		return nil, WithKind(ErrConfiguration, err, "invalid "+ComputeUnitLimitConfigEnvName)
	}
	if limit > uint64(^uint32(0)) {
		return nil, errors.Wrapf(ErrConfiguration, "%s out of range", ComputeUnitLimitConfigEnvName)
	}
	price, err := c.ComputeUnitPrice.GetSafe(ctx)
	if err != nil {
		return nil, WithKind(ErrConfiguration, err, "invalid "+ComputeUnitPriceConfigEnvName)
	}

	opts := []PlannerOption{
		WithRentReserve(reserve),
		WithComputeBudget(uint32(limit), price),
	}
	if label := c.Memo.Get(ctx); len(label) > 0 {
		opts = append(opts, WithMemo(label))
	}
	return opts, nil
}

// LoadConfiguredDeployment resolves the Deployment setting, either a
// built-in name or a deployment file.
func (c *Config) LoadConfiguredDeployment(ctx context.Context) (*Deployment, error) {
	value := c.Deployment.Get(ctx)
	if d, err := DeploymentByName(value); err == nil {
		return d, nil
	}
	return LoadDeployment(value)
}

// LoadSigner reads PRIVATE_KEY after loading any of the given dotenv files
// that exist. Variables already in the environment take precedence.
func LoadSigner(envFiles ...string) (ed25519.PrivateKey, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, WithKind(ErrConfiguration, err, "error loading "+file)
		}
	}

	encoded, ok := os.LookupEnv(PrivateKeyEnv)
	if !ok || len(encoded) == 0 {
		return nil, errors.Wrapf(ErrConfiguration, "%s is not set", PrivateKeyEnv)
	}
	return ParsePrivateKey(encoded)
}

// ParsePrivateKey decodes a base58 encoded 64 byte keypair and checks its
// public half.
func ParsePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	decoded, err := base58.Decode(encoded)
	if err != nil {
		return nil, errors.Wrap(ErrConfiguration, "private key is not valid base58")
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrConfiguration, "private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(decoded))
	}

	key := ed25519.NewKeyFromSeed(decoded[:ed25519.SeedSize])
	if !key.Equal(ed25519.PrivateKey(decoded)) {
		return nil, errors.Wrap(ErrConfiguration, "private key does not match its public key")
	}
	return key, nil
}
