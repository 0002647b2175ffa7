package swap

import (
	"crypto/ed25519"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dexproxy/proxy-client/pkg/solana/proxy"
	"github.com/dexproxy/proxy-client/pkg/solana/system"
	"github.com/dexproxy/proxy-client/pkg/solana/token"
)

// Deployment is the table of programs and well known accounts a planner
// targets. Values are treated as immutable once a planner holds them.
type Deployment struct {
	Name string

	ProxyProgram ed25519.PublicKey

	BondingCurveProgram        ed25519.PublicKey
	BondingCurveGlobal         ed25519.PublicKey
	BondingCurveFeeRecipient   ed25519.PublicKey
	BondingCurveEventAuthority ed25519.PublicKey

	AmmProgram        ed25519.PublicKey
	AmmGlobal         ed25519.PublicKey
	AmmFeeRecipient   ed25519.PublicKey
	AmmEventAuthority ed25519.PublicKey

	RoutedProgram   ed25519.PublicKey
	RoutedAuthority ed25519.PublicKey

	SystemProgram          ed25519.PublicKey
	TokenProgram           ed25519.PublicKey
	AssociatedTokenProgram ed25519.PublicKey
	RentSysvar             ed25519.PublicKey
	NativeMint             ed25519.PublicKey
}

// MainnetDeployment returns the production proxy and exchange addresses.
func MainnetDeployment() *Deployment {
	d := &Deployment{
		Name:         "mainnet",
		ProxyProgram: proxy.MainnetProgramID,

		BondingCurveProgram:        proxy.PumpProgramID,
		BondingCurveGlobal:         proxy.PumpGlobal,
		BondingCurveFeeRecipient:   proxy.PumpFeeRecipient,
		BondingCurveEventAuthority: proxy.PumpEventAuthority,

		// The AMM forwarder shares the launch protocol's global, fee and event
		// accounts.
		AmmProgram:        proxy.PumpAmmProgramID,
		AmmGlobal:         proxy.PumpGlobal,
		AmmFeeRecipient:   proxy.PumpFeeRecipient,
		AmmEventAuthority: proxy.PumpEventAuthority,

		RoutedProgram:   proxy.RaydiumV4ProgramID,
		RoutedAuthority: proxy.RaydiumV4Authority,

		SystemProgram:          system.ProgramKey,
		TokenProgram:           token.ProgramKey,
		AssociatedTokenProgram: token.AssociatedTokenAccountProgramKey,
		RentSysvar:             system.RentSysVar,
		NativeMint:             token.NativeMint,
	}
	return d.Clone()
}

// DevnetDeployment is MainnetDeployment with the devnet proxy program.
func DevnetDeployment() *Deployment {
	d := MainnetDeployment()
	d.Name = "devnet"
	d.ProxyProgram = append(ed25519.PublicKey{}, proxy.DevnetProgramID...)
	return d
}

// DeploymentByName returns a built-in deployment.
func DeploymentByName(name string) (*Deployment, error) {
	switch strings.ToLower(name) {
	case "", "mainnet", "mainnet-beta":
		return MainnetDeployment(), nil
	case "devnet":
		return DevnetDeployment(), nil
	}
	return nil, errors.Wrapf(ErrConfiguration, "unknown deployment %q", name)
}

// Clone returns a deep copy.
func (d *Deployment) Clone() *Deployment {
	cloned := *d
	for _, f := range cloned.fields() {
		if *f.key != nil {
			*f.key = append(ed25519.PublicKey{}, *f.key...)
		}
	}
	return &cloned
}

// Validate checks every address is present and well formed.
func (d *Deployment) Validate() error {
	for _, f := range d.fields() {
		if len(*f.key) != ed25519.PublicKeySize {
			return errors.Wrapf(ErrConfiguration, "deployment %q: %s is not a valid address", d.Name, f.name)
		}
	}
	return nil
}

type deploymentField struct {
	name string
	key  *ed25519.PublicKey
}

// fields lists the addresses by their configuration file key.
func (d *Deployment) fields() []deploymentField {
	return []deploymentField{
		{"proxy_program", &d.ProxyProgram},
		{"bonding_curve_program", &d.BondingCurveProgram},
		{"bonding_curve_global", &d.BondingCurveGlobal},
		{"bonding_curve_fee_recipient", &d.BondingCurveFeeRecipient},
		{"bonding_curve_event_authority", &d.BondingCurveEventAuthority},
		{"amm_program", &d.AmmProgram},
		{"amm_global", &d.AmmGlobal},
		{"amm_fee_recipient", &d.AmmFeeRecipient},
		{"amm_event_authority", &d.AmmEventAuthority},
		{"routed_program", &d.RoutedProgram},
		{"routed_authority", &d.RoutedAuthority},
		{"system_program", &d.SystemProgram},
		{"token_program", &d.TokenProgram},
		{"associated_token_program", &d.AssociatedTokenProgram},
		{"rent_sysvar", &d.RentSysvar},
		{"native_mint", &d.NativeMint},
	}
}

// LoadDeployment reads a YAML, JSON or TOML deployment file. The file names a
// built-in deployment to start from under "base" and may override any address
// by its snake_case key:
//
//	base: devnet
//	proxy_program: HVN5pETkbwRSnbcXGqjbd8sVUGU7VJCgMC8JeUL8SGUn
//
// The result is validated before it is returned.
func LoadDeployment(path string) (*Deployment, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, WithKind(ErrConfiguration, err, "error reading deployment file")
	}
	return deploymentFromViper(v)
}

func deploymentFromViper(v *viper.Viper) (*Deployment, error) {
	d, err := DeploymentByName(v.GetString("base"))
	if err != nil {
		return nil, err
	}
	if name := v.GetString("name"); len(name) > 0 {
		d.Name = name
	}

	for _, f := range d.fields() {
		if !v.IsSet(f.name) {
			continue
		}

		decoded, err := base58.Decode(v.GetString(f.name))
		if err != nil || len(decoded) != ed25519.PublicKeySize {
			return nil, errors.Wrapf(ErrConfiguration, "deployment %q: invalid %s", d.Name, f.name)
		}
		*f.key = decoded
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// String renders the deployment as key=address lines, in file key order.
func (d *Deployment) String() string {
	var sb strings.Builder
	sb.WriteString("name=" + d.Name + "\n")
	for _, f := range d.fields() {
		sb.WriteString(f.name + "=" + base58.Encode(*f.key) + "\n")
	}
	return sb.String()
}
