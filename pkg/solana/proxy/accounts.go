package proxy

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

// Role names the purpose of a position in an instruction's account list.
type Role uint8

const (
	RoleUnknown Role = iota

	RoleGlobal
	RoleFeeRecipient
	RoleMint
	RoleBondingCurve
	RoleBondingCurveVault
	RolePool
	RolePoolVault
	RoleUserTokenAccount
	RoleUser
	RoleSystemProgram
	RoleTokenProgram
	RoleRentSysvar
	RoleEventAuthority
	RoleBondingCurveProgram
	RoleAmmProgram

	RoleRoutedProgram
	RoleRoutedPool
	RoleRoutedAuthority
	RoleCoinVault
	RolePcVault
	RoleSourceTokenAccount
	RoleDestinationTokenAccount

	RolePayer
	RoleAssociatedAccount
	RoleAssociatedTokenProgram
)

var roleNames = map[Role]string{
	RoleGlobal:                  "global",
	RoleFeeRecipient:            "fee_recipient",
	RoleMint:                    "mint",
	RoleBondingCurve:            "bonding_curve",
	RoleBondingCurveVault:       "bonding_curve_vault",
	RolePool:                    "pool",
	RolePoolVault:               "pool_vault",
	RoleUserTokenAccount:        "user_token_account",
	RoleUser:                    "user",
	RoleSystemProgram:           "system_program",
	RoleTokenProgram:            "token_program",
	RoleRentSysvar:              "rent_sysvar",
	RoleEventAuthority:          "event_authority",
	RoleBondingCurveProgram:     "bonding_curve_program",
	RoleAmmProgram:              "amm_program",
	RoleRoutedProgram:           "routed_program",
	RoleRoutedPool:              "routed_pool",
	RoleRoutedAuthority:         "routed_authority",
	RoleCoinVault:               "coin_vault",
	RolePcVault:                 "pc_vault",
	RoleSourceTokenAccount:      "source_token_account",
	RoleDestinationTokenAccount: "destination_token_account",
	RolePayer:                   "payer",
	RoleAssociatedAccount:       "associated_account",
	RoleAssociatedTokenProgram:  "associated_token_program",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Slot is one position of an account template.
type Slot struct {
	Role       Role
	IsSigner   bool
	IsWritable bool
}

func readonly(r Role) Slot { return Slot{Role: r} }
func writable(r Role) Slot { return Slot{Role: r, IsWritable: true} }
func signer(r Role) Slot   { return Slot{Role: r, IsSigner: true, IsWritable: true} }

var (
	bondingCurveSwapTemplate = []Slot{
		readonly(RoleGlobal),
		writable(RoleFeeRecipient),
		readonly(RoleMint),
		writable(RoleBondingCurve),
		writable(RoleBondingCurveVault),
		writable(RoleUserTokenAccount),
		signer(RoleUser),
		readonly(RoleSystemProgram),
		readonly(RoleTokenProgram),
		readonly(RoleRentSysvar),
		readonly(RoleEventAuthority),
		readonly(RoleBondingCurveProgram),
	}

	ammSwapTemplate = []Slot{
		readonly(RoleGlobal),
		writable(RoleFeeRecipient),
		readonly(RoleMint),
		writable(RolePool),
		writable(RolePoolVault),
		writable(RoleUserTokenAccount),
		signer(RoleUser),
		readonly(RoleSystemProgram),
		readonly(RoleTokenProgram),
		readonly(RoleRentSysvar),
		readonly(RoleEventAuthority),
		readonly(RoleAmmProgram),
	}

	routedSwapTemplate = []Slot{
		readonly(RoleRoutedProgram),
		readonly(RoleTokenProgram),
		writable(RoleRoutedPool),
		writable(RoleRoutedAuthority),
		writable(RoleCoinVault),
		writable(RolePcVault),
		writable(RoleSourceTokenAccount),
		writable(RoleDestinationTokenAccount),
		signer(RoleUser),
	}

	createAccountTemplate = []Slot{
		signer(RolePayer),
		writable(RoleAssociatedAccount),
		readonly(RoleMint),
		readonly(RoleSystemProgram),
		readonly(RoleTokenProgram),
		readonly(RoleAssociatedTokenProgram),
	}
)

// Template returns the account roles op expects, in wire order. The proxy
// forwards accounts positionally, so the order is the contract.
func Template(op Operation) ([]Slot, error) {
	var slots []Slot
	switch op {
	case BondingCurveBuy, BondingCurveSell:
		slots = bondingCurveSwapTemplate
	case AmmBuy, AmmSell:
		slots = ammSwapTemplate
	case RoutedBuy, RoutedSell:
		slots = routedSwapTemplate
	case CreateAccount:
		slots = createAccountTemplate
	case ExpireAtSlot:
		return []Slot{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownOperation, "no account template for %s", op)
	}
	return append([]Slot(nil), slots...), nil
}

// Accounts maps each role to the address filling it.
type Accounts map[Role]ed25519.PublicKey

// Resolve fills op's template with addresses. Either every slot resolves or
// no list is returned.
func Resolve(op Operation, accounts Accounts) ([]solana.AccountMeta, error) {
	slots, err := Template(op)
	if err != nil {
		return nil, err
	}

	metas := make([]solana.AccountMeta, len(slots))
	for i, slot := range slots {
		address, ok := accounts[slot.Role]
		if !ok || len(address) != ed25519.PublicKeySize {
			return nil, errors.Wrapf(ErrMissingAccount, "%s: %s (position %d)", op, slot.Role, i)
		}

		metas[i] = solana.AccountMeta{
			PublicKey:  address,
			IsSigner:   slot.IsSigner,
			IsWritable: slot.IsWritable,
		}
	}
	return metas, nil
}

// NewInstruction encodes values and resolves accounts for op against the
// proxy program. No instruction is returned if either step fails.
func NewInstruction(program ed25519.PublicKey, op Operation, accounts Accounts, values ...uint64) (solana.Instruction, error) {
	data, err := EncodePayload(op, values...)
	if err != nil {
		return solana.Instruction{}, err
	}

	metas, err := Resolve(op, accounts)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(program, data, metas...), nil
}
