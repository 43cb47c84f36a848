package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/wfunc/gamingpool/models"
)

// Validator turns a user-supplied string into a canonical address.
type Validator interface {
	Validate(addr string) (string, error)
}

// Bech32Validator accepts lowercase bech32 addresses with the given
// human-readable prefix. An empty Prefix accepts any prefix.
type Bech32Validator struct {
	Prefix string
}

func NewBech32Validator(prefix string) *Bech32Validator {
	return &Bech32Validator{Prefix: prefix}
}

func (v *Bech32Validator) Validate(addr string) (string, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", models.ErrInvalidAddress, addr, err)
	}
	if v.Prefix != "" && hrp != v.Prefix {
		return "", fmt.Errorf("%w: %q: expected prefix %q, got %q", models.ErrInvalidAddress, addr, v.Prefix, hrp)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %q: empty payload", models.ErrInvalidAddress, addr)
	}
	// Decode accepts all-uppercase input; addresses are stored lowercase.
	if addr != strings.ToLower(addr) {
		return "", fmt.Errorf("%w: %q: address must be lowercase", models.ErrInvalidAddress, addr)
	}
	return addr, nil
}

