package domain

import (
	"fmt"
	"math/big"
	"math/bits"
	"strings"
)

// Uint128 is an unsigned 128-bit amount. Balances and accumulated totals
// use it so that per-room lifetime revenue cannot wrap a uint64.
// JSON encoding is a decimal string.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

var MaxUint128 = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}

// U128 converts a 64-bit amount.
func U128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// AddChecked returns a+b and false on overflow.
func (a Uint128) AddChecked(b Uint128) (Uint128, bool) {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, carry := bits.Add64(a.Hi, b.Hi, carry)
	if carry != 0 {
		return Uint128{}, false
	}
	return Uint128{Hi: hi, Lo: lo}, true
}

// AddU64Checked returns a+v and false on overflow.
func (a Uint128) AddU64Checked(v uint64) (Uint128, bool) {
	return a.AddChecked(U128(v))
}

// SubSaturating returns a-b, floored at zero.
func (a Uint128) SubSaturating(b Uint128) Uint128 {
	if a.Cmp(b) < 0 {
		return Uint128{}
	}
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, _ := bits.Sub64(a.Hi, b.Hi, borrow)
	return Uint128{Hi: hi, Lo: lo}
}

// Cmp returns -1, 0 or 1.
func (a Uint128) Cmp(b Uint128) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	}
	return 0
}

func (a Uint128) IsZero() bool {
	return a.Hi == 0 && a.Lo == 0
}

func (a Uint128) big() *big.Int {
	n := new(big.Int).SetUint64(a.Hi)
	n.Lsh(n, 64)
	return n.Or(n, new(big.Int).SetUint64(a.Lo))
}

func (a Uint128) String() string {
	return a.big().String()
}

// ParseUint128 parses a decimal string.
func ParseUint128(s string) (Uint128, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return Uint128{}, fmt.Errorf("invalid uint128 %q", s)
	}
	lo := new(big.Int).And(n, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(n, 64)
	return Uint128{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

func (a Uint128) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Uint128) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := ParseUint128(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
