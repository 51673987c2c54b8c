// Package payout turns aggregated proposition pools into per-address token
// rewards, caches them per epoch, and persists each epoch to disk.
package payout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Payout is one (address, amount) reward entry. Amount is a token quantity at
// 18-decimal precision.
type Payout struct {
	Address common.Address
	Amount  *big.Int
}

type payoutJSON struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// MarshalJSON renders the address as 0x-hex and the amount as a decimal
// string, matching the persisted epoch file format.
func (p *Payout) MarshalJSON() ([]byte, error) {
	return json.Marshal(payoutJSON{
		Address: p.Address.Hex(),
		Amount:  p.Amount.String(),
	})
}

// UnmarshalJSON parses the persisted form.
func (p *Payout) UnmarshalJSON(data []byte) error {
	var raw payoutJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !common.IsHexAddress(raw.Address) {
		return fmt.Errorf("invalid payout address %q", raw.Address)
	}
	amount, ok := new(big.Int).SetString(raw.Amount, 10)
	if !ok {
		return fmt.Errorf("invalid payout amount %q", raw.Amount)
	}
	p.Address = common.HexToAddress(raw.Address)
	p.Amount = amount
	return nil
}

// Compact merges a payout list into at most one entry per address by summing
// amounts. Idempotent and independent of input order; the result is sorted by
// address so repeated compactions are byte-identical.
func Compact(payouts []*Payout) []*Payout {
	byAddr := make(map[common.Address]*big.Int, len(payouts))
	for _, p := range payouts {
		if sum, ok := byAddr[p.Address]; ok {
			sum.Add(sum, p.Amount)
		} else {
			byAddr[p.Address] = new(big.Int).Set(p.Amount)
		}
	}

	out := make([]*Payout, 0, len(byAddr))
	for addr, amount := range byAddr {
		out = append(out, &Payout{Address: addr, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address.Bytes(), out[j].Address.Bytes()) < 0
	})
	return out
}
