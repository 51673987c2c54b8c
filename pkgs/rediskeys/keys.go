// Package rediskeys generates the namespaced Redis keys the engine uses for
// its payout mirror and submitted-root cache.
package rediskeys

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// defaultNamespace prefixes keys when no payout contract is configured, so
// keys never start with a bare separator.
const defaultNamespace = "payoutEngine"

// KeyBuilder namespaces keys by payout contract address so several engines
// pointed at different contracts can share one Redis instance.
type KeyBuilder struct {
	PayoutContract string
}

// checksumAddress converts an Ethereum address to EIP-55 checksummed format
// so every key uses one spelling of the address. Non-address identifiers pass
// through unchanged.
func checksumAddress(addr string) string {
	if addr == "" {
		return addr
	}
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}

// NewKeyBuilder creates a KeyBuilder with a checksummed contract address.
// An empty contract falls back to the default namespace.
func NewKeyBuilder(payoutContract string) *KeyBuilder {
	if payoutContract == "" {
		return &KeyBuilder{PayoutContract: defaultNamespace}
	}
	return &KeyBuilder{PayoutContract: checksumAddress(payoutContract)}
}

// PayoutEpoch returns the key mirroring one epoch's own payout list.
func (kb *KeyBuilder) PayoutEpoch(epoch uint64) string {
	return fmt.Sprintf("%s:payoutEpoch:%d", kb.PayoutContract, epoch)
}

// CumulativePayoutEpoch returns the key mirroring one epoch's cumulative
// payout list.
func (kb *KeyBuilder) CumulativePayoutEpoch(epoch uint64) string {
	return fmt.Sprintf("%s:cumulativePayoutEpoch:%d", kb.PayoutContract, epoch)
}

// SubmittedRoot returns the key caching an epoch's on-chain payout root.
func (kb *KeyBuilder) SubmittedRoot(epoch uint64) string {
	return fmt.Sprintf("%s:submittedRoot:%d", kb.PayoutContract, epoch)
}

// LedgerHighwatermark returns the key recording the last synced ledger block.
func (kb *KeyBuilder) LedgerHighwatermark() string {
	return fmt.Sprintf("%s:ledgerHighwatermark", kb.PayoutContract)
}
