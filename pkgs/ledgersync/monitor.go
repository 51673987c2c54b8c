// Package ledgersync watches the staking contract for PropositionStaked
// events and feeds them into the shared ledger. It is the only writer of the
// ledger and the block high-watermark.
package ledgersync

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"

	"github.com/rlay-project/rlay-client-sub000/pkgs/ledger"
)

// propositionStakedSig is the topic hash of
// PropositionStaked(bytes32 proposition, uint256 amount, address sender)
// with the proposition CID indexed.
var propositionStakedSig = crypto.Keccak256Hash([]byte("PropositionStaked(bytes32,uint256,address)"))

// Config for the ledger monitor.
type Config struct {
	Client         *ethclient.Client
	ContractAddr   common.Address
	Ledger         *ledger.Ledger
	Highwatermark  *ledger.Highwatermark
	StartBlock     uint64
	PollInterval   time.Duration
	BlockBatchSize uint64
}

// Monitor polls for staking events in bounded block batches.
type Monitor struct {
	client         *ethclient.Client
	contractAddr   common.Address
	ledger         *ledger.Ledger
	highwatermark  *ledger.Highwatermark
	lastProcessed  uint64
	pollInterval   time.Duration
	blockBatchSize uint64
}

// NewMonitor creates a monitor starting after cfg.StartBlock.
func NewMonitor(cfg Config) *Monitor {
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 5 * time.Second
	}
	batchSize := cfg.BlockBatchSize
	if batchSize == 0 {
		batchSize = 1000
	}
	return &Monitor{
		client:         cfg.Client,
		contractAddr:   cfg.ContractAddr,
		ledger:         cfg.Ledger,
		highwatermark:  cfg.Highwatermark,
		lastProcessed:  cfg.StartBlock,
		pollInterval:   pollInterval,
		blockBatchSize: batchSize,
	}
}

// Start polls until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	log.WithFields(log.Fields{
		"contract":    m.contractAddr.Hex(),
		"start_block": m.lastProcessed,
	}).Info("Starting ledger event monitor")

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Ledger event monitor stopped")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll scans one batch of blocks for staking events.
func (m *Monitor) poll(ctx context.Context) {
	currentBlock, err := m.client.BlockNumber(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to get current block, will retry next tick")
		return
	}
	if m.lastProcessed >= currentBlock {
		return
	}

	// Bound the scan range so a cold start does not overwhelm the node.
	toBlock := m.lastProcessed + m.blockBatchSize
	if toBlock > currentBlock {
		toBlock = currentBlock
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(m.lastProcessed + 1),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{m.contractAddr},
		Topics:    [][]common.Hash{{propositionStakedSig}},
	}

	logs, err := m.client.FilterLogs(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to filter PropositionStaked logs, will retry next tick")
		return
	}

	for _, vLog := range logs {
		prop := parsePropositionStaked(vLog)
		if prop == nil {
			continue
		}
		m.ledger.Append(prop)
		log.WithFields(log.Fields{
			"proposition": common.Bytes2Hex(prop.PropositionCID),
			"amount":      prop.Amount.String(),
			"sender":      prop.Sender.Hex(),
			"block":       prop.BlockNumber,
		}).Debug("Recorded stake")
	}

	m.lastProcessed = toBlock
	m.highwatermark.Advance(toBlock)
}

// parsePropositionStaked decodes one log into a proposition.
// topics[1] is the indexed proposition CID; the data carries amount and
// sender as two 32-byte words.
func parsePropositionStaked(vLog types.Log) *ledger.Proposition {
	if len(vLog.Topics) < 2 {
		log.Warnf("Invalid PropositionStaked event: expected 2 topics, got %d", len(vLog.Topics))
		return nil
	}
	if len(vLog.Data) < 64 {
		log.Warnf("Invalid PropositionStaked event data: expected 64 bytes, got %d", len(vLog.Data))
		return nil
	}

	cid := make([]byte, 32)
	copy(cid, vLog.Topics[1].Bytes())

	return &ledger.Proposition{
		PropositionCID: cid,
		Amount:         new(big.Int).SetBytes(vLog.Data[:32]),
		Sender:         common.BytesToAddress(vLog.Data[32:64]),
		BlockNumber:    vLog.BlockNumber,
	}
}
