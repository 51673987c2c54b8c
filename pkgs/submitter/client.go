// Package submitter decides which epochs still need their payout root
// committed on-chain and submits the missing roots.
package submitter

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// ContractClient is the payout contract boundary: query an epoch's committed
// root and submit a new one attributed to the issuer account.
type ContractClient interface {
	PayoutRoot(ctx context.Context, epoch uint64) ([32]byte, error)
	SubmitPayoutRoot(ctx context.Context, epoch uint64, root [32]byte) error
	Issuer() common.Address
}

// PayoutContract binds to the on-chain payout contract.
type PayoutContract struct {
	client       *ethclient.Client
	contractAddr common.Address
	abi          abi.ABI
	privateKey   *ecdsa.PrivateKey
	issuerAddr   common.Address
	chainID      *big.Int
}

// NewPayoutContract creates a contract client signing as the designated
// issuer account.
func NewPayoutContract(rpcURL string, contractAddr string, issuerPrivateKey string, chainID int64) (*PayoutContract, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}

	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address: %s", contractAddr)
	}

	privateKey, err := crypto.HexToECDSA(issuerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer private key: %w", err)
	}
	issuerAddr := crypto.PubkeyToAddress(privateKey.PublicKey)

	payoutABI, err := abi.JSON(strings.NewReader(PayoutContractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to load payout contract ABI: %w", err)
	}

	return &PayoutContract{
		client:       client,
		contractAddr: common.HexToAddress(contractAddr),
		abi:          payoutABI,
		privateKey:   privateKey,
		issuerAddr:   issuerAddr,
		chainID:      big.NewInt(chainID),
	}, nil
}

// Issuer returns the account payout roots are attributed to.
func (pc *PayoutContract) Issuer() common.Address {
	return pc.issuerAddr
}

// PayoutRoot queries the contract for an already-committed root for the
// epoch. A zero root means nothing has been committed yet.
func (pc *PayoutContract) PayoutRoot(ctx context.Context, epoch uint64) ([32]byte, error) {
	var root [32]byte

	data, err := pc.abi.Pack("payoutRoots", new(big.Int).SetUint64(epoch))
	if err != nil {
		return root, fmt.Errorf("failed to pack payoutRoots call: %w", err)
	}

	result, err := pc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &pc.contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return root, fmt.Errorf("payoutRoots call failed: %w", err)
	}

	unpacked, err := pc.abi.Unpack("payoutRoots", result)
	if err != nil {
		return root, fmt.Errorf("failed to unpack payoutRoots result: %w", err)
	}
	root = unpacked[0].([32]byte)
	return root, nil
}

// SubmitPayoutRoot sends the submitPayoutRoot transaction and waits for it to
// be mined.
func (pc *PayoutContract) SubmitPayoutRoot(ctx context.Context, epoch uint64, root [32]byte) error {
	data, err := pc.abi.Pack("submitPayoutRoot",
		new(big.Int).SetUint64(epoch),
		root,
		pc.issuerAddr)
	if err != nil {
		return fmt.Errorf("failed to pack submitPayoutRoot call: %w", err)
	}

	msg := ethereum.CallMsg{
		From: pc.issuerAddr,
		To:   &pc.contractAddr,
		Data: data,
	}
	gasLimit, err := pc.client.EstimateGas(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to estimate gas: %w", err)
	}
	// Add 20% buffer
	gasLimit = uint64(float64(gasLimit) * 1.2)

	nonce, err := pc.client.PendingNonceAt(ctx, pc.issuerAddr)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := pc.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, pc.contractAddr, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(pc.chainID), pc.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"tx_hash":   signedTx.Hash().Hex(),
		"epoch":     epoch,
		"gas_limit": gasLimit,
		"issuer":    pc.issuerAddr.Hex(),
	}).Info("Submitting payout root")

	if err := pc.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, pc.client, signedTx)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("transaction reverted: %s", receipt.TxHash.Hex())
	}

	logrus.WithFields(logrus.Fields{
		"tx_hash":      receipt.TxHash.Hex(),
		"block_number": receipt.BlockNumber.Uint64(),
		"epoch":        epoch,
	}).Info("Payout root submission successful")
	return nil
}

// Close closes the client connection.
func (pc *PayoutContract) Close() {
	if pc.client != nil {
		pc.client.Close()
	}
}

// PayoutContractABI contains the simplified ABI for the payout contract.
const PayoutContractABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "epoch", "type": "uint256"}
		],
		"name": "payoutRoots",
		"outputs": [
			{"internalType": "bytes32", "name": "", "type": "bytes32"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "epoch", "type": "uint256"},
			{"internalType": "bytes32", "name": "payoutRoot", "type": "bytes32"},
			{"internalType": "address", "name": "issuer", "type": "address"}
		],
		"name": "submitPayoutRoot",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
