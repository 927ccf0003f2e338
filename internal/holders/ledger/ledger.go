// Package ledger retrieves token metadata and holder balances from a
// distributed ledger, either directly over Solana JSON-RPC or through the
// Moralis indexing API.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"token-holders/internal/holders/config"
	"token-holders/internal/holders/model"
	"token-holders/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	OpMetadata = "metadata"
	OpHolders  = "holders"
	OpFirstTx  = "first_tx"
	OpProbe    = "probe"
)

// 展示给用户的错误信息
const (
	MsgInvalidAddress = "Invalid token address"
	MsgTokenNotFound  = "Token not found"
	MsgMetadataFailed = "Failed to fetch token info"
	MsgHoldersFailed  = "Failed to fetch token holders"
	MsgTimeout        = "Request timed out"
)

var ErrNoEndpoint = errors.New("no rpc endpoint configured")

// Client is the ledger collaborator used by the fetch coordinator.
type Client interface {
	ValidateAddressSyntax(candidate string) bool
	FetchTokenMetadata(ctx context.Context, address string) (model.TokenMetadata, error)
	// FetchHolders returns at most maxCount holders ordered by descending balance.
	FetchHolders(ctx context.Context, address string, maxCount int) ([]model.RawHolder, error)
	CurrentEndpointInfo() model.EndpointInfo
}

// QueryError carries a user facing message alongside the underlying cause.
type QueryError struct {
	Op      string
	Address string
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Address, e.Message)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Address, e.Message, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(op, address, message string, err error) *QueryError {
	if errors.Is(err, context.DeadlineExceeded) {
		message = MsgTimeout
	}
	return &QueryError{Op: op, Address: address, Message: message, Err: err}
}

// ValidateAddressSyntax checks the shape of a token address for network:
// 0x hex for EVM networks, a 32 byte base58 public key otherwise.
func ValidateAddressSyntax(network, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	if utils.IsEvmNetwork(network) {
		return common.IsHexAddress(candidate)
	}
	_, err := solana.PublicKeyFromBase58(candidate)
	return err == nil
}

// New builds the client selected by cfg.Ledger.Provider.
func New(cfg config.Config, tl *zap.Logger) (Client, error) {
	switch cfg.Ledger.Provider {
	case config.ProviderRPC:
		selector, err := NewEndpointSelector(cfg.Endpoints, tl)
		if err != nil {
			return nil, err
		}
		return NewRPCLedger(cfg.Ledger, selector, tl), nil
	case config.ProviderMoralis:
		return NewMoralisLedger(cfg.Ledger, cfg.Moralis, tl), nil
	}
	return nil, fmt.Errorf("unknown ledger provider %q", cfg.Ledger.Provider)
}
