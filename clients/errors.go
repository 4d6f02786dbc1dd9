package clients

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	json "github.com/goccy/go-json"
	"github.com/vitwit/x402pay/types"
)

// Substrings the cluster uses when it refuses a transaction. Matched against
// lower-cased RPC error text and serialized on-chain errors.
var (
	expiredMarkers = []string{
		"blockhash not found",
		"block height exceeded",
		"blockhashnotfound",
		"blockhash expired",
	}
	insufficientMarkers = []string{
		"insufficient funds",
		"insufficient lamports",
		"insufficientfunds",
		"attempt to debit an account but found no record of a prior credit",
		"accountnotfound",
	}

	// SPL token program error 1 is InsufficientFunds.
	tokenInsufficient = regexp.MustCompile(`custom program error: 0x1\b|\{"custom":1\}`)
)

// classifySendError maps a broadcast failure to the error taxonomy. Anything
// the RPC node answered is a chain-level rejection; everything else is
// transport trouble.
func classifySendError(err error) *types.X402Error {
	var xe *types.X402Error
	if errors.As(err, &xe) {
		return xe
	}

	text := strings.ToLower(err.Error())
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		text = strings.ToLower(rpcErr.Message + " " + fmt.Sprint(rpcErr.Data))
	}

	switch {
	case containsAny(text, expiredMarkers):
		return types.NewError(types.ErrBlockhashExpired, "transaction blockhash expired before it landed", err)
	case isInsufficient(text):
		return types.NewError(types.ErrInsufficientFunds, "payer has insufficient funds", err)
	case rpcErr != nil:
		return types.NewError(types.ErrChainRejected, "transaction rejected by the cluster", err)
	default:
		return types.NewError(types.ErrNetworkError, "failed to broadcast transaction", err)
	}
}

// classifyExecutionError maps the err field of a signature status.
func classifyExecutionError(txErr any) *types.X402Error {
	raw, err := json.Marshal(txErr)
	if err != nil {
		raw = []byte(fmt.Sprint(txErr))
	}
	text := strings.ToLower(string(raw))
	cause := fmt.Errorf("transaction error: %s", raw)

	switch {
	case containsAny(text, expiredMarkers):
		return types.NewError(types.ErrBlockhashExpired, "transaction blockhash expired", cause)
	case isInsufficient(text):
		return types.NewError(types.ErrInsufficientFunds, "payer has insufficient funds", cause)
	default:
		return types.NewError(types.ErrChainRejected, "transaction failed on chain", cause)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isInsufficient(s string) bool {
	return containsAny(s, insufficientMarkers) || tokenInsufficient.MatchString(s)
}
