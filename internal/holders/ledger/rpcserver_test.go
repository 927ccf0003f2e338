package ledger

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcHandler func(params []json.RawMessage) (interface{}, *rpcFailure)

// fakeRPC is a minimal Solana JSON-RPC server keyed by method name.
type fakeRPC struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
}

func newFakeRPC(t *testing.T) *fakeRPC {
	t.Helper()
	f := &fakeRPC{handlers: map[string]rpcHandler{}, calls: map[string]int{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRPC) handle(method string, h rpcHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRPC) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.calls[req.Method]++
	h := f.handlers[req.Method]
	f.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if h == nil {
		resp["error"] = rpcFailure{Code: -32601, Message: "Method not found"}
	} else if result, failure := h(req.Params); failure != nil {
		resp["error"] = failure
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func tokenSupplyResult(amount string, decimals int) interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value": map[string]interface{}{
			"amount":         amount,
			"decimals":       decimals,
			"uiAmountString": amount,
		},
	}
}

func encodeTokenAccount(mint, owner solana.PublicKey, amount uint64) string {
	data := make([]byte, tokenAccountSize)
	copy(data[mintOffset:], mint[:])
	copy(data[ownerOffset:], owner[:])
	binary.LittleEndian.PutUint64(data[amountOffset:], amount)
	return base64.StdEncoding.EncodeToString(data)
}

func keyedAccount(address solana.PublicKey, data string) map[string]interface{} {
	return map[string]interface{}{
		"pubkey": address.String(),
		"account": map[string]interface{}{
			"data":       []string{data, "base64"},
			"executable": false,
			"lamports":   2039280,
			"owner":      solana.TokenProgramID.String(),
			"rentEpoch":  0,
		},
	}
}

func signatureEntry(sig solana.Signature, blockTime int64) map[string]interface{} {
	return map[string]interface{}{
		"signature":          sig.String(),
		"slot":               1,
		"blockTime":          blockTime,
		"err":                nil,
		"memo":               nil,
		"confirmationStatus": "finalized",
	}
}
