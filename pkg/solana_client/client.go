package solana_client

import (
	"github.com/gagliardetto/solana-go/rpc"
)

// Init solana client
func Init(rawUrl string) *rpc.Client {
	client := rpc.New(rawUrl)
	return client
}

// InitWithHeaders is used for providers that authenticate through headers.
func InitWithHeaders(rawUrl string, headers map[string]string) *rpc.Client {
	if len(headers) == 0 {
		return Init(rawUrl)
	}
	return rpc.NewWithHeaders(rawUrl, headers)
}
