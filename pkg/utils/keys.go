package utils

import "fmt"

func FirstTxCacheKey(network, tokenAccount string) string {
	return fmt.Sprintf("holders:first_tx:%s:%s", network, tokenAccount)
}
