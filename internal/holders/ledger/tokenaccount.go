package ledger

import (
	"encoding/binary"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// SPL token account layout: mint(32) owner(32) amount(u64 LE) ...
const (
	tokenAccountSize = 165
	mintOffset       = 0
	ownerOffset      = 32
	amountOffset     = 64
)

var errShortAccount = errors.New("token account data too short")

type tokenAccount struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
}

func decodeTokenAccount(address solana.PublicKey, data []byte) (tokenAccount, error) {
	if len(data) < amountOffset+8 {
		return tokenAccount{}, errShortAccount
	}
	acc := tokenAccount{
		Address: address,
		Amount:  binary.LittleEndian.Uint64(data[amountOffset : amountOffset+8]),
	}
	copy(acc.Mint[:], data[mintOffset:mintOffset+32])
	copy(acc.Owner[:], data[ownerOffset:ownerOffset+32])
	return acc, nil
}
