// Package classifier decides whether a holder address belongs to a liquidity
// pool / AMM rather than an individual wallet.
package classifier

import (
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Predicate reports whether address is a pool account for token.
type Predicate func(address, token string) bool

// None never classifies an address as a pool.
func None(string, string) bool { return false }

// Any combines predicates, matching when at least one matches.
func Any(preds ...Predicate) Predicate {
	return func(address, token string) bool {
		for _, p := range preds {
			if p != nil && p(address, token) {
				return true
			}
		}
		return false
	}
}

// KnownPools 按 token 家族维护的已知池子地址
type KnownPools struct {
	byFamily map[string]map[string]struct{}
	families map[string][]string // family -> token 地址后缀
	order    []string
}

const allFamilies = "*"

// NewKnownPools builds a lookup from family -> pool addresses and
// family -> token address suffixes. Addresses under "*" apply to every token.
func NewKnownPools(known map[string][]string, families map[string][]string) *KnownPools {
	k := &KnownPools{
		byFamily: make(map[string]map[string]struct{}, len(known)),
		families: make(map[string][]string, len(families)),
	}
	for family, addrs := range known {
		set := make(map[string]struct{}, len(addrs))
		for _, a := range addrs {
			if a = strings.TrimSpace(a); a != "" {
				set[a] = struct{}{}
			}
		}
		k.byFamily[strings.ToLower(family)] = set
	}
	for family, suffixes := range families {
		family = strings.ToLower(family)
		k.families[family] = suffixes
		k.order = append(k.order, family)
	}
	sort.Strings(k.order)
	return k
}

// Family returns the token family of token, or "" when none matches.
func (k *KnownPools) Family(token string) string {
	for _, family := range k.order {
		for _, s := range k.families[family] {
			if s != "" && strings.HasSuffix(token, s) {
				return family
			}
		}
	}
	return ""
}

func (k *KnownPools) Contains(address, token string) bool {
	if _, ok := k.byFamily[allFamilies][address]; ok {
		return true
	}
	family := k.Family(token)
	if family == "" {
		return false
	}
	_, ok := k.byFamily[family][address]
	return ok
}

func (k *KnownPools) Predicate() Predicate {
	return k.Contains
}

// OffCurve flags Solana addresses that are not valid ed25519 points. Such
// owners are program derived addresses and cannot belong to a wallet.
func OffCurve(address, _ string) bool {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false
	}
	return !pk.IsOnCurve()
}
