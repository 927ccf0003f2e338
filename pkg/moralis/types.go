package moralis

import "errors"

var ErrNotFound = errors.New("token not found")

type TokenHoldersResp struct {
	Cursor      string      `json:"cursor"`
	TotalSupply string      `json:"totalSupply"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	Result      []TokenHold `json:"result"`
}

type TokenHold struct {
	Balance                         string  `json:"balance"`                             // 原始余额字符串
	BalanceFormatted                string  `json:"balance_formatted"`                   // 格式化后的余额字符串（带精度）
	IsContract                      bool    `json:"is_contract"`                         // 是否为合约地址
	OwnerAddress                    string  `json:"owner_address"`                       // 持有者钱包地址
	OwnerAddressLabel               *string `json:"owner_address_label"`                 // 持有者标签（可为null）
	Entity                          *string `json:"entity"`                              // 关联实体（可为null）
	USDValue                        string  `json:"usd_value"`                           // 美元估值字符串（高精度）
	PercentageRelativeToTotalSupply float64 `json:"percentage_relative_to_total_supply"` // 占总供应量百分比
}

// SolanaHoldersResp represents the response structure for Solana token holders
type SolanaHoldersResp struct {
	Cursor      string              `json:"cursor"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"pageSize"`
	TotalSupply string              `json:"totalSupply"`
	Result      []SolanaTokenHolder `json:"result"`
}

// SolanaTokenHolder represents a single token holder in Solana response
type SolanaTokenHolder struct {
	Balance                         string  `json:"balance"`
	BalanceFormatted                string  `json:"balanceFormatted"`
	IsContract                      bool    `json:"isContract"`
	OwnerAddress                    string  `json:"ownerAddress"`
	USDValue                        string  `json:"usdValue"`
	PercentageRelativeToTotalSupply float64 `json:"percentageRelativeToTotalSupply"`
}

// SolanaTokenMetadata 数值字段均以字符串返回
type SolanaTokenMetadata struct {
	Mint                 string `json:"mint"`
	Standard             string `json:"standard"`
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	Logo                 string `json:"logo"`
	Decimals             string `json:"decimals"`
	TotalSupply          string `json:"totalSupply"`
	TotalSupplyFormatted string `json:"totalSupplyFormatted"`
}

type Erc20Metadata struct {
	Address              string `json:"address"`
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	Decimals             string `json:"decimals"`
	Logo                 string `json:"logo"`
	TotalSupply          string `json:"total_supply"`
	TotalSupplyFormatted string `json:"total_supply_formatted"`
}
