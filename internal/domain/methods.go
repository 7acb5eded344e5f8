package domain

import "strings"

// knownMethods maps 4-byte selectors of common contract calls to their names.
// The decoded name is informational only.
var knownMethods = map[string]string{
	"0xa9059cbb": "transfer",
	"0x23b872dd": "transferFrom",
	"0x095ea7b3": "approve",
	"0x42842e0e": "safeTransferFrom",
	"0xb88d4fde": "safeTransferFrom",
	"0xf242432a": "safeTransferFrom",
	"0x2eb2c2d6": "safeBatchTransferFrom",
	"0xa22cb465": "setApprovalForAll",
	"0x38ed1739": "swapExactTokensForTokens",
	"0x7ff36ab5": "swapExactETHForTokens",
	"0x18cbafe5": "swapExactTokensForETH",
	"0x8803dbee": "swapTokensForExactTokens",
	"0xe8e33700": "addLiquidity",
	"0xf305d719": "addLiquidityETH",
	"0xbaa2abde": "removeLiquidity",
	"0x02751cec": "removeLiquidityETH",
	"0xac9650d8": "multicall",
	"0x5ae401dc": "multicall",
	"0x3593564c": "execute",
	"0xd0e30db0": "deposit",
	"0x2e1a7d4d": "withdraw",
	"0x40c10f19": "mint",
	"0x1249c58b": "mint",
	"0x42966c68": "burn",
	"0xa0712d68": "mint",
}

// DecodeMethod returns a display name for the call described by a transaction input.
// Inputs too short to carry a selector decode to "transfer" when value is moved and to
// an empty string otherwise. Unknown selectors are returned as-is.
func DecodeMethod(input string, hasValue bool) string {
	input = strings.ToLower(input)
	if len(input) < METHOD_SELECTOR_HEX_LENGTH {
		if hasValue {
			return "transfer"
		}
		return ""
	}

	selector := input[:METHOD_SELECTOR_HEX_LENGTH]
	if name, ok := knownMethods[selector]; ok {
		return name
	}
	return selector
}
