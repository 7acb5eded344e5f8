package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// Minimum hex length of a transaction input carrying a method selector ("0x" + 4 bytes)
	METHOD_SELECTOR_HEX_LENGTH = 10
)
