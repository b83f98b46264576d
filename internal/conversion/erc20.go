package conversion

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20TransferABIJSON = `[{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABIJSON))
	if err != nil {
		panic("failed to parse ERC-20 transfer ABI: " + err.Error())
	}
	erc20ABI = parsed
}

// TransferCalldata packs an ERC-20 transfer(to, value) invocation as hex
// call bytes.
func TransferCalldata(to common.Address, amount *big.Int) (string, error) {
	packed, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return "", err
	}
	return "0x" + common.Bytes2Hex(packed), nil
}
