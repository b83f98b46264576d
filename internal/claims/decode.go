package claims

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const claimABIJSON = `[{"inputs":[{"internalType":"address[]","name":"users","type":"address[]"},{"internalType":"address[]","name":"tokens","type":"address[]"},{"internalType":"uint256[]","name":"amounts","type":"uint256[]"},{"internalType":"bytes32[][]","name":"proofs","type":"bytes32[][]"}],"name":"claim","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

var claimMethod abi.Method

func init() {
	parsed, err := abi.JSON(strings.NewReader(claimABIJSON))
	if err != nil {
		panic("failed to parse claim ABI: " + err.Error())
	}
	claimMethod = parsed.Methods["claim"]
}

// Call is the decoded head of a distributor claim invocation: element 0 of
// each positional array.
type Call struct {
	User            common.Address
	Token           common.Address
	CumulativeTotal *big.Int
}

// DecodeCalldata recovers the acting user, token and cumulative reward
// total from a claim transaction's call bytes. Any malformed input yields
// ok=false rather than an error: a claim we cannot decode simply shows no
// amount.
func DecodeCalldata(data string) (Call, bool) {
	raw := common.FromHex(data)
	if len(raw) < 4 || !bytes.Equal(raw[:4], claimMethod.ID) {
		return Call{}, false
	}

	values, err := claimMethod.Inputs.Unpack(raw[4:])
	if err != nil || len(values) != 4 {
		return Call{}, false
	}

	users, ok := values[0].([]common.Address)
	if !ok || len(users) == 0 {
		return Call{}, false
	}
	tokens, ok := values[1].([]common.Address)
	if !ok || len(tokens) == 0 {
		return Call{}, false
	}
	amounts, ok := values[2].([]*big.Int)
	if !ok || len(amounts) == 0 || amounts[0] == nil {
		return Call{}, false
	}

	return Call{User: users[0], Token: tokens[0], CumulativeTotal: amounts[0]}, true
}

// EncodeCalldata packs a single-entry claim invocation. Used by tests and
// the reward CLI to round-trip claim payloads.
func EncodeCalldata(user, token common.Address, amount *big.Int, proof [][32]byte) (string, error) {
	packed, err := claimMethod.Inputs.Pack(
		[]common.Address{user},
		[]common.Address{token},
		[]*big.Int{amount},
		[][][32]byte{proof},
	)
	if err != nil {
		return "", err
	}
	return "0x" + common.Bytes2Hex(append(append([]byte{}, claimMethod.ID...), packed...)), nil
}
