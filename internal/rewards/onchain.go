package rewards

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

const distributorABIJSON = `[{"inputs":[{"internalType":"address","name":"user","type":"address"},{"internalType":"address","name":"token","type":"address"}],"name":"claimed","outputs":[{"internalType":"uint208","name":"amount","type":"uint208"},{"internalType":"uint48","name":"timestamp","type":"uint48"},{"internalType":"bytes32","name":"merkleRoot","type":"bytes32"}],"stateMutability":"view","type":"function"}]`

// sourceHeader identifies this application to the RPC provider.
const sourceHeader = "musdwatch"

var distributorABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(distributorABIJSON))
	if err != nil {
		panic("failed to parse distributor ABI: " + err.Error())
	}
	distributorABI = parsed
}

// OnChainOptions parameterise the distributor contract reader.
type OnChainOptions struct {
	RPCURL             string
	DistributorAddress string
	Timeout            time.Duration
}

// OnChainReader reads the authoritative claimed amount from the reward
// distributor contract on the claim chain.
type OnChainReader struct {
	opts      OnChainOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewOnChainReader builds a distributor reader.
func NewOnChainReader(opts OnChainOptions, logger zerolog.Logger) *OnChainReader {
	return &OnChainReader{opts: opts, logger: logger.With().Str("component", "distributor_reader").Logger()}
}

// Claimed returns the amount already paid out to user for token, or nil
// when the value could not be retrieved. It never returns an error: nil
// signals "unavailable, fall back to the API's claimed field".
func (r *OnChainReader) Claimed(ctx context.Context, user, token common.Address) *big.Int {
	if r.opts.RPCURL == "" || r.opts.DistributorAddress == "" {
		return nil
	}

	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := r.getClient(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("distributor rpc dial failed")
		return nil
	}

	payload, err := distributorABI.Pack("claimed", user, token)
	if err != nil {
		r.logger.Debug().Err(err).Msg("pack claimed call failed")
		return nil
	}

	distributor := common.HexToAddress(r.opts.DistributorAddress)
	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &distributor, Data: payload}, nil)
	if err != nil {
		r.logger.Debug().Err(err).Msg("claimed call failed")
		return nil
	}
	if len(res) == 0 {
		return nil
	}

	outputs, err := distributorABI.Unpack("claimed", res)
	if err != nil {
		r.logger.Debug().Err(err).Msg("decode claimed response failed")
		return nil
	}
	if len(outputs) != 3 {
		return nil
	}

	amount, ok := outputs[0].(*big.Int)
	if !ok {
		return nil
	}
	return amount
}

func (r *OnChainReader) getClient(ctx context.Context) (*ethclient.Client, error) {
	r.clientMux.Lock()
	defer r.clientMux.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	rpcClient, err := rpc.DialOptions(ctx, r.opts.RPCURL, rpc.WithHeader("Infura-Source", sourceHeader))
	if err != nil {
		return nil, err
	}
	r.client = ethclient.NewClient(rpcClient)
	return r.client, nil
}
