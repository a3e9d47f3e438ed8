package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityAuction/internal/chain"
)

// PoolMeta holds the immutable fields of an auctioned pool.
type PoolMeta struct {
	Token0      common.Address
	Token1      common.Address
	Fee         uint32
	TickSpacing int32
}

// TokenMeta holds the ERC-20 fields replay reports alongside a sale.
type TokenMeta struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// FetchPoolMeta loads immutable pool metadata from chain.
func FetchPoolMeta(ctx context.Context, chainClient *chain.Client, pool common.Address) (PoolMeta, error) {
	if chainClient == nil {
		return PoolMeta{}, fmt.Errorf("chain client is nil")
	}

	poolABI, err := PoolABI()
	if err != nil {
		return PoolMeta{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callMethod(ctx, chainClient, pool, poolABI, "token0", nil)
	if err != nil {
		return PoolMeta{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return PoolMeta{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, chainClient, pool, poolABI, "token1", nil)
	if err != nil {
		return PoolMeta{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return PoolMeta{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, chainClient, pool, poolABI, "fee", nil)
	if err != nil {
		return PoolMeta{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return PoolMeta{}, fmt.Errorf("fee: %w", err)
	}

	values, err = callMethod(ctx, chainClient, pool, poolABI, "tickSpacing", nil)
	if err != nil {
		return PoolMeta{}, err
	}
	tickSpacingInt, err := asBigInt(values[0])
	if err != nil {
		return PoolMeta{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return PoolMeta{}, fmt.Errorf("tick spacing: %w", err)
	}

	return PoolMeta{
		Token0:      token0,
		Token1:      token1,
		Fee:         uint32(feeInt.Uint64()),
		TickSpacing: tickSpacing,
	}, nil
}

// FetchSlot0 reads the pool price and tick, optionally at a block height.
func FetchSlot0(ctx context.Context, chainClient *chain.Client, pool common.Address, blockNumber uint64) (*big.Int, int32, error) {
	if chainClient == nil {
		return nil, 0, fmt.Errorf("chain client is nil")
	}

	poolABI, err := PoolABI()
	if err != nil {
		return nil, 0, fmt.Errorf("parse pool abi: %w", err)
	}

	var blockPtr *big.Int
	if blockNumber > 0 {
		blockPtr = new(big.Int).SetUint64(blockNumber)
	}

	values, err := callMethod(ctx, chainClient, pool, poolABI, "slot0", blockPtr)
	if err != nil {
		return nil, 0, err
	}
	if len(values) < 2 {
		return nil, 0, fmt.Errorf("unexpected slot0 values: %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return nil, 0, fmt.Errorf("slot0 price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return nil, 0, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return nil, 0, fmt.Errorf("slot0 tick: %w", err)
	}
	return sqrtPrice, tick, nil
}

// FetchTokenMeta loads token decimals and symbol via ERC20 calls. Decimals
// are required, symbol is best effort.
func FetchTokenMeta(ctx context.Context, chainClient *chain.Client, token common.Address, logger *zap.Logger) (TokenMeta, error) {
	meta := TokenMeta{Address: token}
	if chainClient == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	erc20, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := callMethod(ctx, chainClient, token, erc20, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := callMethod(ctx, chainClient, token, erc20, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func callMethod(ctx context.Context, chainClient *chain.Client, to common.Address, parsed abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := chainClient.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
