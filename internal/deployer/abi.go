package deployer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EncodeConstructorArgs ABI-encodes the manifest's string arguments
// against the contract's constructor signature. The encoded blob is
// appended to the deployment bytecode.
func EncodeConstructorArgs(abiJSON json.RawMessage, args []string) ([]byte, error) {
	parsed, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	inputs := parsed.Constructor.Inputs
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(inputs), len(args))
	}

	values := make([]interface{}, len(args))
	for i, raw := range args {
		v, err := convertArg(inputs[i].Type, raw)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, inputs[i].Type, err)
		}
		values[i] = v
	}

	encoded, err := parsed.Pack("", values...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor arguments: %w", err)
	}
	return encoded, nil
}

// convertArg turns a manifest string into the Go value the ABI encoder
// expects for the given Solidity type.
func convertArg(t abi.Type, raw string) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil

	case abi.UintTy, abi.IntTy:
		base := 10
		if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
			base = 0
		}
		n, ok := new(big.Int).SetString(raw, base)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return sizedInt(t, n)

	case abi.BoolTy:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", raw)
		}
		return b, nil

	case abi.StringTy:
		return raw, nil

	case abi.BytesTy:
		data, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes %q: %v", raw, err)
		}
		return data, nil

	case abi.FixedBytesTy:
		if t.Size != 32 {
			return nil, fmt.Errorf("unsupported type bytes%d", t.Size)
		}
		data, err := hexutil.Decode(raw)
		if err != nil || len(data) != 32 {
			return nil, fmt.Errorf("invalid bytes32 %q", raw)
		}
		var out [32]byte
		copy(out[:], data)
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported constructor argument type %s", t)
	}
}

// sizedInt maps an integer onto the exact Go type the encoder demands
// for the Solidity width.
func sizedInt(t abi.Type, n *big.Int) (interface{}, error) {
	if t.Size > 64 {
		return n, nil
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s out of range for uint%d", n, t.Size)
		}
		u := n.Uint64()
		switch t.Size {
		case 8:
			return uint8(u), nil
		case 16:
			return uint16(u), nil
		case 32:
			return uint32(u), nil
		case 64:
			return u, nil
		}
		return nil, fmt.Errorf("unsupported width uint%d", t.Size)
	}

	if !n.IsInt64() {
		return nil, fmt.Errorf("value %s out of range for int%d", n, t.Size)
	}
	v := n.Int64()
	// int64 fits any narrower width numerically; reject before the
	// conversion below would wrap.
	if t.Size < 64 {
		limit := int64(1) << (t.Size - 1)
		if v < -limit || v >= limit {
			return nil, fmt.Errorf("value %s out of range for int%d", n, t.Size)
		}
	}
	switch t.Size {
	case 8:
		return int8(v), nil
	case 16:
		return int16(v), nil
	case 32:
		return int32(v), nil
	case 64:
		return v, nil
	}
	return nil, fmt.Errorf("unsupported width int%d", t.Size)
}
