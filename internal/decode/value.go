package decode

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FormatValue renders a decoded ABI value as a plain string: integers in
// decimal, addresses checksummed, bytes as 0x-hex, arrays as [a,b] and
// tuples as (a,b).
func FormatValue(t abi.Type, value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case *big.Int:
		if v == nil {
			return "0"
		}
		return v.String()
	case common.Address:
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return hexutil.Encode(v)
	case uint8, uint16, uint32, uint64, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	}

	rv := reflect.ValueOf(value)
	switch t.T {
	case abi.FixedBytesTy:
		if rv.Kind() == reflect.Array {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return hexutil.Encode(b)
		}
	case abi.SliceTy, abi.ArrayTy:
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			parts := make([]string, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				parts[i] = FormatValue(*t.Elem, rv.Index(i).Interface())
			}
			return "[" + strings.Join(parts, ",") + "]"
		}
	case abi.TupleTy:
		if rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Struct && rv.NumField() == len(t.TupleElems) {
			parts := make([]string, rv.NumField())
			for i := 0; i < rv.NumField(); i++ {
				parts[i] = FormatValue(*t.TupleElems[i], rv.Field(i).Interface())
			}
			return "(" + strings.Join(parts, ",") + ")"
		}
	}
	return fmt.Sprintf("%v", value)
}

// AsBigInt returns integer values as *big.Int.
func AsBigInt(value interface{}) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	default:
		return nil, false
	}
}

// AsAddress returns address values.
func AsAddress(value interface{}) (common.Address, bool) {
	switch v := value.(type) {
	case common.Address:
		return v, true
	case *common.Address:
		if v == nil {
			return common.Address{}, false
		}
		return *v, true
	default:
		return common.Address{}, false
	}
}
