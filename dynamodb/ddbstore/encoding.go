package ddbstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"strconv"

	"github.com/acksell/assetsync/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Badger key layout:
//
//	m 0x00 table 0x00 <name>                          table definitions
//	t 0x00 <name> 0x00 <partition key> 0x00 <sort key> items
//
// Key values are escaped so that 0x00 only ever appears as a separator, and
// numbers are encoded so that byte order matches numeric order.

const keySeparator byte = 0x00

const (
	keyTypeString byte = 'S'
	keyTypeNumber byte = 'N'
	keyTypeBinary byte = 'B'
)

func metaTablePrefix() []byte {
	return []byte("m\x00table\x00")
}

func metaTableKey(name string) []byte {
	return append(metaTablePrefix(), name...)
}

func tablePrefix(name string) []byte {
	var buf bytes.Buffer
	buf.WriteString("t")
	buf.WriteByte(keySeparator)
	buf.Write(escapeBytes([]byte(name)))
	buf.WriteByte(keySeparator)
	return buf.Bytes()
}

func encodeItemKey(def table.TableDefinition, pk table.PrimaryKey) ([]byte, error) {
	buf := bytes.NewBuffer(tablePrefix(def.Name))

	part, err := encodeKeyValue(pk.Values.PartitionKey, pk.Definition.PartitionKey.Kind)
	if err != nil {
		return nil, fmt.Errorf("encode partition key: %w", err)
	}
	buf.Write(part)
	buf.WriteByte(keySeparator)

	if pk.Definition.SortKey.Name != "" {
		sort, err := encodeKeyValue(pk.Values.SortKey, pk.Definition.SortKey.Kind)
		if err != nil {
			return nil, fmt.Errorf("encode sort key: %w", err)
		}
		buf.Write(sort)
	}
	return buf.Bytes(), nil
}

func encodeKeyValue(value any, kind table.KeyKind) ([]byte, error) {
	switch kind {
	case table.KeyKindS:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for S key, got %T", value)
		}
		return append([]byte{keyTypeString}, escapeBytes([]byte(s))...), nil
	case table.KeyKindN:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected number string for N key, got %T", value)
		}
		n, err := encodeNumber(s)
		if err != nil {
			return nil, err
		}
		return append([]byte{keyTypeNumber}, n...), nil
	case table.KeyKindB:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected bytes for B key, got %T", value)
		}
		return append([]byte{keyTypeBinary}, escapeBytes(b)...), nil
	default:
		return nil, fmt.Errorf("unsupported key kind: %s", kind)
	}
}

// encodeNumber maps a float64 onto 8 big-endian bytes whose unsigned order
// matches numeric order: positive numbers get the sign bit flipped and
// negative numbers are fully inverted.
func encodeNumber(numStr string) ([]byte, error) {
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", numStr, err)
	}
	bits := math.Float64bits(f)
	if f >= 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf, nil
}

// escapeBytes replaces 0x00 with 0x01 0x01 and 0x01 with 0x01 0x02.
func escapeBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case 0x00:
			out = append(out, 0x01, 0x01)
		case 0x01:
			out = append(out, 0x01, 0x02)
		default:
			out = append(out, c)
		}
	}
	return out
}

// storedAttr is the gob form of an attribute value.
type storedAttr struct {
	Type string
	S    string
	B    []byte
	Bool bool
	Set  []string
	BSet [][]byte
	M    map[string]storedAttr
	L    []storedAttr
}

func serializeItem(item map[string]types.AttributeValue) ([]byte, error) {
	stored := make(map[string]storedAttr, len(item))
	for k, v := range item {
		sa, err := toStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		stored[k] = sa
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

func deserializeItem(data []byte) (map[string]types.AttributeValue, error) {
	var stored map[string]storedAttr
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	item := make(map[string]types.AttributeValue, len(stored))
	for k, v := range stored {
		av, err := fromStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedAttr, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedAttr{Type: "S", S: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedAttr{Type: "N", S: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedAttr{Type: "B", B: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedAttr{Type: "BOOL", Bool: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedAttr{Type: "NULL", Bool: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedAttr{Type: "SS", Set: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedAttr{Type: "NS", Set: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedAttr{Type: "BS", BSet: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]storedAttr, len(v.Value))
		for k, el := range v.Value {
			sa, err := toStored(el)
			if err != nil {
				return storedAttr{}, err
			}
			m[k] = sa
		}
		return storedAttr{Type: "M", M: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedAttr, len(v.Value))
		for i, el := range v.Value {
			sa, err := toStored(el)
			if err != nil {
				return storedAttr{}, err
			}
			l[i] = sa
		}
		return storedAttr{Type: "L", L: l}, nil
	default:
		return storedAttr{}, fmt.Errorf("unsupported attribute value type %T", av)
	}
}

func fromStored(sa storedAttr) (types.AttributeValue, error) {
	switch sa.Type {
	case "S":
		return &types.AttributeValueMemberS{Value: sa.S}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: sa.S}, nil
	case "B":
		return &types.AttributeValueMemberB{Value: sa.B}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: sa.Bool}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: sa.Bool}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: sa.Set}, nil
	case "NS":
		return &types.AttributeValueMemberNS{Value: sa.Set}, nil
	case "BS":
		return &types.AttributeValueMemberBS{Value: sa.BSet}, nil
	case "M":
		m := make(map[string]types.AttributeValue, len(sa.M))
		for k, el := range sa.M {
			av, err := fromStored(el)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		l := make([]types.AttributeValue, len(sa.L))
		for i, el := range sa.L {
			av, err := fromStored(el)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unknown stored attribute type %q", sa.Type)
	}
}
