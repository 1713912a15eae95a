package assetrow

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/acksell/assetsync/asset"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// type annotations stored in _types
const (
	typeInt64    = "Int64"
	typeDouble   = "Double"
	typeDateTime = "DateTime"
	typeGUID     = "Guid"
)

// Encode renders a as an item. The ETag attribute is left to the caller.
func Encode(a asset.Asset) (Item, error) {
	item := Item{
		FieldAssetID:   &types.AttributeValueMemberS{Value: a.AssetID.String()},
		FieldAssetName: &types.AttributeValueMemberS{Value: a.AssetName},
		FieldEventTime: &types.AttributeValueMemberS{Value: a.EventTime.Format(time.RFC3339Nano)},
	}
	accountID, err := attributevalue.Marshal(a.AccountID)
	if err != nil {
		return nil, fmt.Errorf("marshal account id: %w", err)
	}
	item[FieldAccountID] = accountID
	maps.Copy(item, PrimaryKey(a.AccountID, a.AssetID).DDB())

	annotations := make(map[string]types.AttributeValue)
	for name, v := range a.Properties {
		av, typ, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode property %q: %w", name, err)
		}
		item[PropertyPrefix+name] = av
		if typ != "" {
			annotations[name] = &types.AttributeValueMemberS{Value: typ}
		}
	}
	if len(annotations) > 0 {
		item[FieldTypes] = &types.AttributeValueMemberM{Value: annotations}
	}
	return item, nil
}

func encodeValue(v asset.Value) (types.AttributeValue, string, error) {
	switch v.Kind() {
	case asset.KindString:
		s, _ := v.Str()
		return &types.AttributeValueMemberS{Value: s}, "", nil
	case asset.KindBool:
		b, _ := v.Bool()
		return &types.AttributeValueMemberBOOL{Value: b}, "", nil
	case asset.KindInt:
		n, _ := v.Int()
		av, err := attributevalue.Marshal(n)
		return av, typeInt64, err
	case asset.KindFloat:
		f, _ := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, "", fmt.Errorf("%v cannot be stored as a number", f)
		}
		av, err := attributevalue.Marshal(f)
		return av, typeDouble, err
	case asset.KindTime:
		t, _ := v.Time()
		return &types.AttributeValueMemberS{Value: t.Format(time.RFC3339Nano)}, typeDateTime, nil
	case asset.KindUUID:
		u, _ := v.UUID()
		return &types.AttributeValueMemberS{Value: u.String()}, typeGUID, nil
	default:
		return nil, "", fmt.Errorf("invalid value")
	}
}

// Decode rebuilds an asset from an item. Missing or mistyped fixed fields
// and undecodable properties fail with asset.ErrMalformedRow. Attributes
// that are neither fixed fields nor properties are ignored.
func Decode(item Item) (asset.Asset, error) {
	var a asset.Asset

	id, err := stringField(item, FieldAssetID)
	if err != nil {
		return a, err
	}
	a.AssetID, err = uuid.Parse(id)
	if err != nil {
		return a, malformed(FieldAssetID, err)
	}

	a.AssetName, err = stringField(item, FieldAssetName)
	if err != nil {
		return a, err
	}

	av, ok := item[FieldAccountID]
	if !ok {
		return a, malformed(FieldAccountID, errMissing)
	}
	if _, isN := av.(*types.AttributeValueMemberN); !isN {
		return a, malformed(FieldAccountID, fmt.Errorf("expected N, got %T", av))
	}
	if err := attributevalue.Unmarshal(av, &a.AccountID); err != nil {
		return a, malformed(FieldAccountID, err)
	}

	ts, err := stringField(item, FieldEventTime)
	if err != nil {
		return a, err
	}
	a.EventTime, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return a, malformed(FieldEventTime, err)
	}

	annotations, err := typeAnnotations(item)
	if err != nil {
		return a, err
	}

	a.Properties = make(asset.Properties)
	for field, av := range item {
		name, ok := strings.CutPrefix(field, PropertyPrefix)
		if !ok {
			continue
		}
		v, err := decodeValue(av, annotations[name])
		if err != nil {
			return a, malformed(field, err)
		}
		a.Properties[name] = v
	}
	return a, nil
}

// ETag returns the concurrency token stored in item, if any.
func ETag(item Item) asset.ETag {
	if s, ok := item[FieldETag].(*types.AttributeValueMemberS); ok {
		return asset.ETag(s.Value)
	}
	return ""
}

func decodeValue(av types.AttributeValue, typ string) (asset.Value, error) {
	switch typ {
	case "":
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			return asset.String(v.Value), nil
		case *types.AttributeValueMemberBOOL:
			return asset.Bool(v.Value), nil
		case *types.AttributeValueMemberN:
			if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
				return asset.Int(n), nil
			}
			f, err := strconv.ParseFloat(v.Value, 64)
			if err != nil {
				return asset.Value{}, err
			}
			return asset.Float(f), nil
		default:
			return asset.Value{}, fmt.Errorf("unsupported attribute type %T", av)
		}
	case typeInt64:
		var n int64
		if err := unmarshalNumber(av, &n); err != nil {
			return asset.Value{}, err
		}
		return asset.Int(n), nil
	case typeDouble:
		var f float64
		if err := unmarshalNumber(av, &f); err != nil {
			return asset.Value{}, err
		}
		return asset.Float(f), nil
	case typeDateTime:
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return asset.Value{}, fmt.Errorf("%s: expected S, got %T", typ, av)
		}
		t, err := time.Parse(time.RFC3339Nano, s.Value)
		if err != nil {
			return asset.Value{}, err
		}
		return asset.Time(t), nil
	case typeGUID:
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return asset.Value{}, fmt.Errorf("%s: expected S, got %T", typ, av)
		}
		u, err := uuid.Parse(s.Value)
		if err != nil {
			return asset.Value{}, err
		}
		return asset.UUID(u), nil
	default:
		return asset.Value{}, fmt.Errorf("unknown type annotation %q", typ)
	}
}

func unmarshalNumber(av types.AttributeValue, out any) error {
	if _, ok := av.(*types.AttributeValueMemberN); !ok {
		return fmt.Errorf("expected N, got %T", av)
	}
	return attributevalue.Unmarshal(av, out)
}

func typeAnnotations(item Item) (map[string]string, error) {
	av, ok := item[FieldTypes]
	if !ok {
		return nil, nil
	}
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return nil, malformed(FieldTypes, fmt.Errorf("expected M, got %T", av))
	}
	out := make(map[string]string, len(m.Value))
	for name, v := range m.Value {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, malformed(FieldTypes, fmt.Errorf("annotation for %q: expected S, got %T", name, v))
		}
		out[name] = s.Value
	}
	return out, nil
}

var errMissing = errors.New("missing")

func stringField(item Item, field string) (string, error) {
	av, ok := item[field]
	if !ok {
		return "", malformed(field, errMissing)
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", malformed(field, fmt.Errorf("expected S, got %T", av))
	}
	return s.Value, nil
}

func malformed(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", asset.ErrMalformedRow, field, err)
}
