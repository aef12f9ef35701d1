// Package scalars holds the custom GraphQL scalars shared by every subgraph.
package scalars

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"
)

// ValidationError reports a wire value that cannot become a decimal.
type ValidationError struct {
	Value  interface{}
	Type   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid BigDecimal value %v of type %s: %s", e.Value, e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid BigDecimal value of type %s", e.Type)
}

// ParseDecimal converts a wire value into a decimal. Strings are parsed with
// full precision; numbers go through a float64 and may lose precision.
func ParseDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, &ValidationError{Value: v, Type: "string", Reason: "not a decimal number"}
		}
		return d, nil
	case float64:
		return fromFloat(v, "float64")
	case float32:
		return fromFloat(float64(v), "float32")
	case int:
		return fromFloat(float64(v), "int")
	case int32:
		return fromFloat(float64(v), "int32")
	case int64:
		return fromFloat(float64(v), "int64")
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return decimal.Zero, &ValidationError{Value: v, Type: "number", Reason: err.Error()}
		}
		return fromFloat(f, "number")
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, &ValidationError{Type: "nil"}
		}
		return *v, nil
	default:
		return decimal.Zero, &ValidationError{Value: value, Type: fmt.Sprintf("%T", value)}
	}
}

func fromFloat(f float64, typ string) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &ValidationError{Value: f, Type: typ, Reason: "not a finite number"}
	}
	return decimal.NewFromFloat(f), nil
}

// SerializeDecimal renders d in canonical fixed-point form, never with an
// exponent, so the full value survives the wire.
func SerializeDecimal(d decimal.Decimal) string {
	return d.String()
}

// BigDecimal is the GraphQL scalar carrying arbitrary precision decimals as
// strings. It is declared once so every subgraph shares the same type.
var BigDecimal = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "BigDecimal",
	Description: "An arbitrary precision decimal, serialized as a string.",
	Serialize: func(value interface{}) interface{} {
		d, err := ParseDecimal(value)
		if err != nil {
			return nil
		}
		return SerializeDecimal(d)
	},
	ParseValue: func(value interface{}) interface{} {
		d, err := ParseDecimal(value)
		if err != nil {
			return nil
		}
		return d
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			d, err := ParseDecimal(v.Value)
			if err != nil {
				return nil
			}
			return d
		case *ast.FloatValue:
			return parseNumericLiteral(v.Value)
		case *ast.IntValue:
			return parseNumericLiteral(v.Value)
		default:
			return nil
		}
	},
})

func parseNumericLiteral(raw string) interface{} {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	d, err := ParseDecimal(f)
	if err != nil {
		return nil
	}
	return d
}
