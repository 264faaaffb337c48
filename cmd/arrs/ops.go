package main

import (
	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/pkg/errors"
)

// opNames accepted by -op.
var opNames = []string{"add", "sub", "mul", "div", "rem", "eq", "ne", "lt", "le", "gt", "ge"}

// applyOp combines a and b with the named operation.
func applyOp[T dtypes.Supported](name string, a, b tensors.View[T]) (tensors.Tensor, error) {
	switch name {
	case "eq":
		return asTensor(tensors.Equal(a, b))
	case "ne":
		return asTensor(tensors.NotEqual(a, b))
	}
	dtype := dtypes.FromGenericsType[T]()
	if name == "rem" && !dtype.IsInt() {
		return nil, errors.Errorf("-op=rem requires integer arrays, got %s arrays", dtype)
	}
	switch av := any(a).(type) {
	case tensors.View[uint8]:
		return integerOp(name, av, any(b).(tensors.View[uint8]))
	case tensors.View[int8]:
		return integerOp(name, av, any(b).(tensors.View[int8]))
	case tensors.View[int16]:
		return integerOp(name, av, any(b).(tensors.View[int16]))
	case tensors.View[int32]:
		return integerOp(name, av, any(b).(tensors.View[int32]))
	case tensors.View[float32]:
		return numberOp(name, av, any(b).(tensors.View[float32]))
	case tensors.View[float64]:
		return numberOp(name, av, any(b).(tensors.View[float64]))
	}
	return nil, errors.Errorf("-op=%s is not supported for %s arrays", name, dtype)
}

func integerOp[T tensors.Integer](name string, a, b tensors.View[T]) (tensors.Tensor, error) {
	if name == "rem" {
		return asTensor(tensors.Rem(a, b))
	}
	return numberOp(name, a, b)
}

func numberOp[T dtypes.Number](name string, a, b tensors.View[T]) (tensors.Tensor, error) {
	switch name {
	case "add":
		return asTensor(tensors.Add(a, b))
	case "sub":
		return asTensor(tensors.Sub(a, b))
	case "mul":
		return asTensor(tensors.Mul(a, b))
	case "div":
		return asTensor(tensors.Div(a, b))
	case "lt":
		return asTensor(tensors.LessThan(a, b))
	case "le":
		return asTensor(tensors.LessOrEqual(a, b))
	case "gt":
		return asTensor(tensors.GreaterThan(a, b))
	case "ge":
		return asTensor(tensors.GreaterOrEqual(a, b))
	}
	return nil, errors.Errorf("-op=%s is not supported for %s arrays, valid values are %v",
		name, dtypes.FromGenericsType[T](), opNames)
}

// asTensor avoids returning a typed nil *tensors.Array inside a non-nil interface.
func asTensor[T dtypes.Supported](a *tensors.Array[T], err error) (tensors.Tensor, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
