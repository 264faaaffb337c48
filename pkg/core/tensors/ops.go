// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"golang.org/x/exp/constraints"
)

// Integer is the constraint for the integer dtypes.
type Integer interface {
	dtypes.Supported
	constraints.Integer
}

// Add returns a + b elementwise, broadcasting the operands.
func Add[T dtypes.Number](a, b View[T]) (*Array[T], error) {
	return BroadcastCombine(a, b, func(x, y T) T { return x + y })
}

// Sub returns a - b elementwise, broadcasting the operands.
func Sub[T dtypes.Number](a, b View[T]) (*Array[T], error) {
	return BroadcastCombine(a, b, func(x, y T) T { return x - y })
}

// Mul returns a * b elementwise, broadcasting the operands.
func Mul[T dtypes.Number](a, b View[T]) (*Array[T], error) {
	return BroadcastCombine(a, b, func(x, y T) T { return x * y })
}

// Div returns a / b elementwise, broadcasting the operands.
//
// For integer dtypes, a zero in b panics, as Go's integer division does.
func Div[T dtypes.Number](a, b View[T]) (*Array[T], error) {
	return BroadcastCombine(a, b, func(x, y T) T { return x / y })
}

// Rem returns the remainder a % b elementwise, broadcasting the operands.
// It has the sign of a. A zero in b panics.
func Rem[T Integer](a, b View[T]) (*Array[T], error) {
	return BroadcastCombine(a, b, func(x, y T) T { return x % y })
}

// Equal returns a == b elementwise, broadcasting the operands.
func Equal[T dtypes.Supported](a, b View[T]) (*Array[bool], error) {
	return BroadcastCombine(a, b, func(x, y T) bool { return x == y })
}

// NotEqual returns a != b elementwise, broadcasting the operands.
func NotEqual[T dtypes.Supported](a, b View[T]) (*Array[bool], error) {
	return BroadcastCombine(a, b, func(x, y T) bool { return x != y })
}

// LessThan returns a < b elementwise, broadcasting the operands.
func LessThan[T dtypes.Number](a, b View[T]) (*Array[bool], error) {
	return BroadcastCombine(a, b, func(x, y T) bool { return x < y })
}

// LessOrEqual returns a <= b elementwise, broadcasting the operands.
func LessOrEqual[T dtypes.Number](a, b View[T]) (*Array[bool], error) {
	return BroadcastCombine(a, b, func(x, y T) bool { return x <= y })
}

// GreaterThan returns a > b elementwise, broadcasting the operands.
func GreaterThan[T dtypes.Number](a, b View[T]) (*Array[bool], error) {
	return BroadcastCombine(a, b, func(x, y T) bool { return x > y })
}

// GreaterOrEqual returns a >= b elementwise, broadcasting the operands.
func GreaterOrEqual[T dtypes.Number](a, b View[T]) (*Array[bool], error) {
	return BroadcastCombine(a, b, func(x, y T) bool { return x >= y })
}
