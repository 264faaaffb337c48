// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dtypes

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDType_Kinds(t *testing.T) {
	for _, dtype := range []DType{Uint8, Int8, Int16, Int32} {
		require.Truef(t, dtype.IsInt(), "%s.IsInt()", dtype)
		require.Falsef(t, dtype.IsFloat(), "%s.IsFloat()", dtype)
	}
	for _, dtype := range []DType{Float32, Float64} {
		require.Truef(t, dtype.IsFloat(), "%s.IsFloat()", dtype)
		require.Falsef(t, dtype.IsInt(), "%s.IsInt()", dtype)
	}
	require.False(t, Bool.IsInt())
	require.False(t, Bool.IsFloat())
	require.True(t, Uint8.IsUnsigned())
	require.False(t, Int8.IsUnsigned())
	require.False(t, Float32.IsUnsigned())
}

func TestMapOfNames(t *testing.T) {
	if MapOfNames["Float32"] != Float32 {
		t.Fatalf("expected MapOfNames[\"Float32\"] to be Float32, got %v", MapOfNames["Float32"])
	}
	if MapOfNames["float32"] != Float32 {
		t.Fatalf("expected MapOfNames[\"float32\"] to be Float32, got %v", MapOfNames["float32"])
	}
	if MapOfNames["F32"] != Float32 {
		t.Fatalf("expected MapOfNames[\"F32\"] to be Float32, got %v", MapOfNames["F32"])
	}
	if MapOfNames["f32"] != Float32 {
		t.Fatalf("expected MapOfNames[\"f32\"] to be Float32, got %v", MapOfNames["f32"])
	}
	require.Equal(t, Bool, FromName("pred"))
	require.Equal(t, Int16, FromName("I16"))
	require.Equal(t, InvalidDType, FromName("complex64"))
}

func TestIdxIDs(t *testing.T) {
	want := map[DType]uint8{
		Bool:    0x07,
		Uint8:   0x08,
		Int8:    0x09,
		Int16:   0x0B,
		Int32:   0x0C,
		Float32: 0x0D,
		Float64: 0x0E,
	}
	for dtype, id := range want {
		require.Equalf(t, id, dtype.IdxID(), "IdxID of %s", dtype)
		require.Equalf(t, dtype, FromIdxID(id), "FromIdxID(0x%02X)", id)
	}
	require.Equal(t, uint8(0), InvalidDType.IdxID())
	require.Equal(t, uint8(0), DType(100).IdxID())
	require.Equal(t, InvalidDType, FromIdxID(0x0A))
	require.Equal(t, InvalidDType, FromIdxID(0))
}

func TestSizes(t *testing.T) {
	require.Equal(t, 1, Bool.Size())
	require.Equal(t, 1, Uint8.Size())
	require.Equal(t, 1, Int8.Size())
	require.Equal(t, 2, Int16.Size())
	require.Equal(t, 4, Int32.Size())
	require.Equal(t, 4, Float32.Size())
	require.Equal(t, 8, Float64.Size())
	require.Equal(t, uintptr(8), Float64.Memory())
	require.Panics(t, func() { _ = InvalidDType.Size() })
}

func TestFromGenericsType(t *testing.T) {
	require.Equal(t, Bool, FromGenericsType[bool]())
	require.Equal(t, Uint8, FromGenericsType[uint8]())
	require.Equal(t, Int8, FromGenericsType[int8]())
	require.Equal(t, Int16, FromGenericsType[int16]())
	require.Equal(t, Int32, FromGenericsType[int32]())
	require.Equal(t, Float32, FromGenericsType[float32]())
	require.Equal(t, Float64, FromGenericsType[float64]())

	require.Equal(t, reflect.TypeOf(int16(0)), Int16.GoType())
}

func TestTextMarshaling(t *testing.T) {
	var dtype DType
	require.NoError(t, dtype.UnmarshalText([]byte("float32")))
	require.Equal(t, Float32, dtype)
	require.NoError(t, dtype.UnmarshalText([]byte("Int16")))
	require.Equal(t, Int16, dtype)
	require.Error(t, dtype.UnmarshalText([]byte("complex128")))

	text, err := Uint8.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "Uint8", string(text))
	require.Equal(t, "DType(42)", DType(42).String())
	require.True(t, Bool.IsSupported())
	require.False(t, InvalidDType.IsSupported())
}
