package dtypes

// DType is an enum represents the data type of the elements of an array.
//
// It is a closed set: only the element kinds that the IDX file format can describe are supported.
type DType int32

//go:generate go tool enumer -type=DType -text -output=gen_dtype_enumer.go dtype_enum.go

const (
	// InvalidDType is the zero value, used to flag unknown or unset dtypes.
	InvalidDType DType = iota

	// Bool is stored as one byte in the IDX format (0 or 1).
	Bool

	// Uint8 is an unsigned 8 bits integer.
	Uint8

	// Int8 is a signed 8 bits integer.
	Int8

	// Int16 is a signed 16 bits integer.
	Int16

	// Int32 is a signed 32 bits integer.
	Int32

	// Float32 is an IEEE-754 single precision float.
	Float32

	// Float64 is an IEEE-754 double precision float.
	Float64
)

// Aliases, following the short names used by XLA and by the IDX documentation.
const (
	// PRED is an alias for Bool.
	PRED = Bool

	// U8 is an alias for Uint8.
	U8 = Uint8

	// S8 is an alias for Int8.
	S8 = Int8

	// S16 is an alias for Int16.
	S16 = Int16

	// S32 is an alias for Int32.
	S32 = Int32

	// F32 is an alias for Float32.
	F32 = Float32

	// F64 is an alias for Float64.
	F64 = Float64
)

// MapOfNames to their dtypes. It includes also aliases to the various dtypes.
// It is also later initialized to include the lower-case version of the names.
var MapOfNames = map[string]DType{
	"InvalidDType": InvalidDType,
	"INVALID":      InvalidDType,
	"Bool":         Bool,
	"PRED":         Bool,
	"Uint8":        Uint8,
	"U8":           Uint8,
	"Int8":         Int8,
	"S8":           Int8,
	"I8":           Int8,
	"Int16":        Int16,
	"S16":          Int16,
	"I16":          Int16,
	"Int32":        Int32,
	"S32":          Int32,
	"I32":          Int32,
	"Float32":      Float32,
	"F32":          Float32,
	"Float64":      Float64,
	"F64":          Float64,
}

// idxIDs maps each DType to the id used in the third byte of an IDX file header.
var idxIDs = [...]uint8{
	InvalidDType: 0x00,
	Bool:         0x07,
	Uint8:        0x08,
	Int8:         0x09,
	Int16:        0x0B,
	Int32:        0x0C,
	Float32:      0x0D,
	Float64:      0x0E,
}
