package spec

// DataType is the SCIM attribute data type, as named in the data model.
type DataType int

const (
	DataTypeString DataType = iota
	DataTypeBoolean
	DataTypeInteger
	DataTypeDateTime
	DataTypeBinary
	DataTypeComplex
)

// mustParseDataType resolves a configuration-supplied type name. It panics
// on an unknown name because it only ever runs at config-load time, never
// against request data.
func mustParseDataType(value string) DataType {
	switch value {
	case "string":
		return DataTypeString
	case "boolean":
		return DataTypeBoolean
	case "integer":
		return DataTypeInteger
	case "datetime":
		return DataTypeDateTime
	case "binary":
		return DataTypeBinary
	case "complex":
		return DataTypeComplex
	default:
		panic("spec: invalid data type '" + value + "'")
	}
}

func (t DataType) String() string {
	switch t {
	case DataTypeString:
		return "string"
	case DataTypeBoolean:
		return "boolean"
	case DataTypeInteger:
		return "integer"
	case DataTypeDateTime:
		return "datetime"
	case DataTypeBinary:
		return "binary"
	case DataTypeComplex:
		return "complex"
	default:
		panic("spec: invalid data type")
	}
}

// Cardinality distinguishes a singular attribute from a plural (multi-valued) one.
type Cardinality int

const (
	CardinalitySingular Cardinality = iota
	CardinalityPlural
)

func mustParseCardinality(value string) Cardinality {
	switch value {
	case "singular", "":
		return CardinalitySingular
	case "plural":
		return CardinalityPlural
	default:
		panic("spec: invalid cardinality '" + value + "'")
	}
}

func (c Cardinality) String() string {
	switch c {
	case CardinalitySingular:
		return "singular"
	case CardinalityPlural:
		return "plural"
	default:
		panic("spec: invalid cardinality")
	}
}
