package constants

// Unit tags attached to records as unit_of_measure.
const (
	UnitSquareMeter = "m2"
	UnitCubicMeter  = "m3"
	UnitPiece       = "pc"
	UnitSet         = "set"
	UnitPair        = "pair"
	UnitKilogram    = "kg"
	UnitTon         = "ton"
	UnitMeter       = "m"
)

// DefaultUnit is applied at import time when a record carries no unit.
const DefaultUnit = UnitPiece
