package enums

import "fmt"

// Unit is the measurement unit an ingredient is planned and bought in.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pcs"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"
	UnitPinch      Unit = "pinch"
	UnitToTaste    Unit = "to_taste"
)

var validUnits = []Unit{
	UnitGram,
	UnitKilogram,
	UnitMilliliter,
	UnitLiter,
	UnitPiece,
	UnitTeaspoon,
	UnitTablespoon,
	UnitPinch,
	UnitToTaste,
}

var unitDisplay = map[Unit]string{
	UnitGram:       "grams",
	UnitKilogram:   "kilograms",
	UnitMilliliter: "milliliters",
	UnitLiter:      "liters",
	UnitPiece:      "pieces",
	UnitTeaspoon:   "teaspoons",
	UnitTablespoon: "tablespoons",
	UnitPinch:      "pinch",
	UnitToTaste:    "to taste",
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// Display returns the human label for the unit, falling back to the raw code.
func (u Unit) Display() string {
	if label, ok := unitDisplay[u]; ok {
		return label
	}
	return string(u)
}

// ParseUnit converts raw input into a Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}
