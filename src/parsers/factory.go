package parsers

import (
	"fmt"

	"github.com/username/pitfolio/backend/src/parsers/trading212"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case "trading212":
		return trading212.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
