package parsers

import (
	"io"

	"github.com/username/pitfolio/backend/src/models"
)

type Parser interface {
	Parse(file io.Reader) ([]models.CanonicalTransaction, error)
}
