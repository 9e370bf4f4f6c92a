package strip

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// TagLength is the length of tags produced by RandomTagGenerator.
const TagLength = 16

// TagGenerator supplies the namespace tags Merge prefixes identifiers with.
// Tags must be legal identifiers (see IsIdentifier).
type TagGenerator interface {
	Generate() string
}

// RandomTagGenerator produces 16 lowercase hex characters taken from a
// random (version 4) UUID.
//
// Panics if the system random source fails, as uuid.New does.
//
// Thread-safety: RandomTagGenerator is stateless and safe for concurrent use.
type RandomTagGenerator struct{}

// Generate implements TagGenerator.
func (RandomTagGenerator) Generate() string {
	id := uuid.New()
	return hex.EncodeToString(id[:TagLength/2])
}
