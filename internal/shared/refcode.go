package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RefCodeGenerator produces unique human-readable references for inventories,
// investigations and auto-created locations.
type RefCodeGenerator struct {
	clock func() time.Time
}

// NewRefCodeGenerator constructs the generator.
func NewRefCodeGenerator() *RefCodeGenerator {
	return &RefCodeGenerator{clock: func() time.Time { return time.Now().UTC() }}
}

// Generate returns a reference of the form PREFIX-20060102-8HEXCHARS.
func (g *RefCodeGenerator) Generate(prefix string) string {
	now := time.Now().UTC()
	if g != nil && g.clock != nil {
		now = g.clock()
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(prefix), now.Format("20060102"), suffix)
}

// GenerateBarcode returns a machine-scannable code for auto-created locations.
func (g *RefCodeGenerator) GenerateBarcode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
}
