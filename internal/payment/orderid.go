package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderID returns "ORDER_<unix millis>_<8 hex>". The random suffix keeps
// ids unique when several requests land in the same millisecond.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORDER_%d_%s", now.UnixMilli(), suffix)
}
