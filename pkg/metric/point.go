package metric

import (
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"
)

// Point is a single raw observation. It is immutable and ephemeral: it
// lives in the raw buffer only until the next aggregation pass.
type Point struct {
	Instrument string
	Kind       Kind
	Value      float64
	Attributes attribute.Set
	Time       time.Time
}
