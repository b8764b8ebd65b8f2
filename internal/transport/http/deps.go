package http

import (
	"time"

	"github.com/go-recovery-api/internal/application/recovery"
	"github.com/go-recovery-api/internal/transport/http/handler"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	// RecoveryStore is the DynamoDB or Redis record store selected at startup.
	RecoveryStore recovery.RecordStore
	Codec         recovery.TokenCodec
	// Ready reports whether RecoveryStore is reachable. Optional.
	Ready handler.ReadinessCheck
	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}
