package mocks

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/thanhnp/poa-ledger/internal/models"
)

// Global variables that can be used for testing. They are non-nil valid
// values for the types commonly needed by ledger components.
var (
	NoopLogger = zerolog.New(io.Discard)

	GenericError = errors.New("dummy error")

	GenericNode = "test"

	GenericTime = time.UnixMilli(1700000000000)

	GenericPayload = models.Payload{
		"senderAddress": "cd6005508d123dfde8c255a01631fa4ee67dbe1f78c6172ebc6241676a6b6dbc",
		"metadata":      "authentic",
	}

	GenericValidator = "5d41402abc4b2a76b9719d911017c592aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// Clock returns a time source that starts at GenericTime and advances by one
// millisecond on every call.
func Clock() func() time.Time {
	now := GenericTime
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}
