package jobs_test

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// workers must all exit once the pool is stopped
	goleak.VerifyTestMain(m)
}
