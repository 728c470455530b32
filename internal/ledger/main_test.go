package ledger

import (
	"os"
	"testing"

	"github.com/ultrasignals/trading-ledger/internal/testutil/dblock"
)

func TestMain(m *testing.M) {
	release := dblock.Acquire()
	code := m.Run()
	release()
	os.Exit(code)
}
