package escrow

import (
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"

	"github.com/xraph/escrow/invoice"
)

func TestLockSerializesAndPrunes(t *testing.T) {
	e := New(nil)

	unlock := e.lock(1)
	assert.Equal(t, 1, e.locks.Size())

	// Each slot is only written under its invoice's lock.
	var counts [5]int
	var wg conc.WaitGroup
	for i := 0; i < 64; i++ {
		invID := invoice.ID(i%4 + 1)
		wg.Go(func() {
			release := e.lock(invID)
			defer release()
			counts[invID]++
		})
	}

	unlock()
	wg.Wait()

	assert.Equal(t, [5]int{0, 16, 16, 16, 16}, counts)
	assert.Zero(t, e.locks.Size(), "released locks leave no entries behind")
}
