package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerDeltasFreshOrder(t *testing.T) {
	// nothing debited yet: the full target becomes debits
	target := map[Container]int{ContainerSlim: 1, ContainerWilkins: 2}
	got := ledgerDeltas(target, map[Container]int{})
	require.Equal(t, []ledgerDelta{
		{Container: ContainerSlim, Delta: 1},
		{Container: ContainerWilkins, Delta: 2},
	}, got)
}

func TestLedgerDeltasCancellation(t *testing.T) {
	// cancelling credits back exactly what the ledger shows
	current := map[Container]int{ContainerSlim: 1, ContainerRound: 3}
	got := ledgerDeltas(map[Container]int{}, current)
	require.Equal(t, []ledgerDelta{
		{Container: ContainerRound, Delta: -3},
		{Container: ContainerSlim, Delta: -1},
	}, got)
}

func TestLedgerDeltasAlreadyReconciled(t *testing.T) {
	// repeated transition to the same level is a no-op
	level := map[Container]int{ContainerSlim: 2}
	require.Empty(t, ledgerDeltas(level, level))

	// second cancellation: ledger already at zero, nothing to credit
	require.Empty(t, ledgerDeltas(map[Container]int{}, map[Container]int{}))
}

func TestLedgerDeltasMixed(t *testing.T) {
	target := map[Container]int{ContainerSlim: 2, ContainerRound: 1}
	current := map[Container]int{ContainerSlim: 2, ContainerWilkins: 4}
	got := ledgerDeltas(target, current)
	require.Equal(t, []ledgerDelta{
		{Container: ContainerRound, Delta: 1},
		{Container: ContainerWilkins, Delta: -4},
	}, got)
}

func TestLedgerDeltasDeterministicOrder(t *testing.T) {
	target := map[Container]int{ContainerWilkins: 1, ContainerRound: 1, ContainerSlim: 1}
	for i := 0; i < 20; i++ {
		got := ledgerDeltas(target, map[Container]int{})
		require.Equal(t, []ledgerDelta{
			{Container: ContainerRound, Delta: 1},
			{Container: ContainerSlim, Delta: 1},
			{Container: ContainerWilkins, Delta: 1},
		}, got)
	}
}
