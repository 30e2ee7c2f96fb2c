package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusForApproval, StatusConfirmed},
		{StatusForApproval, StatusCancelled},
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusCancelled},
		{StatusInProgress, StatusReadyForPickup},
		{StatusInProgress, StatusOutForDelivery},
		{StatusReadyForPickup, StatusCompleted},
		{StatusOutForDelivery, StatusCompleted},
		{StatusCancelled, StatusConfirmed}, // re-confirmation
	}
	for _, tr := range allowed {
		require.True(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusForApproval, StatusInProgress},
		{StatusForApproval, StatusCompleted},
		{StatusInProgress, StatusCancelled},
		{StatusCompleted, StatusCancelled},
		{StatusCompleted, StatusConfirmed},
		{StatusCancelled, StatusCancelled},
		{StatusCancelled, StatusForApproval},
		{StatusConfirmed, StatusConfirmed},
	}
	for _, tr := range denied {
		require.False(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestCancellable(t *testing.T) {
	require.True(t, Cancellable(StatusForApproval))
	require.True(t, Cancellable(StatusConfirmed))
	require.False(t, Cancellable(StatusInProgress))
	require.False(t, Cancellable(StatusOutForDelivery))
	require.False(t, Cancellable(StatusCompleted))
	require.False(t, Cancellable(StatusCancelled))
}

func TestPaymentStatusFor(t *testing.T) {
	require.Equal(t, PaymentPaid, PaymentStatusFor(StatusCompleted))
	require.Equal(t, PaymentCancelled, PaymentStatusFor(StatusCancelled))
	for _, s := range []Status{
		StatusForApproval, StatusConfirmed, StatusInProgress,
		StatusReadyForPickup, StatusOutForDelivery,
	} {
		require.Equal(t, PaymentPending, PaymentStatusFor(s))
	}
}

func TestRequiredDeduction(t *testing.T) {
	lines := []OrderLine{
		{Container: ContainerRound, Category: CategoryRefill, Qty: 2},
		{Container: ContainerSlim, Category: CategoryNewGallon, Qty: 1},
		{Container: ContainerSlim, Category: CategoryNewGallon, Qty: 3},
		{Container: ContainerWilkins, Category: CategoryNewGallon, Qty: 2},
	}

	// every non-cancelled state needs the full NewGallon quantities
	for _, s := range []Status{StatusForApproval, StatusConfirmed, StatusCompleted} {
		require.Equal(t, map[Container]int{
			ContainerSlim:    4,
			ContainerWilkins: 2,
		}, RequiredDeduction(s, lines))
	}

	// cancelled needs zero
	require.Empty(t, RequiredDeduction(StatusCancelled, lines))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("CONFIRMED")
	require.True(t, ok)
	require.Equal(t, StatusConfirmed, s)

	_, ok = ParseStatus("confirmed")
	require.False(t, ok)
	_, ok = ParseStatus("SHIPPED")
	require.False(t, ok)
}
