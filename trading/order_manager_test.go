package trading

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mocktrading "github.com/helixtrading/helix-venue/trading/mocks"
	"github.com/helixtrading/helix-venue/wire"
)

func newOrderManager(t *testing.T) (*OrderManager, *[]wire.MEClientRequest) {
	ctrl := gomock.NewController(t)
	sender := mocktrading.NewMockRequestSender(ctrl)

	sent := &[]wire.MEClientRequest{}
	sender.EXPECT().SendClientRequest(gomock.Any()).Do(func(r *wire.MEClientRequest) {
		*sent = append(*sent, *r)
	}).AnyTimes()

	k := NewPositionKeeper(zap.NewNop())
	m := NewOrderManager(7, sender, NewRiskManager(k, testCfg()), zap.NewNop())
	return m, sent
}

func TestMoveOrdersSendsBothSides(t *testing.T) {
	m, sent := newOrderManager(t)

	m.MoveOrders(0, 49, 51, 10)

	require.Len(t, *sent, 2)
	bid := (*sent)[0]
	require.Equal(t, wire.ClientRequestTypeNew, bid.Type)
	require.Equal(t, wire.ClientID(7), bid.ClientID)
	require.Equal(t, wire.SideBuy, bid.Side)
	require.Equal(t, wire.Price(49), bid.Price)
	require.Equal(t, wire.Qty(10), bid.Qty)
	require.Equal(t, wire.OrderID(1), bid.OrderID)

	ask := (*sent)[1]
	require.Equal(t, wire.SideSell, ask.Side)
	require.Equal(t, wire.Price(51), ask.Price)
	require.Equal(t, wire.OrderID(2), ask.OrderID)

	require.Equal(t, OMOrderStatePendingNew, m.SideOrder(0, wire.SideBuy).State)
	require.Equal(t, OMOrderStatePendingNew, m.SideOrder(0, wire.SideSell).State)
}

func TestPendingOrdersAreLeftAlone(t *testing.T) {
	m, sent := newOrderManager(t)

	m.MoveOrders(0, 49, 51, 10)
	require.Len(t, *sent, 2)

	// Requests in flight: nothing more goes out whatever the prices.
	m.MoveOrders(0, 48, 52, 10)
	require.Len(t, *sent, 2)
}

func TestLiveOrderAtWrongPriceIsCanceled(t *testing.T) {
	m, sent := newOrderManager(t)

	m.MoveOrders(0, 49, wire.PriceInvalid, 10)
	require.Len(t, *sent, 1)

	accepted := wire.MEClientResponse{
		Type: wire.ClientResponseTypeAccepted, ClientID: 7, TickerID: 0,
		ClientOrderID: 1, MarketOrderID: 11, Side: wire.SideBuy, Price: 49,
	}
	m.OnOrderUpdate(&accepted)
	require.Equal(t, OMOrderStateLive, m.SideOrder(0, wire.SideBuy).State)

	// Same price: no churn.
	m.MoveOrders(0, 49, wire.PriceInvalid, 10)
	require.Len(t, *sent, 1)

	// New price: live order is canceled first.
	m.MoveOrders(0, 48, wire.PriceInvalid, 10)
	require.Len(t, *sent, 2)
	cancel := (*sent)[1]
	require.Equal(t, wire.ClientRequestTypeCancel, cancel.Type)
	require.Equal(t, wire.OrderID(1), cancel.OrderID)
	require.Equal(t, OMOrderStatePendingCancel, m.SideOrder(0, wire.SideBuy).State)

	canceled := accepted
	canceled.Type = wire.ClientResponseTypeCanceled
	m.OnOrderUpdate(&canceled)
	require.Equal(t, OMOrderStateDead, m.SideOrder(0, wire.SideBuy).State)

	// Dead slot quotes again on the next move.
	m.MoveOrders(0, 48, wire.PriceInvalid, 10)
	require.Len(t, *sent, 3)
	require.Equal(t, wire.ClientRequestTypeNew, (*sent)[2].Type)
	require.Equal(t, wire.Price(48), (*sent)[2].Price)
}

func TestFilledOrderGoesDead(t *testing.T) {
	m, sent := newOrderManager(t)

	m.MoveOrders(0, 49, wire.PriceInvalid, 10)
	require.Len(t, *sent, 1)

	partial := wire.MEClientResponse{
		Type: wire.ClientResponseTypeFilled, ClientID: 7, TickerID: 0,
		ClientOrderID: 1, Side: wire.SideBuy, Price: 49, ExecQty: 4, LeavesQty: 6,
	}
	m.OnOrderUpdate(&partial)
	require.Equal(t, wire.Qty(6), m.SideOrder(0, wire.SideBuy).Qty)
	require.NotEqual(t, OMOrderStateDead, m.SideOrder(0, wire.SideBuy).State)

	full := partial
	full.ExecQty, full.LeavesQty = 6, 0
	m.OnOrderUpdate(&full)
	require.Equal(t, OMOrderStateDead, m.SideOrder(0, wire.SideBuy).State)
}

func TestInvalidPriceMeansNoOrder(t *testing.T) {
	m, sent := newOrderManager(t)
	m.MoveOrders(0, wire.PriceInvalid, wire.PriceInvalid, 10)
	require.Empty(t, *sent)
}

func TestRiskBlockedOrderNotSent(t *testing.T) {
	m, sent := newOrderManager(t)
	// Clip beyond max order size never reaches the wire.
	m.MoveOrders(0, 49, 51, 101)
	require.Empty(t, *sent)
	require.Equal(t, OMOrderStateInvalid, m.SideOrder(0, wire.SideBuy).State)
}

func TestCancelRejectHasNoSideSlot(t *testing.T) {
	m, _ := newOrderManager(t)
	reject := wire.MEClientResponse{
		Type: wire.ClientResponseTypeCancelRejected, ClientID: 7, TickerID: 0,
		ClientOrderID: 42, Side: wire.SideInvalid,
	}
	require.NotPanics(t, func() { m.OnOrderUpdate(&reject) })
}
