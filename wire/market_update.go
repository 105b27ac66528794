package wire

import (
	"fmt"
)

// MarketUpdateType discriminates market-data events.
type MarketUpdateType uint8

const (
	MarketUpdateTypeInvalid       MarketUpdateType = 0
	MarketUpdateTypeClear         MarketUpdateType = 1
	MarketUpdateTypeAdd           MarketUpdateType = 2
	MarketUpdateTypeModify        MarketUpdateType = 3
	MarketUpdateTypeCancel        MarketUpdateType = 4
	MarketUpdateTypeTrade         MarketUpdateType = 5
	MarketUpdateTypeSnapshotStart MarketUpdateType = 6
	MarketUpdateTypeSnapshotEnd   MarketUpdateType = 7
)

func (t MarketUpdateType) String() string {
	switch t {
	case MarketUpdateTypeClear:
		return "CLEAR"
	case MarketUpdateTypeAdd:
		return "ADD"
	case MarketUpdateTypeModify:
		return "MODIFY"
	case MarketUpdateTypeCancel:
		return "CANCEL"
	case MarketUpdateTypeTrade:
		return "TRADE"
	case MarketUpdateTypeSnapshotStart:
		return "SNAPSHOT_START"
	case MarketUpdateTypeSnapshotEnd:
		return "SNAPSHOT_END"
	}
	return "INVALID"
}

const (
	MEMarketUpdateSize  = 34
	MDPMarketUpdateSize = 8 + MEMarketUpdateSize
)

// MEMarketUpdate is a single order-book event. OrderID is the venue-assigned
// market order id, except on SNAPSHOT_START and SNAPSHOT_END where the field
// is overloaded to carry the incremental sequence number the snapshot cycle
// is anchored to; use SnapshotAnchorSeq for that reading.
type MEMarketUpdate struct {
	Type     MarketUpdateType
	OrderID  OrderID
	TickerID TickerID
	Side     Side
	Price    Price
	Qty      Qty
	Priority Priority
}

// SnapshotAnchorSeq returns the incremental sequence number carried by
// SNAPSHOT_START and SNAPSHOT_END markers.
func (m *MEMarketUpdate) SnapshotAnchorSeq() uint64 {
	return uint64(m.OrderID)
}

// AppendTo appends the packed 34-byte encoding of the update to data.
func (m *MEMarketUpdate) AppendTo(data []byte) []byte {
	data = putByte(data, byte(m.Type))
	data = putUint64(data, uint64(m.OrderID))
	data = putUint32(data, uint32(m.TickerID))
	data = putByte(data, byte(m.Side))
	data = putUint64(data, uint64(m.Price))
	data = putUint32(data, uint32(m.Qty))
	data = putUint64(data, uint64(m.Priority))
	return data
}

// UnmarshalMEMarketUpdate decodes a packed 34-byte update.
func UnmarshalMEMarketUpdate(data []byte) (msg MEMarketUpdate, err error) {
	if len(data) != MEMarketUpdateSize {
		err = fmt.Errorf("invalid size %d of MEMarketUpdate, want %d", len(data), MEMarketUpdateSize)
		return
	}
	var b byte
	var u32 uint32
	var u64 uint64
	b, data = readByte(data)
	msg.Type = MarketUpdateType(b)
	u64, data = readUint64(data)
	msg.OrderID = OrderID(u64)
	u32, data = readUint32(data)
	msg.TickerID = TickerID(u32)
	b, data = readByte(data)
	msg.Side = Side(b)
	u64, data = readUint64(data)
	msg.Price = Price(u64)
	u32, data = readUint32(data)
	msg.Qty = Qty(u32)
	u64, _ = readUint64(data)
	msg.Priority = Priority(u64)
	return
}

func (m *MEMarketUpdate) String() string {
	return fmt.Sprintf("MEMarketUpdate[type:%s oid:%s ticker:%s side:%s price:%s qty:%s prio:%s]",
		m.Type, m.OrderID, m.TickerID, m.Side, m.Price, m.Qty, m.Priority)
}

// MDPMarketUpdate frames an MEMarketUpdate with its stream sequence number:
// the single global incremental sequence on the incremental feed, or the
// per-cycle sequence on the snapshot feed.
type MDPMarketUpdate struct {
	SeqNum uint64
	Update MEMarketUpdate
}

// AppendTo appends the packed 42-byte encoding of the framed update to data.
func (m *MDPMarketUpdate) AppendTo(data []byte) []byte {
	data = putUint64(data, m.SeqNum)
	return m.Update.AppendTo(data)
}

// UnmarshalMDPMarketUpdate decodes a packed 42-byte framed update.
func UnmarshalMDPMarketUpdate(data []byte) (msg MDPMarketUpdate, err error) {
	if len(data) != MDPMarketUpdateSize {
		err = fmt.Errorf("invalid size %d of MDPMarketUpdate, want %d", len(data), MDPMarketUpdateSize)
		return
	}
	msg.SeqNum, data = readUint64(data)
	msg.Update, err = UnmarshalMEMarketUpdate(data)
	return
}

func (m *MDPMarketUpdate) String() string {
	return fmt.Sprintf("MDPMarketUpdate[seq:%d %s]", m.SeqNum, m.Update.String())
}
