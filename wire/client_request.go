package wire

import (
	"fmt"
)

// ClientRequestType discriminates order-entry requests.
type ClientRequestType uint8

const (
	ClientRequestTypeInvalid ClientRequestType = 0
	ClientRequestTypeNew     ClientRequestType = 1
	ClientRequestTypeCancel  ClientRequestType = 2
)

func (t ClientRequestType) String() string {
	switch t {
	case ClientRequestTypeNew:
		return "NEW"
	case ClientRequestTypeCancel:
		return "CANCEL"
	}
	return "INVALID"
}

// Record sizes in bytes, packed with no padding.
const (
	MEClientRequestSize = 30
	OMClientRequestSize = 8 + MEClientRequestSize
)

// MEClientRequest is an order-entry request as the matching engine consumes
// it. For NEW, OrderID carries the client-assigned order id; for CANCEL it
// names the order to cancel.
type MEClientRequest struct {
	Type     ClientRequestType
	ClientID ClientID
	TickerID TickerID
	OrderID  OrderID
	Side     Side
	Price    Price
	Qty      Qty
}

// AppendTo appends the packed 30-byte encoding of the request to data.
func (m *MEClientRequest) AppendTo(data []byte) []byte {
	data = putByte(data, byte(m.Type))
	data = putUint32(data, uint32(m.ClientID))
	data = putUint32(data, uint32(m.TickerID))
	data = putUint64(data, uint64(m.OrderID))
	data = putByte(data, byte(m.Side))
	data = putUint64(data, uint64(m.Price))
	data = putUint32(data, uint32(m.Qty))
	return data
}

// UnmarshalMEClientRequest decodes a packed 30-byte request.
func UnmarshalMEClientRequest(data []byte) (msg MEClientRequest, err error) {
	if len(data) != MEClientRequestSize {
		err = fmt.Errorf("invalid size %d of MEClientRequest, want %d", len(data), MEClientRequestSize)
		return
	}
	var b byte
	var u32 uint32
	var u64 uint64
	b, data = readByte(data)
	msg.Type = ClientRequestType(b)
	u32, data = readUint32(data)
	msg.ClientID = ClientID(u32)
	u32, data = readUint32(data)
	msg.TickerID = TickerID(u32)
	u64, data = readUint64(data)
	msg.OrderID = OrderID(u64)
	b, data = readByte(data)
	msg.Side = Side(b)
	u64, data = readUint64(data)
	msg.Price = Price(u64)
	u32, _ = readUint32(data)
	msg.Qty = Qty(u32)
	return
}

func (m *MEClientRequest) String() string {
	return fmt.Sprintf("MEClientRequest[type:%s client:%s ticker:%s oid:%s side:%s price:%s qty:%s]",
		m.Type, m.ClientID, m.TickerID, m.OrderID, m.Side, m.Price, m.Qty)
}

// OMClientRequest frames an MEClientRequest with the per-connection sequence
// number stamped by the order gateway.
type OMClientRequest struct {
	SeqNum  uint64
	Request MEClientRequest
}

// AppendTo appends the packed 38-byte encoding of the framed request to data.
func (m *OMClientRequest) AppendTo(data []byte) []byte {
	data = putUint64(data, m.SeqNum)
	return m.Request.AppendTo(data)
}

// UnmarshalOMClientRequest decodes a packed 38-byte framed request.
func UnmarshalOMClientRequest(data []byte) (msg OMClientRequest, err error) {
	if len(data) != OMClientRequestSize {
		err = fmt.Errorf("invalid size %d of OMClientRequest, want %d", len(data), OMClientRequestSize)
		return
	}
	msg.SeqNum, data = readUint64(data)
	msg.Request, err = UnmarshalMEClientRequest(data)
	return
}

func (m *OMClientRequest) String() string {
	return fmt.Sprintf("OMClientRequest[seq:%d %s]", m.SeqNum, m.Request.String())
}
