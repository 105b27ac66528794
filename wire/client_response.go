package wire

import (
	"fmt"
)

// ClientResponseType discriminates order-entry responses.
type ClientResponseType uint8

const (
	ClientResponseTypeInvalid        ClientResponseType = 0
	ClientResponseTypeAccepted       ClientResponseType = 1
	ClientResponseTypeCanceled       ClientResponseType = 2
	ClientResponseTypeFilled         ClientResponseType = 3
	ClientResponseTypeCancelRejected ClientResponseType = 4
)

func (t ClientResponseType) String() string {
	switch t {
	case ClientResponseTypeAccepted:
		return "ACCEPTED"
	case ClientResponseTypeCanceled:
		return "CANCELED"
	case ClientResponseTypeFilled:
		return "FILLED"
	case ClientResponseTypeCancelRejected:
		return "CANCEL_REJECTED"
	}
	return "INVALID"
}

const (
	MEClientResponseSize = 42
	OMClientResponseSize = 8 + MEClientResponseSize
)

// MEClientResponse is the matching engine's answer to a client request.
// ClientOrderID echoes the client's id, MarketOrderID is the venue-assigned
// one. For fills ExecQty carries the executed quantity and LeavesQty what
// remains working.
type MEClientResponse struct {
	Type          ClientResponseType
	ClientID      ClientID
	TickerID      TickerID
	ClientOrderID OrderID
	MarketOrderID OrderID
	Side          Side
	Price         Price
	ExecQty       Qty
	LeavesQty     Qty
}

// AppendTo appends the packed 42-byte encoding of the response to data.
func (m *MEClientResponse) AppendTo(data []byte) []byte {
	data = putByte(data, byte(m.Type))
	data = putUint32(data, uint32(m.ClientID))
	data = putUint32(data, uint32(m.TickerID))
	data = putUint64(data, uint64(m.ClientOrderID))
	data = putUint64(data, uint64(m.MarketOrderID))
	data = putByte(data, byte(m.Side))
	data = putUint64(data, uint64(m.Price))
	data = putUint32(data, uint32(m.ExecQty))
	data = putUint32(data, uint32(m.LeavesQty))
	return data
}

// UnmarshalMEClientResponse decodes a packed 42-byte response.
func UnmarshalMEClientResponse(data []byte) (msg MEClientResponse, err error) {
	if len(data) != MEClientResponseSize {
		err = fmt.Errorf("invalid size %d of MEClientResponse, want %d", len(data), MEClientResponseSize)
		return
	}
	var b byte
	var u32 uint32
	var u64 uint64
	b, data = readByte(data)
	msg.Type = ClientResponseType(b)
	u32, data = readUint32(data)
	msg.ClientID = ClientID(u32)
	u32, data = readUint32(data)
	msg.TickerID = TickerID(u32)
	u64, data = readUint64(data)
	msg.ClientOrderID = OrderID(u64)
	u64, data = readUint64(data)
	msg.MarketOrderID = OrderID(u64)
	b, data = readByte(data)
	msg.Side = Side(b)
	u64, data = readUint64(data)
	msg.Price = Price(u64)
	u32, data = readUint32(data)
	msg.ExecQty = Qty(u32)
	u32, _ = readUint32(data)
	msg.LeavesQty = Qty(u32)
	return
}

func (m *MEClientResponse) String() string {
	return fmt.Sprintf("MEClientResponse[type:%s client:%s ticker:%s coid:%s moid:%s side:%s price:%s exec:%s leaves:%s]",
		m.Type, m.ClientID, m.TickerID, m.ClientOrderID, m.MarketOrderID, m.Side, m.Price, m.ExecQty, m.LeavesQty)
}

// OMClientResponse frames an MEClientResponse with the per-client outbound
// sequence number stamped by the order server.
type OMClientResponse struct {
	SeqNum   uint64
	Response MEClientResponse
}

// AppendTo appends the packed 50-byte encoding of the framed response to data.
func (m *OMClientResponse) AppendTo(data []byte) []byte {
	data = putUint64(data, m.SeqNum)
	return m.Response.AppendTo(data)
}

// UnmarshalOMClientResponse decodes a packed 50-byte framed response.
func UnmarshalOMClientResponse(data []byte) (msg OMClientResponse, err error) {
	if len(data) != OMClientResponseSize {
		err = fmt.Errorf("invalid size %d of OMClientResponse, want %d", len(data), OMClientResponseSize)
		return
	}
	msg.SeqNum, data = readUint64(data)
	msg.Response, err = UnmarshalMEClientResponse(data)
	return
}

func (m *OMClientResponse) String() string {
	return fmt.Sprintf("OMClientResponse[seq:%d %s]", m.SeqNum, m.Response.String())
}
