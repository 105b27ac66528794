package wire

import "encoding/binary"

// Little-endian read helpers. Each consumes its field from the front of the
// slice and returns the remainder, so unmarshal code reads top to bottom in
// record order.

func readByte(data []byte) (byte, []byte) {
	return data[0], data[1:]
}

func readUint32(data []byte) (uint32, []byte) {
	return binary.LittleEndian.Uint32(data), data[4:]
}

func readUint64(data []byte) (uint64, []byte) {
	return binary.LittleEndian.Uint64(data), data[8:]
}

// Append-style write helpers, mirror images of the readers.

func putByte(data []byte, v byte) []byte {
	return append(data, v)
}

func putUint32(data []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(data, v)
}

func putUint64(data []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(data, v)
}
