// internal/server/pdu.go
package server

// Request is one decoded Modbus request PDU addressed to a local server.
type Request struct {
	UnitID   uint8
	Function uint8
	Address  uint16
	Quantity uint16 // function codes 3/4
	Value    uint16 // function code 6
}

// Handler answers a request with a response PDU (function code onward), or
// nil to stay silent and let the requesting master time out.
type Handler func(req Request) []byte

// parsePDU decodes the function codes the local servers understand. The
// second return is false for malformed frames.
func parsePDU(unitID uint8, pdu []byte) (Request, bool) {
	if len(pdu) < 5 {
		return Request{}, false
	}

	req := Request{
		UnitID:   unitID,
		Function: pdu[0],
		Address:  uint16(pdu[1])<<8 | uint16(pdu[2]),
	}

	switch req.Function {
	case 3, 4:
		req.Quantity = uint16(pdu[3])<<8 | uint16(pdu[4])
	case 6:
		req.Value = uint16(pdu[3])<<8 | uint16(pdu[4])
	}

	return req, true
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}
