// internal/server/crc.go
package server

// crc16 computes the Modbus RTU CRC over b.
func crc16(b []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range b {
		crc ^= uint16(c)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// appendCRC appends the CRC of adu, low byte first as RTU requires.
func appendCRC(adu []byte) []byte {
	crc := crc16(adu)
	return append(adu, byte(crc), byte(crc>>8))
}

// crcValid checks the trailing CRC of a complete ADU.
func crcValid(adu []byte) bool {
	if len(adu) < 4 {
		return false
	}
	crc := crc16(adu[:len(adu)-2])
	return adu[len(adu)-2] == byte(crc) && adu[len(adu)-1] == byte(crc>>8)
}
