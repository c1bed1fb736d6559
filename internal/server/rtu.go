// internal/server/rtu.go
package server

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialParams configure one local RTU server port.
type SerialParams struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string // "N", "E" or "O"
	StopBits int
}

// RTUServer serves Modbus RTU requests on a serial port. Like the TCP
// server, a nil handler result writes nothing, leaving the bus quiet.
type RTUServer struct {
	handler Handler
	port    serial.Port

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewRTUServer opens the serial port and builds a server around the handler.
func NewRTUServer(params SerialParams, handler Handler) (*RTUServer, error) {
	mode := &serial.Mode{
		BaudRate: params.BaudRate,
		DataBits: params.DataBits,
	}

	switch params.Parity {
	case "", "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("server: unknown parity %q", params.Parity)
	}

	switch params.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("server: unsupported stop bits %d", params.StopBits)
	}

	port, err := serial.Open(params.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("server: open %s: %w", params.Device, err)
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, err
	}

	return &RTUServer{
		handler: handler,
		port:    port,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the read loop.
func (s *RTUServer) Start() {
	s.wg.Add(1)
	go s.readLoop()
}

// Close stops the read loop and closes the port.
func (s *RTUServer) Close() error {
	s.once.Do(func() { close(s.done) })
	err := s.port.Close()
	s.wg.Wait()
	return err
}

// frameLen is the fixed ADU length of the requests the cache serves
// (functions 3, 4 and 6): unit(1) + pdu(5) + crc(2).
const frameLen = 8

func (s *RTUServer) readLoop() {
	defer s.wg.Done()

	buf := make([]byte, 0, 2*frameLen)
	chunk := make([]byte, 64)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(chunk)
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Printf("server: serial read: %v", err)
			}
			return
		}
		if n == 0 {
			// Read timeout: an idle gap ends any partial frame.
			buf = buf[:0]
			continue
		}

		buf = append(buf, chunk[:n]...)

		for len(buf) >= frameLen {
			frame := buf[:frameLen]
			if !crcValid(frame) {
				// Resync one byte at a time.
				buf = buf[1:]
				continue
			}

			s.dispatch(frame)
			buf = buf[frameLen:]
		}
	}
}

func (s *RTUServer) dispatch(frame []byte) {
	req, ok := parsePDU(frame[0], frame[1:frameLen-2])
	if !ok {
		return
	}

	resp := s.handler(req)
	if resp == nil {
		return
	}

	adu := make([]byte, 0, 3+len(resp)+2)
	adu = append(adu, frame[0])
	adu = append(adu, resp...)
	adu = appendCRC(adu)

	if err := s.writeAll(adu); err != nil {
		log.Printf("server: serial write: %v", err)
	}
}

func (s *RTUServer) writeAll(b []byte) error {
	for len(b) > 0 {
		n, err := s.port.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("server: serial write stalled")
		}
		b = b[n:]
	}
	return nil
}
