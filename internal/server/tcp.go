// internal/server/tcp.go
package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
)

// TCPServer serves Modbus TCP requests by handing each decoded PDU to a
// Handler. A nil handler result produces no response bytes at all; the
// connection stays open and the master times out.
type TCPServer struct {
	handler Handler

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewTCPServer builds a server around the handler.
func NewTCPServer(handler Handler) *TCPServer {
	return &TCPServer{
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start listens on addr and accepts connections until Close.
func (s *TCPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *TCPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops accepting and drops all live connections.
func (s *TCPServer) Close() error {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	return err
}

func (s *TCPServer) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				log.Printf("server: accept: %v", err)
			}
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *TCPServer) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// MBAP header: TID(2) PID(2) LEN(2) UID(1), then PDU of LEN-1 bytes.
	var header [7]byte

	for {
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("server: read header: %v", err)
			}
			return
		}

		length := int(header[4])<<8 | int(header[5])
		if length < 2 || length > 260 {
			return
		}

		pdu := make([]byte, length-1)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		req, ok := parsePDU(header[6], pdu)
		if !ok {
			continue
		}

		resp := s.handler(req)
		if resp == nil {
			// Silence: no bytes on the wire.
			continue
		}

		out := make([]byte, 0, 7+len(resp))
		out = append(out, header[0], header[1]) // transaction id echoed
		out = append(out, 0, 0)                 // protocol id
		out = appendU16(out, uint16(1+len(resp)))
		out = append(out, header[6])
		out = append(out, resp...)

		if err := writeAll(conn, out); err != nil {
			return
		}
	}
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
