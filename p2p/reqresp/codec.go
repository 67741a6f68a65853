package reqresp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

const MaxMsgSize = 10 * 1024 * 1024 // 10MB

// Response codes
const (
	RespCodeSuccess     byte = 0x00
	RespCodeInvalidReq  byte = 0x01
	RespCodeServerError byte = 0x02
)

// writePayload writes uvarint(len(data)) followed by data as a snappy framed
// stream.
func writePayload(w io.Writer, data []byte) error {
	if len(data) > MaxMsgSize {
		return ErrMessageTooLarge
	}
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	sw := snappy.NewBufferedWriter(w)
	if _, err := sw.Write(data); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return sw.Close()
}

// readPayload reads one frame written by writePayload.
func readPayload(r *bufio.Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > MaxMsgSize {
		return nil, ErrMessageTooLarge
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(snappy.NewReader(r), data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

// writeRequest writes a request frame.
func writeRequest(w io.Writer, data []byte) error {
	return writePayload(w, data)
}

// readRequest reads a request frame.
func readRequest(r *bufio.Reader) ([]byte, error) {
	return readPayload(r)
}

// writeResponse writes one response chunk: code byte then a payload frame.
// Error chunks carry a message instead of SSZ.
func writeResponse(w io.Writer, code byte, data []byte) error {
	if _, err := w.Write([]byte{code}); err != nil {
		return fmt.Errorf("write response code: %w", err)
	}
	return writePayload(w, data)
}

// readResponse reads one response chunk. It returns io.EOF when the stream
// ends cleanly between chunks.
func readResponse(r *bufio.Reader) (byte, []byte, error) {
	code, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	data, err := readPayload(r)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return code, data, err
}
