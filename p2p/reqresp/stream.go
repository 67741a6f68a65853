package reqresp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/geanlabs/lmdghost/types"
)

const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
)

// StreamHandler serves and issues request/response protocol streams.
type StreamHandler struct {
	host    host.Host
	handler *Handler
	logger  *slog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(h host.Host, handler *Handler, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		host:    h,
		handler: handler,
		logger:  logger,
	}
}

// RegisterProtocols registers all request/response protocol handlers.
func (s *StreamHandler) RegisterProtocols() {
	s.host.SetStreamHandler(protocol.ID(StatusProtocolV1), s.handleStatusStream)
	s.host.SetStreamHandler(protocol.ID(BlocksByRootProtocolV1), s.handleBlocksByRootStream)
}

func (s *StreamHandler) handleStatusStream(stream network.Stream) {
	defer stream.Close()
	s.serveStatus(stream, stream.Conn().RemotePeer())
}

// serveStatus answers one Status request read from rw.
func (s *StreamHandler) serveStatus(rw io.ReadWriter, from peer.ID) {
	setReadDeadline(rw, ReadTimeout)
	data, err := readRequest(bufio.NewReader(rw))
	if err != nil {
		s.logger.Debug("status: read request", "peer", from, "error", err)
		s.writeError(rw, RespCodeInvalidReq, err)
		return
	}

	var peerStatus Status
	if err := peerStatus.UnmarshalSSZ(data); err != nil {
		s.logger.Debug("status: decode request", "peer", from, "error", err)
		s.writeError(rw, RespCodeInvalidReq, err)
		return
	}
	if err := s.handler.ValidatePeerStatus(&peerStatus); err != nil {
		s.logger.Info("peer on a conflicting chain",
			"peer", from,
			"finalized_epoch", peerStatus.Finalized.Epoch,
			"finalized_root", peerStatus.Finalized.Root.Short(),
		)
		s.writeError(rw, RespCodeInvalidReq, err)
		return
	}

	ours, err := s.handler.GetStatus()
	if err != nil {
		s.writeError(rw, RespCodeServerError, err)
		return
	}
	resp, err := ours.MarshalSSZ()
	if err != nil {
		s.writeError(rw, RespCodeServerError, err)
		return
	}

	setWriteDeadline(rw, WriteTimeout)
	if err := writeResponse(rw, RespCodeSuccess, resp); err != nil {
		s.logger.Debug("status: write response", "peer", from, "error", err)
	}
}

func (s *StreamHandler) handleBlocksByRootStream(stream network.Stream) {
	defer stream.Close()
	s.serveBlocksByRoot(stream, stream.Conn().RemotePeer())
}

// serveBlocksByRoot answers one BlocksByRoot request with one chunk per
// known block.
func (s *StreamHandler) serveBlocksByRoot(rw io.ReadWriter, from peer.ID) {
	setReadDeadline(rw, ReadTimeout)
	data, err := readRequest(bufio.NewReader(rw))
	if err != nil {
		s.writeError(rw, RespCodeInvalidReq, err)
		return
	}

	var request BlocksByRootRequest
	if err := request.UnmarshalSSZ(data); err != nil {
		s.writeError(rw, RespCodeInvalidReq, err)
		return
	}

	blocks := s.handler.HandleBlocksByRoot(&request)
	s.logger.Debug("serving blocks by root",
		"peer", from,
		"requested", len(request.Roots),
		"found", len(blocks),
	)

	setWriteDeadline(rw, WriteTimeout)
	for _, block := range blocks {
		enc, err := block.MarshalSSZ()
		if err != nil {
			s.writeError(rw, RespCodeServerError, err)
			return
		}
		if err := writeResponse(rw, RespCodeSuccess, enc); err != nil {
			s.logger.Debug("blocks by root: write response", "peer", from, "error", err)
			return
		}
	}
}

func (s *StreamHandler) writeError(w io.Writer, code byte, cause error) {
	if err := writeResponse(w, code, []byte(cause.Error())); err != nil {
		s.logger.Debug("write error response", "error", err)
	}
}

// SendStatus exchanges Status messages with a peer.
func (s *StreamHandler) SendStatus(ctx context.Context, peerID peer.ID, status *Status) (*Status, error) {
	stream, err := s.host.NewStream(ctx, peerID, protocol.ID(StatusProtocolV1))
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	data, err := status.MarshalSSZ()
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}
	if err := sendRequest(stream, data); err != nil {
		return nil, err
	}

	_ = stream.SetReadDeadline(time.Now().Add(ReadTimeout))
	return readStatus(bufio.NewReader(stream))
}

// readStatus reads the single Status chunk answering a status request.
func readStatus(r *bufio.Reader) (*Status, error) {
	code, resp, err := readResponse(r)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if code != RespCodeSuccess {
		return nil, fmt.Errorf("peer returned error code %d: %s", code, resp)
	}

	var peerStatus Status
	if err := peerStatus.UnmarshalSSZ(resp); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &peerStatus, nil
}

// RequestBlocksByRoot requests blocks from a peer by their roots.
func (s *StreamHandler) RequestBlocksByRoot(ctx context.Context, peerID peer.ID, roots []types.Root) ([]*types.BlockInfo, error) {
	if len(roots) > MaxRequestBlocks {
		roots = roots[:MaxRequestBlocks]
	}
	stream, err := s.host.NewStream(ctx, peerID, protocol.ID(BlocksByRootProtocolV1))
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	request := &BlocksByRootRequest{Roots: roots}
	data, err := request.MarshalSSZ()
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := sendRequest(stream, data); err != nil {
		return nil, err
	}

	_ = stream.SetReadDeadline(time.Now().Add(ReadTimeout))
	return readBlocks(bufio.NewReader(stream), len(roots))
}

// readBlocks collects success chunks until the stream ends. A malformed
// chunk ends the exchange with an error but keeps the blocks read so far.
func readBlocks(r *bufio.Reader, max int) ([]*types.BlockInfo, error) {
	var blocks []*types.BlockInfo
	for len(blocks) < max {
		code, data, err := readResponse(r)
		if errors.Is(err, io.EOF) {
			return blocks, nil
		}
		if err != nil {
			return blocks, fmt.Errorf("read response: %w", err)
		}
		if code != RespCodeSuccess {
			return blocks, fmt.Errorf("peer returned error code %d: %s", code, data)
		}
		block := new(types.BlockInfo)
		if err := block.UnmarshalSSZ(data); err != nil {
			return blocks, fmt.Errorf("unmarshal block: %w", err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func sendRequest(stream network.Stream, data []byte) error {
	_ = stream.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := writeRequest(stream, data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	if err := stream.CloseWrite(); err != nil {
		return fmt.Errorf("close write: %w", err)
	}
	return nil
}

type readDeadliner interface{ SetReadDeadline(time.Time) error }
type writeDeadliner interface{ SetWriteDeadline(time.Time) error }

func setReadDeadline(rw io.ReadWriter, d time.Duration) {
	if s, ok := rw.(readDeadliner); ok {
		_ = s.SetReadDeadline(time.Now().Add(d))
	}
}

func setWriteDeadline(rw io.ReadWriter, d time.Duration) {
	if s, ok := rw.(writeDeadliner); ok {
		_ = s.SetWriteDeadline(time.Now().Add(d))
	}
}
