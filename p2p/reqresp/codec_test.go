package reqresp

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	ssz "github.com/ferranbt/fastssz"
	"github.com/stretchr/testify/require"

	"github.com/geanlabs/lmdghost/types"
)

func TestPayloadFraming(t *testing.T) {
	var buf bytes.Buffer
	first := bytes.Repeat([]byte{0xab}, 100_000)
	second := []byte("second")

	require.NoError(t, writeResponse(&buf, RespCodeSuccess, first))
	require.NoError(t, writeResponse(&buf, RespCodeServerError, second))
	require.NoError(t, writeResponse(&buf, RespCodeSuccess, nil))

	r := bufio.NewReader(&buf)
	code, data, err := readResponse(r)
	require.NoError(t, err)
	require.Equal(t, RespCodeSuccess, code)
	require.Equal(t, first, data)

	code, data, err = readResponse(r)
	require.NoError(t, err)
	require.Equal(t, RespCodeServerError, code)
	require.Equal(t, second, data)

	code, data, err = readResponse(r)
	require.NoError(t, err)
	require.Equal(t, RespCodeSuccess, code)
	require.Empty(t, data)

	_, _, err = readResponse(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestPayloadFraming_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResponse(&buf, RespCodeSuccess, []byte("hello world")))
	truncated := buf.Bytes()[:buf.Len()-3]

	_, _, err := readResponse(bufio.NewReader(bytes.NewReader(truncated)))
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestPayloadFraming_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(binary.AppendUvarint(nil, MaxMsgSize+1))
	_, err := readRequest(bufio.NewReader(&buf))
	require.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestStatusSSZ(t *testing.T) {
	s := &Status{
		Finalized: types.Checkpoint{Epoch: 2, Root: types.Root{1}},
		HeadRoot:  types.Root{2},
		HeadSlot:  77,
	}
	enc, err := s.MarshalSSZ()
	require.NoError(t, err)
	require.Len(t, enc, s.SizeSSZ())

	var got Status
	require.NoError(t, got.UnmarshalSSZ(enc))
	require.Equal(t, *s, got)
	require.ErrorIs(t, got.UnmarshalSSZ(enc[:79]), ssz.ErrSize)

	htr, err := s.HashTreeRoot()
	require.NoError(t, err)
	tree, err := s.GetTree()
	require.NoError(t, err)
	require.Equal(t, htr[:], tree.Hash())
}

func TestBlocksByRootRequestSSZ(t *testing.T) {
	req := &BlocksByRootRequest{Roots: []types.Root{{1}, {2}, {3}}}
	enc, err := req.MarshalSSZ()
	require.NoError(t, err)
	require.Len(t, enc, 4+3*32)

	var got BlocksByRootRequest
	require.NoError(t, got.UnmarshalSSZ(enc))
	require.Equal(t, req.Roots, got.Roots)

	// Not a whole number of roots.
	require.Error(t, got.UnmarshalSSZ(enc[:len(enc)-1]))

	htr, err := req.HashTreeRoot()
	require.NoError(t, err)
	other, err := (&BlocksByRootRequest{Roots: req.Roots[:2]}).HashTreeRoot()
	require.NoError(t, err)
	require.NotEqual(t, htr, other)

	tooMany := &BlocksByRootRequest{Roots: make([]types.Root, MaxRequestBlocks+1)}
	_, err = tooMany.MarshalSSZ()
	require.Error(t, err)
}

var (
	_ ssz.HashRoot = (*Status)(nil)
	_ ssz.HashRoot = (*BlocksByRootRequest)(nil)
)

type pipe struct {
	io.Reader
	io.Writer
}

func TestServeBlocksByRoot(t *testing.T) {
	c := newTestChain(t, 3)
	s := NewStreamHandler(nil, NewHandler(c.fc, c.store), slog.New(slog.DiscardHandler))

	req := &BlocksByRootRequest{Roots: []types.Root{c.blocks[1], {0xee}, c.blocks[3]}}
	enc, err := req.MarshalSSZ()
	require.NoError(t, err)

	var in, out bytes.Buffer
	require.NoError(t, writeRequest(&in, enc))
	s.serveBlocksByRoot(pipe{&in, &out}, "")

	blocks, err := readBlocks(bufio.NewReader(&out), len(req.Roots))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, types.Slot(1), blocks[0].Header.Slot)
	require.Equal(t, types.Slot(3), blocks[1].Header.Slot)
}

func TestServeBlocksByRoot_BadRequest(t *testing.T) {
	c := newTestChain(t, 1)
	s := NewStreamHandler(nil, NewHandler(c.fc, c.store), slog.New(slog.DiscardHandler))

	var in, out bytes.Buffer
	require.NoError(t, writeRequest(&in, []byte{1, 2}))
	s.serveBlocksByRoot(pipe{&in, &out}, "")

	blocks, err := readBlocks(bufio.NewReader(&out), 10)
	require.Error(t, err)
	require.Empty(t, blocks)
}

func TestServeStatus(t *testing.T) {
	c := newTestChain(t, 2)
	s := NewStreamHandler(nil, NewHandler(c.fc, c.store), slog.New(slog.DiscardHandler))

	peer := &Status{Finalized: types.Checkpoint{Root: c.blocks[0]}}
	enc, err := peer.MarshalSSZ()
	require.NoError(t, err)

	var in, out bytes.Buffer
	require.NoError(t, writeRequest(&in, enc))
	s.serveStatus(pipe{&in, &out}, "")

	code, data, err := readResponse(bufio.NewReader(&out))
	require.NoError(t, err)
	require.Equal(t, RespCodeSuccess, code)
	var got Status
	require.NoError(t, got.UnmarshalSSZ(data))
	require.Equal(t, c.blocks[2], got.HeadRoot)
	require.Equal(t, types.Slot(2), got.HeadSlot)
}

func TestServeStatus_ConflictingFinalized(t *testing.T) {
	c := newTestChain(t, 1)
	s := NewStreamHandler(nil, NewHandler(c.fc, c.store), slog.New(slog.DiscardHandler))

	peer := &Status{Finalized: types.Checkpoint{Root: types.Root{0x42}}}
	enc, err := peer.MarshalSSZ()
	require.NoError(t, err)

	var in, out bytes.Buffer
	require.NoError(t, writeRequest(&in, enc))
	s.serveStatus(pipe{&in, &out}, "")

	code, data, err := readResponse(bufio.NewReader(&out))
	require.NoError(t, err)
	require.Equal(t, RespCodeInvalidReq, code)
	require.Contains(t, string(data), ErrInvalidStatus.Error())
}
