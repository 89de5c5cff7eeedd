// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zabbix

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

var (
	ErrSend = errors.New("sending samples")

	errBadResponse = errors.New("malformed trapper response")
	errRejected    = errors.New("server rejected submission")
)

// protocolMagic is the trapper frame header: magic, protocol version, then a
// little-endian uint64 body length.
var protocolMagic = []byte{'Z', 'B', 'X', 'D', 0x01}

const headerLen = 13

// maxResponseLen bounds the response body we are willing to read; the
// server's answer is a one-line status object.
const maxResponseLen = 16 * 1024

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewSender returns a Sender submitting batches to the trapper port at addr
// (host:port).
func NewSender(addr string) *Sender {
	return &Sender{addr: addr}
}

// Sender submits batched samples over the trapper protocol. One connection
// per submission; no retry.
type Sender struct {
	addr string
}

// Result is the server's accounting of one submission.
type Result struct {
	Response string `json:"response"`
	Info     string `json:"info"`
}

// --------------------------------------------- Send --------------------------------------------------------------- //

type senderRequest struct {
	Request string       `json:"request"`
	Data    []senderItem `json:"data"`
}

type senderItem struct {
	Host  string `json:"host"`
	Key   string `json:"key"`
	Value string `json:"value"`
	Clock int64  `json:"clock,omitempty"`
}

// Send frames the samples as one "sender data" request and returns the
// server's accounting. A response other than "success" is an error.
func (s *Sender) Send(ctx context.Context, samples []types.Sample) (Result, error) {
	body, err := marshalRequest(samples)
	if err != nil {
		return Result{}, errors.Join(err, ErrSend)
	}

	dialer := net.Dialer{}

	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return Result{}, errors.Join(err, ErrSend)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(Frame(body)); err != nil {
		return Result{}, errors.Join(err, ErrSend)
	}

	result, err := readResponse(conn)
	if err != nil {
		return Result{}, errors.Join(err, ErrSend)
	}

	if result.Response != "success" {
		return result, fmt.Errorf("%w: %s", errRejected, result.Info)
	}

	return result, nil
}

// Frame wraps a request body in the trapper protocol header.
func Frame(body []byte) []byte {
	framed := make([]byte, 0, headerLen+len(body))
	framed = append(framed, protocolMagic...)
	framed = binary.LittleEndian.AppendUint64(framed, uint64(len(body)))

	return append(framed, body...)
}

func marshalRequest(samples []types.Sample) ([]byte, error) {
	items := make([]senderItem, 0, len(samples))

	for _, sample := range samples {
		items = append(items, senderItem{
			Host:  sample.Host,
			Key:   sample.Key,
			Value: sample.Value,
			Clock: sample.Clock,
		})
	}

	return json.Marshal(senderRequest{Request: "sender data", Data: items})
}

func readResponse(conn io.Reader) (Result, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(conn, header); err != nil {
		return Result{}, errors.Join(err, errBadResponse)
	}

	for i, b := range protocolMagic {
		if header[i] != b {
			return Result{}, fmt.Errorf("%w: bad magic", errBadResponse)
		}
	}

	bodyLen := binary.LittleEndian.Uint64(header[5:])
	if bodyLen > maxResponseLen {
		return Result{}, fmt.Errorf("%w: oversized body (%d bytes)", errBadResponse, bodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(conn, body); err != nil {
		return Result{}, errors.Join(err, errBadResponse)
	}

	result := Result{}
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, errors.Join(err, errBadResponse)
	}

	return result, nil
}
