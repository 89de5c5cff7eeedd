/*
Copyright 2024 Alexandre Mahdhaoui

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//go:build unit

package zabbix_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/virtzab/internal/driver/zabbix"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

func TestFrame(t *testing.T) {
	framed := zabbix.Frame([]byte(`{"request":"sender data"}`))

	assert.Equal(t, []byte{'Z', 'B', 'X', 'D', 0x01}, framed[:5])
	assert.Equal(t, uint64(25), binary.LittleEndian.Uint64(framed[5:13]))
	assert.Equal(t, `{"request":"sender data"}`, string(framed[13:]))
}

// trapperStub accepts one connection, captures the request body, and answers
// with the given response object.
func trapperStub(t *testing.T, response string) (addr string, body <-chan []byte) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	bodyCh := make(chan []byte, 1)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		header := make([]byte, 13)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}

		request := make([]byte, binary.LittleEndian.Uint64(header[5:]))
		if _, err := io.ReadFull(conn, request); err != nil {
			return
		}

		bodyCh <- request
		_, _ = conn.Write(zabbix.Frame([]byte(response)))
	}()

	return listener.Addr().String(), bodyCh
}

func TestSend(t *testing.T) {
	addr, body := trapperStub(t, `{"response":"success","info":"processed: 2; failed: 0"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := zabbix.NewSender(addr).Send(ctx, []types.Sample{
		{Host: "uuid-1", Key: "libvirt.cpu[cpu_time]", Value: "42", Clock: 1700000000},
		{Host: "uuid-1", Key: "libvirt.memory[free]", Value: "1024", Clock: 1700000000},
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Response)
	assert.Equal(t, "processed: 2; failed: 0", result.Info)

	request := struct {
		Request string `json:"request"`
		Data    []struct {
			Host  string `json:"host"`
			Key   string `json:"key"`
			Value string `json:"value"`
			Clock int64  `json:"clock"`
		} `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(<-body, &request))

	assert.Equal(t, "sender data", request.Request)
	require.Len(t, request.Data, 2)
	assert.Equal(t, "libvirt.cpu[cpu_time]", request.Data[0].Key)
	assert.Equal(t, "42", request.Data[0].Value)
	assert.Equal(t, int64(1700000000), request.Data[0].Clock)
}

func TestSendRejected(t *testing.T) {
	addr, _ := trapperStub(t, `{"response":"failed","info":"invalid header"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := zabbix.NewSender(addr).Send(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, "failed", result.Response)
}

func TestSendConnectionRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := zabbix.NewSender("127.0.0.1:1").Send(ctx, nil)
	require.ErrorIs(t, err, zabbix.ErrSend)
}
