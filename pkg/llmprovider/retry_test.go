// Copyright 2025 The Codur Authors
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

package llmprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withoutSleep(t *testing.T) {
	t.Helper()
	orig := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = orig })
}

func TestInvokeWithFallbackSucceedsOnDefaultProfile(t *testing.T) {
	withoutSleep(t)
	reg := NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", NewStubProvider("default", Response{Content: "ok"})))

	resp, used, err := InvokeWithFallback(context.Background(), reg, "default", nil, Request{})
	require.NoError(t, err)
	require.Equal(t, "default", used)
	require.Equal(t, "ok", resp.Content)
}

func TestInvokeWithFallbackRetriesTransientThenSucceeds(t *testing.T) {
	withoutSleep(t)
	reg := NewRegistry()
	seq := NewSequenceProvider("flaky", []Response{{}, {}, {Content: "recovered"}})
	seq.Errs = []error{&TransientError{Err: errors.New("conn reset")}, &TransientError{Err: errors.New("conn reset")}, nil}
	require.NoError(t, reg.RegisterProvider("default", seq))

	resp, _, err := InvokeWithFallback(context.Background(), reg, "default", nil, Request{})
	require.NoError(t, err)
	require.Equal(t, "recovered", resp.Content)
	require.Equal(t, 3, seq.calls)
}

func TestInvokeWithFallbackFallsBackOnExhaustedRetries(t *testing.T) {
	withoutSleep(t)
	failing := NewStubProvider("default", Response{})
	failing.Err = &TransientError{Err: errors.New("down")}
	reg := NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", failing))
	require.NoError(t, reg.RegisterProvider("fallback", NewStubProvider("fallback", Response{Content: "from fallback"})))

	resp, used, err := InvokeWithFallback(context.Background(), reg, "default", []string{"fallback"}, Request{})
	require.NoError(t, err)
	require.Equal(t, "fallback", used)
	require.Equal(t, "from fallback", resp.Content)
}

func TestInvokeWithFallbackSurfacesNonTransientImmediately(t *testing.T) {
	withoutSleep(t)
	reg := NewRegistry()
	failing := NewStubProvider("default", Response{})
	failing.Err = errors.New("bad request")
	require.NoError(t, reg.RegisterProvider("default", failing))
	require.NoError(t, reg.RegisterProvider("fallback", NewStubProvider("fallback", Response{Content: "unused"})))

	_, _, err := InvokeWithFallback(context.Background(), reg, "default", []string{"fallback"}, Request{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad request")
}

func TestInvokeWithFallbackAllProfilesExhausted(t *testing.T) {
	withoutSleep(t)
	reg := NewRegistry()
	a := NewStubProvider("a", Response{})
	a.Err = &TransientError{Err: errors.New("down")}
	b := NewStubProvider("b", Response{})
	b.Err = &TransientError{Err: errors.New("down")}
	require.NoError(t, reg.RegisterProvider("a", a))
	require.NoError(t, reg.RegisterProvider("b", b))

	_, _, err := InvokeWithFallback(context.Background(), reg, "a", []string{"b"}, Request{})
	require.Error(t, err)
}
