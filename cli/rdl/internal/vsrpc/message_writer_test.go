// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vsrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	messages  []ProgressMessage
	completed int
	err       error
}

func (o *recordingObserver) OnNext(ctx context.Context, value ProgressMessage) error {
	if o.err != nil {
		return o.err
	}

	o.messages = append(o.messages, value)
	return nil
}

func (o *recordingObserver) OnCompleted(ctx context.Context) error {
	o.completed++
	return nil
}

func TestLineWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lw := &lineWriter{next: &buf}

	n, err := lw.Write([]byte("first line\nsecond "))
	require.NoError(t, err)
	require.Equal(t, 18, n)
	require.Equal(t, "first line\n", buf.String())

	_, err = lw.Write([]byte("line\nrest"))
	require.NoError(t, err)
	require.Equal(t, "first line\nsecond line\n", buf.String())

	require.NoError(t, lw.Flush(context.Background()))
	require.Equal(t, "first line\nsecond line\nrest", buf.String())

	// Nothing left to flush.
	require.NoError(t, lw.Flush(context.Background()))
	require.Equal(t, "first line\nsecond line\nrest", buf.String())
}

func TestProgressWriter(t *testing.T) {
	t.Parallel()

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	observer := &recordingObserver{}
	w := progressWriter(context.Background(), observer, clk)

	fmt.Fprintf(w, "Launching '%s' on '%s'\n", "/opt/app/server", "build-box")
	clk.Add(2 * time.Second)
	fmt.Fprint(w, "partial")

	require.Len(t, observer.messages, 1)
	require.NoError(t, w.Flush(context.Background()))
	require.Len(t, observer.messages, 2)

	require.Equal(t, "Launching '/opt/app/server' on 'build-box'", observer.messages[0].Message)
	require.Equal(t, Important, observer.messages[0].Kind)
	require.Equal(t, Info, observer.messages[0].Severity)
	require.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), observer.messages[0].Time)

	require.Equal(t, "partial", observer.messages[1].Message)
	require.Equal(t, time.Date(2024, 3, 1, 10, 0, 2, 0, time.UTC), observer.messages[1].Time)
}

func TestProgressWriterNoObserver(t *testing.T) {
	t.Parallel()

	w := progressWriter(context.Background(), nil, clock.New())
	_, err := fmt.Fprintln(w, "dropped")
	require.NoError(t, err)
	require.NoError(t, w.Flush(context.Background()))
}

func TestProgressWriterObserverError(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{err: errors.New("connection closed")}
	w := progressWriter(context.Background(), observer, clock.NewMock())

	_, err := w.Write([]byte("a\nb\n"))
	require.ErrorContains(t, err, "connection closed")
}
