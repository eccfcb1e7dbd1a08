package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aorify/internal/model"
	"aorify/internal/notice"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &out, &errOut
}

func TestReport_Success(t *testing.T) {
	out, errOut := captureOutput(t)

	require.NoError(t, report(nil, notice.PostSaved))
	assert.Equal(t, notice.PostSaved.String()+"\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestReport_FailureIsMarkedReported(t *testing.T) {
	out, errOut := captureOutput(t)
	cause := &model.RemoteError{Code: 429, Type: model.TypeRateLimitExceeded, Message: model.MsgRateLimit}

	err := report(cause, notice.SignedIn)
	require.Error(t, err)
	assert.ErrorIs(t, err, errReported)
	assert.ErrorIs(t, err, model.ErrRateLimit)

	assert.Empty(t, out.String())
	assert.Equal(t, notice.RateLimited.String()+"\n", errOut.String())
}

func TestPrintPosts_Failure(t *testing.T) {
	_, errOut := captureOutput(t)

	err := printPosts(nil, errors.New("boom"))
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "Error boom\n", errOut.String())
}

func TestDispatch_UsageErrorsAreNotReported(t *testing.T) {
	a := &app{}
	err := a.dispatch(context.Background(), "search", nil)
	assert.ErrorIs(t, err, errUsage)
	assert.NotErrorIs(t, err, errReported)

	err = a.dispatch(context.Background(), "bogus", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
}
