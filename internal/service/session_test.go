package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heme-genetics-advisor/internal/domain"
)

func newSession(client domain.ModelClient, mode domain.ReportMode) *Session {
	return NewSession(newTestLogger(), newInterpreter(client, InterpreterOptions{Mode: mode}))
}

func TestSession_SubmitStoresResult(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{Text: aplReply}}
	session := newSession(client, domain.ReportModeSingle)

	require.NoError(t, session.Submit(context.Background(), domain.DiseaseAPL, "PML-RARa阳性"))

	state := session.State()
	assert.Equal(t, 1, client.calls())
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.Result)
	assert.Nil(t, state.DualResult)
	assert.Equal(t, domain.ProvenanceInternal, state.Result.Source)
	assert.Equal(t, domain.DiseaseAPL, state.Disease)
	assert.Equal(t, "PML-RARa阳性", state.Findings)
}

func TestSession_BlankFindingsIgnored(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{Text: aplReply}}
	session := newSession(client, domain.ReportModeSingle)
	require.NoError(t, session.Submit(context.Background(), domain.DiseaseAPL, "PML-RARa阳性"))
	before := session.State()

	err := session.Submit(context.Background(), domain.DiseaseAML, "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Equal(t, 1, client.calls(), "blank findings must not trigger a request")
	assert.Equal(t, before, session.State())
}

func TestSession_TransportFailureShowsFallback(t *testing.T) {
	client := &fakeModelClient{err: &domain.TransportError{Provider: "fake", Err: errors.New("dial tcp: i/o timeout")}}
	session := newSession(client, domain.ReportModeSingle)

	err := session.Submit(context.Background(), domain.DiseaseAML, "FLT3-ITD")
	require.Error(t, err)

	state := session.State()
	assert.Equal(t, domain.FallbackMessage, state.Error)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Result)
	assert.Nil(t, state.DualResult)
}

func TestSession_SuccessClearsPreviousError(t *testing.T) {
	client := &fakeModelClient{err: errors.New("offline")}
	session := newSession(client, domain.ReportModeSingle)
	require.Error(t, session.Submit(context.Background(), domain.DiseaseAPL, "PML-RARa"))
	require.NotEmpty(t, session.State().Error)

	client.err = nil
	client.resp = &domain.ModelResponse{Text: aplReply}
	require.NoError(t, session.Submit(context.Background(), domain.DiseaseAPL, "PML-RARa"))

	state := session.State()
	assert.Empty(t, state.Error)
	assert.NotNil(t, state.Result)
}

func TestSession_RejectsConcurrentSubmission(t *testing.T) {
	client := &fakeModelClient{
		resp:    &domain.ModelResponse{Text: aplReply},
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	session := newSession(client, domain.ReportModeSingle)

	done := make(chan error, 1)
	go func() {
		done <- session.Submit(context.Background(), domain.DiseaseAPL, "PML-RARa")
	}()
	<-client.started

	state := session.State()
	assert.True(t, state.Loading)
	assert.Nil(t, state.Result)

	err := session.Submit(context.Background(), domain.DiseaseAPL, "PML-RARa")
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	close(client.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, client.calls())
	assert.False(t, session.State().Loading)
}

func TestSession_DualMode(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{Text: dualNotListedReply}}
	session := newSession(client, domain.ReportModeDual)

	require.NoError(t, session.Submit(context.Background(), domain.DiseaseAML, "NUP98::NSD1"))

	state := session.State()
	assert.Nil(t, state.Result)
	require.NotNil(t, state.DualResult)
	assert.Equal(t, domain.ProvenanceExternal, state.DualResult.Source)
}
