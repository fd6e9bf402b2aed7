package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/retail-assistant/server/internal/core/error"
)

func TestTranscribe(t *testing.T) {
	var gotModel, gotFile string
	var gotAudio []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		gotFile = hdr.Filename
		gotAudio, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  where is my order  "}`))
	}))
	defer srv.Close()

	tr := New(Config{APIKey: "key", BaseURL: srv.URL})
	text, err := tr.Transcribe(context.Background(), []byte("RIFF"), "")
	require.NoError(t, err)

	assert.Equal(t, "where is my order", text)
	assert.Equal(t, DefaultModel, gotModel)
	assert.Equal(t, DefaultFilename, gotFile)
	assert.Equal(t, []byte("RIFF"), gotAudio)
}

func TestTranscribeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"down"}}`))
	}))
	defer srv.Close()

	_, err := New(Config{APIKey: "key", BaseURL: srv.URL}).Transcribe(context.Background(), []byte("x"), "a.wav")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
}

func TestTranscriberDisabledAndEmptyAudio(t *testing.T) {
	var tr *Transcriber = New(Config{})
	assert.Nil(t, tr)

	_, err := tr.Transcribe(context.Background(), []byte("x"), "")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, http.StatusServiceUnavailable, errx.StatusOf(err))

	_, err = New(Config{APIKey: "key"}).Transcribe(context.Background(), nil, "")
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
}
