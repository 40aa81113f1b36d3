package network_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anecdotario/photo-services/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueue(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := network.NewNSQClient(server.URL)
	err := client.Enqueue("photo_retention", []byte("hello"))
	require.Nil(t, err)
	assert.Equal(t, "/pub", gotPath)
	assert.Equal(t, "topic=photo_retention", gotQuery)
	assert.Equal(t, "hello", gotBody)
}

func TestEnqueueJSON(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := network.NewNSQClient(server.URL)
	payload := map[string]string{"entity_type": "user", "entity_id": "alice"}
	err := client.EnqueueJSON("photo_retention", payload)
	require.Nil(t, err)
	assert.JSONEq(t, `{"entity_type":"user","entity_id":"alice"}`, gotBody)
}

func TestEnqueueServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "TOPIC_NOT_FOUND", http.StatusNotFound)
	}))
	defer server.Close()

	client := network.NewNSQClient(server.URL)
	err := client.Enqueue("nope", []byte("hello"))
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "TOPIC_NOT_FOUND")
}

func TestEnqueueUnreachable(t *testing.T) {
	client := network.NewNSQClient("http://127.0.0.1:1")
	err := client.Enqueue("photo_retention", []byte("hello"))
	assert.NotNil(t, err)
}
