package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authservice/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent() *service.UserRegisteredEvent {
	return &service.UserRegisteredEvent{
		RequestID:    "req-1",
		UserID:       "0b6f3f0e-6a43-4d8e-9a57-1c2f5d1b8a11",
		Email:        "a@x.com",
		Role:         "ROLE_USER",
		Provider:     "LOCAL",
		RegisteredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLocalHTTPPublisher_PublishUserRegistered(t *testing.T) {
	var (
		received  PushMessage
		requestID string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		requestID = r.Header.Get("X-Request-Id")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, newDiscardLogger())
	defer publisher.Close()

	err := publisher.PublishUserRegistered(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, localSubscription, received.Subscription)
	assert.NotEmpty(t, received.Message.MessageID)
	assert.Equal(t, eventTypeUserRegistered, received.Message.Attributes[attrEventType])
	assert.Equal(t, testEvent().UserID, received.Message.Attributes[attrUserID])
	assert.Equal(t, "req-1", received.Message.Attributes[attrRequestID])

	data, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)
	var decoded service.UserRegisteredEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *testEvent(), decoded)
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, newDiscardLogger())

	err := publisher.PublishUserRegistered(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestLocalHTTPPublisher_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	publisher := NewLocalHTTPPublisher(endpoint, newDiscardLogger())

	err := publisher.PublishUserRegistered(context.Background(), testEvent())
	assert.Error(t, err)
}
