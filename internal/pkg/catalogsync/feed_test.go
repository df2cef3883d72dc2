package catalogsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedClient_FetchDecodesMixedTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Categoria":"Streaming","Plataforma_Servicio":"Netflix","ID_Plan":"NF-1","Nombre_Plan":"Premium","Precio_Base":"17.99","Trial_Disponible":"Sí"},
			{"Categoria":null,"Plataforma_Servicio":"Spotify","ID_Plan":42,"Nombre_Plan":"Individual","Precio_Base":10.99,"Trial_Disponible":true}
		]`))
	}))
	defer srv.Close()

	feed, err := NewFeedClient(srv.URL, 0).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Records, 2)
	assert.NotEmpty(t, feed.Raw)

	assert.Equal(t, "Netflix", feed.Records[0].Service.String())
	assert.Equal(t, "Sí", feed.Records[0].TrialAvailable.String())
	assert.Equal(t, "", feed.Records[1].Category.String())
	assert.Equal(t, "42", feed.Records[1].PlanID.String())
	assert.Equal(t, "10.99", feed.Records[1].BasePrice.String())
	assert.Equal(t, "true", feed.Records[1].TrialAvailable.String())
}

func TestFeedClient_FetchFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantStatus: http.StatusInternalServerError},
		{name: "not found", status: http.StatusNotFound, body: `[]`, wantStatus: http.StatusNotFound},
		{name: "malformed json", status: http.StatusOK, body: `[{"ID_Plan":`, wantStatus: http.StatusOK},
		{name: "object instead of array", status: http.StatusOK, body: `{"error":"x"}`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			feed, err := NewFeedClient(srv.URL, 0).Fetch(context.Background())
			assert.Nil(t, feed)

			var terr *TransportError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.wantStatus, terr.StatusCode)
			assert.Equal(t, srv.URL, terr.URL)
		})
	}
}

func TestFeedClient_FetchRejectsOversizedFeed(t *testing.T) {
	body := `[{"ID_Plan":"NF-1","Plataforma_Servicio":"Netflix"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewFeedClient(srv.URL, 0)
	client.MaxBytes = int64(len(body) - 1)
	feed, err := client.Fetch(context.Background())
	assert.Nil(t, feed)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, terr.Error(), "feed exceeds")

	client.MaxBytes = int64(len(body))
	feed, err = client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, feed.Records, 1)
}

func TestFeedClient_FetchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFeedClient(url, 0).Fetch(context.Background())

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.StatusCode)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "9.99", want: "9.99"},
		{in: " 12 ", want: "12"},
		{in: "9.99 EUR", want: "9.99"},
		{in: "4,99", want: "4"},
		{in: "gratis", want: "0"},
		{in: "", want: "0"},
		{in: "-1.5", want: "-1.5"},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "ParsePrice(%q) = %s, want %s", tt.in, got, tt.want)
	}
}
