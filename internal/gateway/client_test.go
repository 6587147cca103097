package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":1200}`)
	})
	mux.HandleFunc("/", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := NewClient(Config{
		BaseURL:      server.URL,
		AuthURL:      server.URL + "/oauth2/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, logger)
	return server, client
}

func TestCreateSaleDecodesPaymentEnvelope(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/sales/", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req SaleRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Pix", req.Payment.Type)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"Payment":{"PaymentId":"gw-1","Status":12,"QrCodeString":"000201qr"}}`)
	})

	sale, err := client.CreateSale(context.Background(), &SaleRequest{
		MerchantOrderID: "order-1",
		Payment:         SalePayment{Type: "Pix", Amount: 15000},
	})

	assert.NoError(t, err)
	assert.Equal(t, "gw-1", sale.PaymentID)
	assert.Equal(t, 12, sale.Status)
	assert.Equal(t, "000201qr", sale.QrCodeString)
}

func TestQueryPaymentMapsNotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	details, err := client.QueryPayment(context.Background(), "missing")

	assert.Nil(t, details)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestVoidPaymentParsesSplitTransactionalError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ReasonCode":37,"ReturnCode":"318","ReturnMessage":"split failed","SplitErrors":[{"Code":"318","Message":"split failed"}]}`)
	})

	resp, err := client.VoidPayment(context.Background(), "gw-1")

	assert.Nil(t, resp)
	assert.True(t, IsSplitTransactional(err))
	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, 37, gerr.ReasonCode)
	assert.Len(t, gerr.SplitErrors, 1)
}

func TestDoParsesApiErrorArray(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `[{"Code":126,"Message":"Credit Card Number is invalid"}]`)
	})

	_, err := client.CreateSale(context.Background(), &SaleRequest{})

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "126", gerr.Code)
	assert.Equal(t, "Credit Card Number is invalid", gerr.Message)
	assert.False(t, IsSplitTransactional(err))
}

func TestAuthenticatorCollapsesConcurrentRefreshes(t *testing.T) {
	var refreshes int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshes, 1)
		time.Sleep(100 * time.Millisecond)
		fmt.Fprint(w, `{"access_token":"tok","expires_in":1200}`)
	}))
	defer server.Close()

	auth := newAuthenticator(server.URL, "id", "secret", server.Client())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := auth.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshes))

	// A later call reuses the cached token without another refresh.
	token, err := auth.Token(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshes))
}

func TestAuthenticatorSurfacesAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	auth := newAuthenticator(server.URL, "id", "wrong", server.Client())
	_, err := auth.Token(context.Background())

	var gerr *Error
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "AUTH_FAILED", gerr.Code)
}
