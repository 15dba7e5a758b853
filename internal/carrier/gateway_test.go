package carrier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		Endpoint: "https://carrier.example.com/api/packages",
		Token:    "tok",
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}

	if err := ValidateConfig(&Config{Token: "tok"}); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
	if err := ValidateConfig(&Config{Endpoint: "https://carrier.example.com"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestCreatePackageSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"state":"success","data":{"package_id":"EXT-900","delivery_cost":5.5,"qr_code":"QR-DATA"}}`))
	}))
	defer srv.Close()

	result, err := CreatePackage(context.Background(), &Config{Endpoint: srv.URL, Token: "tok"}, CreateInput{
		ToName:    "Hadi",
		VillageID: "3",
		TotalCost: "200.00",
		Barcode:   "WSL-1001",
	})
	if err != nil {
		t.Fatalf("CreatePackage error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if result.ExternalID != "EXT-900" {
		t.Fatalf("unexpected external id: %s", result.ExternalID)
	}
	if result.DeliveryCost != "5.5" {
		t.Fatalf("unexpected delivery cost: %s", result.DeliveryCost)
	}
	if result.QRCode != "QR-DATA" {
		t.Fatalf("unexpected qr code: %s", result.QRCode)
	}
}

func TestCreatePackageSuccessMissingPackageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"state":"success","data":{"delivery_cost":"5.5"}}`))
	}))
	defer srv.Close()

	_, err := CreatePackage(context.Background(), &Config{Endpoint: srv.URL, Token: "tok"}, CreateInput{})
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got %T: %v", err, err)
	}
}

func TestCreatePackageRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":422,"state":"error","errors":{"to_phone":["phone number is invalid"],"village_id":["village not covered"]}}`))
	}))
	defer srv.Close()

	_, err := CreatePackage(context.Background(), &Config{Endpoint: srv.URL, Token: "tok"}, CreateInput{})
	rejected, ok := err.(*RejectedError)
	if !ok {
		t.Fatalf("expected RejectedError, got %T: %v", err, err)
	}
	if rejected.Code != 422 {
		t.Fatalf("unexpected code: %d", rejected.Code)
	}
	if len(rejected.Fields) != 2 {
		t.Fatalf("fields len want 2 got %d: %v", len(rejected.Fields), rejected.Fields)
	}
	if rejected.Fields[0] != "to_phone: phone number is invalid" {
		t.Fatalf("unexpected field message: %s", rejected.Fields[0])
	}
	if !strings.Contains(rejected.Error(), "village_id: village not covered") {
		t.Fatalf("error string should carry field messages: %s", rejected.Error())
	}
}

func TestCreatePackageTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("<html><body>503 Service Unavailable</body></html>"))
	}))
	defer srv.Close()

	_, err := CreatePackage(context.Background(), &Config{Endpoint: srv.URL, Token: "tok"}, CreateInput{})
	transport, ok := err.(*TransportError)
	if !ok {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if transport.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", transport.StatusCode)
	}
	if !strings.Contains(transport.Message, "temporarily unavailable") {
		t.Fatalf("unexpected message: %s", transport.Message)
	}
	if !transport.Retryable() {
		t.Fatalf("503 should be retryable")
	}
}

func TestCreatePackageUnreachable(t *testing.T) {
	_, err := CreatePackage(context.Background(), &Config{Endpoint: "http://127.0.0.1:1", Token: "tok"}, CreateInput{})
	transport, ok := err.(*TransportError)
	if !ok {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if !transport.Retryable() {
		t.Fatalf("network failure should be retryable")
	}
}

func TestTransportMessageMapping(t *testing.T) {
	cases := map[int]string{
		http.StatusServiceUnavailable:  "temporarily unavailable",
		http.StatusBadGateway:          "gateway error",
		http.StatusGatewayTimeout:      "timeout",
		http.StatusInternalServerError: "server error",
	}
	for status, want := range cases {
		if got := transportMessage(status); !strings.Contains(got, want) {
			t.Fatalf("status %d message %q should contain %q", status, got, want)
		}
	}
}
