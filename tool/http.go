package tool

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

var (
	DefaultTimeout   = 30 * time.Second
	UploadHttpClient *http.Client
)

func init() {
	UploadHttpClient = NewHTTPClient(false)
}

// NewHTTPClient creates an HTTP client shared by fetches and submissions.
// Request deadlines come from the per-attempt context, so the client itself has no Timeout.
func NewHTTPClient(insecure bool) *http.Client {
	dialer := &net.Dialer{
		Timeout:   DefaultTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecure},
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}
	return &http.Client{
		Transport: transport,
	}
}

// InitHTTPClients (re)initializes the shared client, e.g. after the config enables insecureSkipVerify.
func InitHTTPClients(insecure bool) {
	UploadHttpClient = NewHTTPClient(insecure)
}

func GetHttpClient() *http.Client {
	return UploadHttpClient
}
