package google

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

const (
	// DefaultCallbackPort is the fixed local port the OAuth redirect targets.
	DefaultCallbackPort = 3000

	// CallbackPath is the redirect path served by the callback listener.
	CallbackPath = "/oauth2callback"

	callbackShutdownTimeout = 2 * time.Second
)

const (
	callbackSuccessPage = `<html><body><h1>Authentication successful</h1><p>You can close this window and return to the terminal.</p></body></html>`
	callbackFailurePage = `<html><body><h1>Authentication failed</h1><p>%s</p></body></html>`
)

type callbackResult struct {
	code string
	err  error
}

// awaitCallback serves ln until the first request on CallbackPath arrives,
// answers it and closes the listener together with any open connection.
// It returns the authorization code carried by that request.
func awaitCallback(ctx context.Context, ln net.Listener, state string, logger *slog.Logger) (string, error) {
	results := make(chan callbackResult, 1)
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		handled := false
		once.Do(func() {
			handled = true
			res := parseCallback(r, state)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if res.err != nil {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = fmt.Fprintf(w, callbackFailurePage, html.EscapeString(res.err.Error()))
			} else {
				_, _ = w.Write([]byte(callbackSuccessPage))
			}
			results <- res
		})
		if !handled {
			http.Error(w, "authorization already handled", http.StatusGone)
		}
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Debug("callback listener shutdown", "error", err)
		}
		_ = srv.Close()
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case err := <-serveErr:
		return "", &AuthFlowError{Reason: "callback listener stopped", Err: err}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &AuthFlowError{Reason: "timed out waiting for the browser callback", Err: ctx.Err()}
		}
		return "", &AuthFlowError{Reason: "login cancelled", Err: ctx.Err()}
	}
}

func parseCallback(r *http.Request, state string) callbackResult {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return callbackResult{err: &AuthFlowError{Reason: "provider returned " + e}}
	}
	if q.Get("state") != state {
		return callbackResult{err: &AuthFlowError{Reason: "state mismatch in callback"}}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: &AuthFlowError{Reason: "no authorization code in callback"}}
	}
	return callbackResult{code: code}
}

// openBrowser starts the platform's URL handler without waiting for it.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
