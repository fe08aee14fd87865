package auth

import (
	"context"
	"fmt"
	"net/http"
)

// LoopbackAddr is the fixed redirect target the streamer and watcher CLIs
// listen on while completing an OAuth login (§4.4).
const LoopbackAddr = "127.0.0.1:44141"

// CaptureCode starts a one-shot HTTP server on LoopbackAddr, waits for the
// provider's redirect to hit /oauth with a `code` query parameter, replies
// with a human-friendly page, and returns the code. It shuts itself down
// as soon as one request has been served (or ctx is cancelled).
func CaptureCode(ctx context.Context) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			errCh <- fmt.Errorf("%w: provider returned error %q", ErrAuthFailed, errParam)
			http.Error(w, "Login failed. You can close this window.", http.StatusBadRequest)
			return
		}
		if code == "" {
			errCh <- fmt.Errorf("%w: redirect missing code", ErrAuthFailed)
			http.Error(w, "Login failed. You can close this window.", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "Login successful. You can close this window and return to your terminal.")
		codeCh <- code
	})

	srv := &http.Server{Addr: LoopbackAddr, Handler: mux}

	listenErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErrCh <- err
		}
	}()

	select {
	case code := <-codeCh:
		srv.Shutdown(context.Background())
		return code, nil
	case err := <-errCh:
		srv.Shutdown(context.Background())
		return "", err
	case err := <-listenErrCh:
		return "", fmt.Errorf("oauth loopback listener: %w", err)
	case <-ctx.Done():
		srv.Shutdown(context.Background())
		return "", ctx.Err()
	}
}
