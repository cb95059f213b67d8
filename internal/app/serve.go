package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/artifact"
	"github.com/blackwell-systems/assay/internal/metrics"
	"github.com/blackwell-systems/assay/internal/output"
)

var serveFlagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream live sessions and serve artifacts over HTTP",
	Long: `Run the HTTP server. It exposes:

  GET /sessions/{id}/events          live event stream (SSE); resume with
                                     Last-Event-ID or ?since=<seq>
  GET /artifacts/{owner}/{checksum}  artifact content, signed URLs only
  GET /metrics                       Prometheus metrics
  GET /healthz                       liveness check`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	addr := serveFlagAddr
	if addr == "" {
		addr = rt.cfg.ServeAddr
	}

	broadcaster := rt.broadcaster()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/{id}/events", broadcaster.SSEHandler())
	mux.HandleFunc("GET /artifacts/{owner}/{checksum}", artifactHandler(rt))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Printf(" %s listening on %s\n", output.StyleSuccess.Render("assay"), output.StyleBold.Render(addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// artifactHandler serves decompressed artifact content for valid signed
// URLs. Expired or forged signatures get 403; the handler never reveals
// whether the object exists until the signature checks out.
func artifactHandler(rt *runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.PathValue("owner")
		checksum := r.PathValue("checksum")
		expires := r.URL.Query().Get("expires")
		sig := r.URL.Query().Get("sig")

		if !rt.backend.Verify(owner, checksum, expires, sig) {
			http.Error(w, "invalid or expired signature", http.StatusForbidden)
			return
		}

		content, err := rt.artifacts.Retrieve(r.Context(), owner, checksum)
		if err != nil {
			if errors.Is(err, artifact.ErrNotFound) {
				http.Error(w, "artifact not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Cache-Control", "private, max-age=60")
		_, _ = w.Write(content)
	}
}
