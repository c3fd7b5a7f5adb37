package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/pipeline"
	"github.com/sells-group/underwriting-cli/internal/store"
)

// minEmailLength rejects request bodies too short to be a broker email.
const minEmailLength = 50

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for quote requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initQuoteEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Pipeline, env.Store),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// quoteProcessor is the part of the pipeline the HTTP layer needs.
type quoteProcessor interface {
	Process(ctx context.Context, emailContent string) *model.PipelineResult
}

// quoteRequest is the POST /api/quotes body.
type quoteRequest struct {
	EmailContent string `json:"email_content"`
}

// quoteResponse is the condensed pipeline result returned after processing.
type quoteResponse struct {
	Success          bool                        `json:"success"`
	QuoteID          string                      `json:"quote_id,omitempty"`
	ClientName       string                      `json:"client_name,omitempty"`
	TotalPremium     *float64                    `json:"total_premium,omitempty"`
	PremiumBreakdown []model.QuotePremiumSummary `json:"premium_breakdown,omitempty"`
	RiskLevel        string                      `json:"risk_level,omitempty"`
	RiskScore        *float64                    `json:"risk_score,omitempty"`
	Recommendation   string                      `json:"recommendation,omitempty"`
	RequiresApproval bool                        `json:"requires_approval"`
	ApprovalReason   string                      `json:"approval_reason,omitempty"`
	QuoteLetter      string                      `json:"quote_letter,omitempty"`
	ProcessingTime   *float64                    `json:"processing_time_seconds,omitempty"`
	Warnings         []string                    `json:"warnings,omitempty"`
	Errors           []string                    `json:"errors,omitempty"`
}

func newRouter(pipe quoteProcessor, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": pipeline.Version,
		})
	})

	r.Post("/api/quotes", func(w http.ResponseWriter, req *http.Request) {
		var body quoteRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.EmailContent) < minEmailLength {
			writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("email_content must be at least %d characters", minEmailLength))
			return
		}

		result := pipe.Process(req.Context(), body.EmailContent)
		writeJSON(w, http.StatusOK, buildQuoteResponse(result))
	})

	r.Get("/api/quotes/{quoteID}", func(w http.ResponseWriter, req *http.Request) {
		quoteID := chi.URLParam(req, "quoteID")

		result, err := st.GetResult(req.Context(), quoteID)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeJSONError(w, http.StatusNotFound, fmt.Sprintf("quote %s not found", quoteID))
				return
			}
			zap.L().Error("get quote failed", zap.String("quote_id", quoteID), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return r
}

// buildQuoteResponse condenses a pipeline result into the API response shape.
// Failed runs keep only errors and warnings.
func buildQuoteResponse(result *model.PipelineResult) quoteResponse {
	resp := quoteResponse{
		Success:  result.Success,
		Warnings: result.Warnings,
		Errors:   result.Errors,
	}
	if !result.Success {
		return resp
	}

	resp.QuoteID = result.QuoteID
	if result.ClientProfile != nil {
		resp.ClientName = result.ClientProfile.ClientName
	}
	if result.ModifierResult != nil {
		premium := result.ModifierResult.AdjustedPremium
		resp.TotalPremium = &premium
	}
	if result.GeneratedQuote != nil {
		resp.PremiumBreakdown = result.GeneratedQuote.PremiumSummary
		resp.QuoteLetter = result.GeneratedQuote.QuoteLetter
	}
	if result.RiskAssessment != nil {
		resp.RiskLevel = string(result.RiskAssessment.OverallRiskLevel)
		score := result.RiskAssessment.RiskScore
		resp.RiskScore = &score
		resp.Recommendation = string(result.RiskAssessment.Recommendation)
	}
	if result.AuthorityCheck != nil {
		resp.RequiresApproval = result.AuthorityCheck.RequiresApproval
		resp.ApprovalReason = result.AuthorityCheck.ApprovalReason
	}
	if result.Metrics != nil {
		secs := result.Metrics.TotalDurationSeconds
		resp.ProcessingTime = &secs
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
