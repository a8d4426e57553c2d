package receipt

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/ledger"
)

// Book is the ledger surface exposed over HTTP
type Book interface {
	Parties() ledger.Parties
	State(ctx context.Context) (*ledger.Document, error)
	AddDebt(ctx context.Context, party string, amount decimal.Decimal) (*ledger.DebtEntry, error)
	DeleteDebt(ctx context.Context, party string, index int) (bool, error)
	Settle(ctx context.Context, party string) (*ledger.HistoryEntry, error)
	History(ctx context.Context) ([]ledger.HistoryEntry, error)
}

// Server handles HTTP requests for receipts and the ledger
type Server struct {
	service   *Service
	book      Book
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, book Book, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, book, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, book Book, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		book:      book,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	return ok && user == s.basicAuth.Username && pass == s.basicAuth.Password
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Split"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	// Receipt sessions
	s.mux.HandleFunc("POST /api/receipts/text", s.requireAuth(s.handleParseText))
	s.mux.HandleFunc("PUT /api/receipts/{id}/items/{index}/selected", s.requireAuth(s.handleSetSelected))
	s.mux.HandleFunc("PUT /api/receipts/{id}/items/{index}/fraction", s.requireAuth(s.handleSetFraction))
	s.mux.HandleFunc("POST /api/receipts/{id}/confirm", s.requireAuth(s.handleConfirm))
	s.mux.HandleFunc("GET /api/receipts/{id}/image", s.requireAuth(s.handleGetReceiptImage))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetReceipt))
	s.mux.HandleFunc("POST /api/receipts", s.requireAuth(s.handleUploadReceipt))

	// Shared ledger
	s.mux.HandleFunc("GET /api/ledger", s.requireAuth(s.handleGetLedger))
	s.mux.HandleFunc("POST /api/ledger/{party}/debts", s.requireAuth(s.handleAddDebt))
	s.mux.HandleFunc("DELETE /api/ledger/{party}/debts/{index}", s.requireAuth(s.handleDeleteDebt))
	s.mux.HandleFunc("POST /api/ledger/{party}/settle", s.requireAuth(s.handleSettle))
	s.mux.HandleFunc("GET /api/history", s.requireAuth(s.handleListHistory))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.corsMiddleware(s.mux))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
