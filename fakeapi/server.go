// Package fakeapi is an in-process warehouse backend used by the demo command
// and the end-to-end tests. It speaks the same wire contract as the real
// service: the /api/Auth and /api/OTP endpoints, the /odata entity sets with
// the $top/$skip/$filter/$count subset the console sends, and /odata/$batch.
package fakeapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	_ "github.com/mattn/go-sqlite3"
)

// Server holds the fake backend's database and router.
type Server struct {
	db        *sql.DB
	router    *mux.Router
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// New opens (or creates) the backing SQLite database at dbPath and builds the
// router. Pass ":memory:" for a throwaway in-memory instance.
func New(dbPath string) (*Server, error) {
	// Connection parameters to better handle concurrency.
	dsn := dbPath + "?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Minute * 5)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		jwtSecret: []byte("fakeapi-signing-secret"),
		tokenTTL:  time.Hour,
		now:       time.Now,
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding: %w", err)
	}

	s.router = mux.NewRouter()
	s.registerRoutes(s.router)
	return s, nil
}

// Router returns the HTTP handler serving the fake backend.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) createTables() error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL,
		display_name TEXT NOT NULL,
		role INTEGER NOT NULL,
		disabled BOOLEAN NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(createUsersTable); err != nil {
		return err
	}

	createResourcesTable := `
	CREATE TABLE IF NOT EXISTS resources (
		set_name TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (set_name, id)
	);
	`
	if _, err := s.db.Exec(createResourcesTable); err != nil {
		return err
	}

	createOTPTable := `
	CREATE TABLE IF NOT EXISTS otps (
		email TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		expires DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(createOTPTable)
	return err
}

// registerRoutes sets up the auth surface and the OData surface. The OData
// routes sit behind the bearer-token middleware; the auth routes are public
// except for the password change.
func (s *Server) registerRoutes(r *mux.Router) {
	r.Use(enableCORS)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/api/Auth/Login", s.handleLogin).Methods("POST")
	r.HandleFunc("/api/Auth/GoogleSignIn", s.handleGoogleSignIn).Methods("POST")
	r.HandleFunc("/api/Auth/Signup", s.handleSignup).Methods("POST")
	r.HandleFunc("/api/Auth/VerifyOTP", s.handleVerifyOTP).Methods("POST")
	r.HandleFunc("/api/Auth/OTPLogin", s.handleOTPLogin).Methods("POST")
	r.HandleFunc("/api/Auth/ForgetPassWord", s.handleForgetPassword).Methods("POST")
	r.HandleFunc("/api/OTP/SendOTP", s.handleSendOTP).Methods("POST")

	protected := r.PathPrefix("").Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("/api/Auth/ChangePassWord", s.handleChangePassword).Methods("PUT")
	protected.HandleFunc("/odata/$batch", s.handleBatch).Methods("POST")
	protected.HandleFunc("/odata/{set}", s.handleList).Methods("GET")
	protected.HandleFunc("/odata/{set}", s.handleCreate).Methods("POST")
	protected.HandleFunc("/odata/{set}/{id}", s.handleGet).Methods("GET")
	protected.HandleFunc("/odata/{set}/{id}", s.handleUpdate).Methods("PUT")
	protected.HandleFunc("/odata/{set}/{id}", s.handleDelete).Methods("DELETE")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
