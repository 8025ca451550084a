package fakeapi

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/mylpd15/inventory-console/form"
	"github.com/mylpd15/inventory-console/models"
)

type contextKey string

const userIDKey contextKey = "user_id"

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeFieldErrors(w http.ResponseWriter, errs form.Errors) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"title":  "One or more validation errors occurred.",
		"errors": errs,
	})
}

func (s *Server) issueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": jwt.NewNumericDate(s.now().Add(s.tokenTTL)),
		"iat": jwt.NewNumericDate(s.now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *Server) verifyToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token missing subject")
	}
	return sub, nil
}

// authMiddleware verifies the bearer token and stashes the account id in the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) != 2 {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}
		userID, err := s.verifyToken(parts[1])
		if err != nil {
			log.Printf("Error verifying token: %v", err)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) userByID(id string) (models.AppUser, string, error) {
	var u models.AppUser
	var hash string
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, email, display_name, role, disabled FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Username, &hash, &u.Email, &u.DisplayName, &u.UserRole, &u.IsDisabled)
	return u, hash, err
}

func (s *Server) userByUsername(username string) (models.AppUser, string, error) {
	var u models.AppUser
	var hash string
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, email, display_name, role, disabled FROM users WHERE username = ?", username,
	).Scan(&u.ID, &u.Username, &hash, &u.Email, &u.DisplayName, &u.UserRole, &u.IsDisabled)
	return u, hash, err
}

func (s *Server) userByEmail(email string) (models.AppUser, error) {
	var u models.AppUser
	err := s.db.QueryRow(
		"SELECT id, username, email, display_name, role, disabled FROM users WHERE email = ?", email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.UserRole, &u.IsDisabled)
	return u, err
}

func (s *Server) loginResponse(w http.ResponseWriter, user models.AppUser) {
	token, err := s.issueToken(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	var resp models.LoginResponse
	resp.AccessToken.AccessToken = token
	resp.AppUser = user
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var cred models.UserCredential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	user, hash, err := s.userByUsername(cred.Username)
	if err != nil || hash != hashPassword(cred.Password) {
		writeMessage(w, http.StatusBadRequest, "Invalid username or password")
		return
	}
	if user.IsDisabled {
		writeMessage(w, http.StatusBadRequest, "This account has been disabled")
		return
	}
	s.loginResponse(w, user)
}

// handleGoogleSignIn accepts any well-formed ID token and trusts its email
// and name claims. Real signature verification is the production backend's
// job, not the fake's.
func (s *Server) handleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var payload models.GoogleSignIn
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(payload.IDToken, claims); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid Google ID token")
		return
	}
	email, _ := claims["email"].(string)
	if email == "" {
		writeMessage(w, http.StatusBadRequest, "ID token is missing the email claim")
		return
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = email
	}

	user, err := s.userByEmail(email)
	if errors.Is(err, sql.ErrNoRows) {
		role := payload.UserRole
		if role == 0 {
			role = models.RoleSalesStaff
		}
		user = models.AppUser{
			ID:          uuid.NewString(),
			Username:    strings.SplitN(email, "@", 2)[0],
			Email:       email,
			DisplayName: name,
			UserRole:    role,
		}
		_, err = s.db.Exec(
			"INSERT INTO users (id, username, password_hash, email, display_name, role, disabled) VALUES (?, ?, ?, ?, ?, ?, 0)",
			user.ID, user.Username, hashPassword(uuid.NewString()), user.Email, user.DisplayName, user.UserRole)
		if err == nil {
			err = s.upsertUserDoc(user)
		}
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user.IsDisabled {
		writeMessage(w, http.StatusBadRequest, "This account has been disabled")
		return
	}
	s.loginResponse(w, user)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var dto models.CreateUser
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	errs := form.Errors{}
	form.Username(errs, "Username", dto.Username)
	form.Email(errs, "Email", dto.Email)
	form.Password(errs, "Password", dto.Password)
	form.Required(errs, "DisplayName", dto.DisplayName)
	if !errs.OK() {
		writeFieldErrors(w, errs)
		return
	}

	if _, _, err := s.userByUsername(dto.Username); err == nil {
		writeMessage(w, http.StatusBadRequest, "Username is already taken")
		return
	}

	role := dto.UserRole
	if role == 0 {
		role = models.RoleSalesStaff
	}
	user := models.AppUser{
		ID:          uuid.NewString(),
		Username:    dto.Username,
		Email:       dto.Email,
		DisplayName: dto.DisplayName,
		UserRole:    role,
	}
	_, err := s.db.Exec(
		"INSERT INTO users (id, username, password_hash, email, display_name, role, disabled) VALUES (?, ?, ?, ?, ?, ?, 0)",
		user.ID, user.Username, hashPassword(dto.Password), user.Email, user.DisplayName, user.UserRole)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.upsertUserDoc(user); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.loginResponse(w, user)
}

func (s *Server) issueOTP(email string) (models.AppUser, error) {
	user, err := s.userByEmail(email)
	if err != nil {
		return user, err
	}
	// Six digits from a v4 UUID's node bytes.
	raw := uuid.New()
	code := fmt.Sprintf("%06d", (int(raw[10])<<16|int(raw[11])<<8|int(raw[12]))%1000000)
	expires := s.now().Add(5 * time.Minute)
	_, err = s.db.Exec(
		"INSERT INTO otps (email, code, expires) VALUES (?, ?, ?) ON CONFLICT(email) DO UPDATE SET code = excluded.code, expires = excluded.expires",
		email, code, expires)
	if err != nil {
		return user, err
	}
	// The real backend mails the code; the fake logs it instead.
	log.Printf("OTP for %s: %s", email, code)
	return user, nil
}

func (s *Server) checkOTP(email, code string) error {
	var stored string
	var expires time.Time
	err := s.db.QueryRow("SELECT code, expires FROM otps WHERE email = ?", email).Scan(&stored, &expires)
	if err != nil {
		return errors.New("No OTP was requested for this email")
	}
	if s.now().After(expires) {
		return errors.New("The OTP has expired")
	}
	if stored != code {
		return errors.New("Invalid OTP")
	}
	return nil
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var dto models.SendOTP
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.issueOTP(dto.Email)
	if errors.Is(err, sql.ErrNoRows) {
		writeMessage(w, http.StatusBadRequest, "No account exists for this email")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var dto models.VerifyOTP
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.checkOTP(dto.Email, dto.OTP); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified")
}

func (s *Server) handleOTPLogin(w http.ResponseWriter, r *http.Request) {
	var dto models.VerifyOTP
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.checkOTP(dto.Email, dto.OTP); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.userByEmail(dto.Email)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No account exists for this email")
		return
	}
	// A code is single-use.
	if _, err := s.db.Exec("DELETE FROM otps WHERE email = ?", dto.Email); err != nil {
		log.Printf("Warning: failed to consume OTP: %v", err)
	}
	s.loginResponse(w, user)
}

func (s *Server) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var dto models.ForgetPassword
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.issueOTP(dto.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeMessage(w, http.StatusBadRequest, "No account exists for this email")
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "A reset code has been sent")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(userIDKey).(string)

	var dto models.ChangePassword
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	errs := form.Errors{}
	form.Password(errs, "NewPassword", dto.NewPassword)
	if !errs.OK() {
		writeFieldErrors(w, errs)
		return
	}

	_, hash, err := s.userByID(userID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Unknown account")
		return
	}
	if hash != hashPassword(dto.OldPassword) {
		writeMessage(w, http.StatusBadRequest, "The current password is incorrect")
		return
	}
	if _, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hashPassword(dto.NewPassword), userID); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Password changed")
}
