package web

import (
	"crypto/rand"
	"encoding/hex"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/internal/controllers"
	"github.com/leadflowhq/leadflow/internal/engine"
	"github.com/leadflowhq/leadflow/internal/util"

	"golang.org/x/crypto/bcrypt"
)

type WebController struct {
	controllers.AuthController
	userRepo engine.UserRepo
	goalRepo engine.GoalRepo
}

func NewWebController(userRepo engine.UserRepo, goalRepo engine.GoalRepo) *WebController {
	return &WebController{userRepo: userRepo, goalRepo: goalRepo, AuthController: controllers.AuthController{
		UserRepo: userRepo,
	}}
}

func (wc *WebController) indexHandler(w http.ResponseWriter, r *http.Request) {
	// Define the data to be used in the template
	data := struct {
		Title       string
		CurrentPath string
	}{
		Title:       "Dashboard",
		CurrentPath: r.URL.Path,
	}

	// Parse the template file with custom funcs (hasPrefix used in nav)
	tmpl, err := template.New("").Funcs(template.FuncMap{"hasPrefix": hasPrefix}).ParseFS(
		templatesFS,
		"templates/fragments/header.html",
		"templates/fragments/nav.html",
		"templates/home.html")
	if err != nil {
		slog.Error("Failed to parse template", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Execute the template with the data
	err = tmpl.ExecuteTemplate(w, "home", data)
	if err != nil {
		slog.Error("Failed to execute template", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// adminHandler renders the goal management page. Only the admin account
// may see it, anyone else is sent back to the dashboard.
func (wc *WebController) adminHandler(w http.ResponseWriter, r *http.Request) {
	if controllers.Username(r) != controllers.AdminUsername {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	currentGoal := controllers.DefaultMonthlyGoal
	goal, err := wc.goalRepo.GetCurrent()
	if err != nil {
		slog.Error("Failed to load monthly goal", "error", err)
		http.Error(w, "Failed to load", http.StatusInternalServerError)
		return
	}
	if goal != nil {
		currentGoal = goal.Goal
	}

	data := struct {
		Title       string
		CurrentPath string
		CurrentGoal int
	}{
		Title:       "Admin Panel",
		CurrentPath: r.URL.Path,
		CurrentGoal: currentGoal,
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{"hasPrefix": hasPrefix}).ParseFS(
		templatesFS,
		"templates/fragments/header.html",
		"templates/fragments/nav.html",
		"templates/admin.html")
	if err != nil {
		slog.Error("Failed to parse admin template", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "admin", data); err != nil {
		slog.Error("Failed to render admin template", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func hasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix)
}

func (wc *WebController) renderLogin(w http.ResponseWriter, data map[string]any) {
	tmpl, err := template.New("").ParseFS(
		templatesFS,
		"templates/fragments/header.html",
		"templates/login.html",
	)
	if err != nil {
		slog.Error("Failed to parse login template", "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	if err := tmpl.ExecuteTemplate(w, "login", data); err != nil {
		slog.Error("Failed to render login template", "error", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}
}

func (wc *WebController) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	wc.renderLogin(w, map[string]any{"Title": "Login"})
}

// loginSubmitHandler checks the submitted password against the admin
// account. There is a single login for the whole site.
func (wc *WebController) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		wc.renderLogin(w, map[string]any{"Title": "Login", "Error": "Invalid form"})
		return
	}
	password := r.FormValue("password")
	u, err := wc.userRepo.FindByUsername(controllers.AdminUsername)
	if err != nil {
		slog.Error("FindByUsername failed", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if u == nil {
		w.WriteHeader(http.StatusUnauthorized)
		wc.renderLogin(w, map[string]any{"Title": "Login", "Error": "Invalid password"})
		return
	}
	// Compare bcrypt hashed password
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		slog.Debug("Login failed: invalid password")
		w.WriteHeader(http.StatusUnauthorized)
		wc.renderLogin(w, map[string]any{"Title": "Login", "Error": "Invalid password"})
		return
	}
	// Generate session id
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("rand.Read failed", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	sessionID := hex.EncodeToString(buf)
	expiryHours := config.GetSystemSettingInteger(config.WEB_SESSION_EXPIRY_HOURS)
	expires := time.Now().Add(time.Duration(expiryHours) * time.Hour)
	if err := wc.userRepo.UpdateSession(u.ID, sessionID, expires); err != nil {
		slog.Error("UpdateSession failed", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	// Set cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "sessionId",
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// logoutHandler clears the current session and returns to the public dashboard.
func (wc *WebController) logoutHandler(w http.ResponseWriter, r *http.Request) {
	// Get session cookie if exists
	c, err := r.Cookie("sessionId")
	if err == nil && c.Value != "" {
		// Best-effort clear in DB
		if err := wc.userRepo.ClearSessionBySessionID(c.Value); err != nil {
			slog.Warn("Failed to clear session in DB during logout", "error", err)
		}
		// Expire cookie
		http.SetCookie(w, &http.Cookie{
			Name:     "sessionId",
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   false,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
		})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// videoHandler streams a celebration clip from the configured video
// directory. The route pattern keeps the name to a single path segment.
func (wc *WebController) videoHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	path := filepath.Join(config.GetSystemSettingString(config.VIDEO_DIR), name)
	if _, err := os.Stat(path); err != nil {
		slog.Error("Video file not found", "path", path)
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// notFoundHandler answers every path no other route claimed.
func (wc *WebController) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	slog.Error("Not Found", "path", r.URL.Path)
	util.WriteJSONError(w, http.StatusNotFound, "Not Found")
}
