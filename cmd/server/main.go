package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ganad831/fieldrules/controlrule"
	"github.com/ganad831/fieldrules/effects"
	"github.com/ganad831/fieldrules/formula"
	"github.com/ganad831/fieldrules/internal/logger"
	"github.com/ganad831/fieldrules/project"
)

type Server struct {
	db       *sql.DB
	projects *project.Manager
	router   *chi.Mux
}

// NewServer connects to the database when a URL is supplied; with an
// empty URL it runs fully in memory, which serves evaluation-only
// deployments and tests.
func NewServer(databaseURL string) (*Server, error) {
	var db *sql.DB
	if databaseURL != "" {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	projects := project.NewManager(db)

	if db != nil {
		slog.Info("loading projects from database")
		if err := projects.LoadAll(); err != nil {
			return nil, fmt.Errorf("failed to load projects: %w", err)
		}
		slog.Info("projects loaded", "count", len(projects.List()))
	} else {
		slog.Warn("no DATABASE_URL set, running in-memory")
	}

	s := &Server{
		db:       db,
		projects: projects,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Stateless engine endpoints
	r.Get("/api/v1/functions", s.handleListFunctions)
	r.Post("/api/v1/validate", s.handleValidate)
	r.Post("/api/v1/control-rules/check", s.handleCheckControlRule)
	r.Post("/api/v1/control-rules/preview", s.handlePreviewControlRule)
	r.Post("/api/v1/evaluate", s.handleEvaluate)

	// Project management
	r.Route("/api/v1/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Post("/", s.handleCreateProject)

		r.Route("/{projectId}", func(r chi.Router) {
			// Schema management
			r.Get("/schema", s.handleGetSchema)
			r.Post("/schema", s.handleUpdateSchema)

			// Control rule management
			r.Get("/control-rules", s.handleListRules)
			r.Post("/control-rules", s.handleCreateRule)
			r.Get("/control-rules/{fieldId}/{ruleType}", s.handleGetRule)
			r.Put("/control-rules/{fieldId}/{ruleType}", s.handleUpdateRule)
			r.Delete("/control-rules/{fieldId}/{ruleType}", s.handleDeleteRule)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"projectsLoaded": len(s.projects.List()),
	})
}

// Function allow-list handler
func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"functions": formula.FunctionNames(),
	})
}

// Stateless formula validation handler
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	respondJSON(w, http.StatusOK, formula.Validate(req.Formula, req.Fields))
}

// Stateless control rule classification handler
func (s *Server) handleCheckControlRule(w http.ResponseWriter, r *http.Request) {
	var req CheckControlRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ruleType, err := controlrule.ParseRuleType(req.RuleType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule type", err)
		return
	}

	result, err := controlrule.Validate(ruleType, req.TargetFieldID, req.Formula, req.Fields, req.Dependencies)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Stateless control rule preview handler
func (s *Server) handlePreviewControlRule(w http.ResponseWriter, r *http.Request) {
	var req PreviewControlRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ruleType, err := controlrule.ParseRuleType(req.RuleType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule type", err)
		return
	}

	result, err := controlrule.Preview(ruleType, req.TargetFieldID, req.Formula, req.Fields, req.Values)
	if err != nil {
		respondError(w, http.StatusBadRequest, "preview failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Runtime effect evaluation handler
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Values == nil {
		respondError(w, http.StatusBadRequest, "values are required", nil)
		return
	}

	// Ad-hoc rules submitted without ids get one for error tagging.
	for i := range req.Rules {
		if req.Rules[i].ID == "" {
			req.Rules[i].ID = uuid.New().String()
		}
	}

	startTime := time.Now()
	result := effects.EvaluateRules(req.Rules, req.Values, nil)
	resolved := effects.ResolveConflicts(result.Effects)
	evaluationTime := time.Since(startTime)

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Effects:         result.Effects,
		ResolvedEffects: resolved,
		Errors:          result.Errors,
		EvaluationTime:  evaluationTime.String(),
	})
}

// List projects handler
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"projects": s.projects.List(),
	})
}

// Create project handler
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	var projectID string
	if s.db != nil {
		err := s.db.QueryRow(`
			INSERT INTO projects (name) VALUES ($1) RETURNING id
		`, req.Name).Scan(&projectID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to create project", err)
			return
		}
	} else {
		projectID = uuid.New().String()
	}

	if err := s.projects.Create(projectID, req.Schema); err != nil {
		respondError(w, http.StatusBadRequest, "failed to create project", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":   projectID,
		"name": req.Name,
	})
}

// Get schema handler
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	ws, err := s.projects.Get(projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"definition": ws.Schema,
	})
}

// Update schema handler
func (s *Server) handleUpdateSchema(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	var req UpdateSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := s.projects.UpdateSchema(projectID, req.Definition); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update schema", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "active",
	})
}

// List control rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	ws, err := s.projects.Get(projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found", err)
		return
	}

	rules, err := ws.Rules()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
	})
}

// Create control rule handler. The rule is validated before anything is
// persisted; a blocked formula never reaches the store.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")

	var req ControlRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ws, err := s.projects.Get(projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found", err)
		return
	}

	ruleType, err := controlrule.ParseRuleType(req.RuleType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule type", err)
		return
	}

	deps, err := ws.Dependencies()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute dependencies", err)
		return
	}

	result, err := controlrule.Validate(ruleType, req.TargetFieldID, req.Formula, ws.Schema.Snapshot(), deps)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	switch result.Status {
	case controlrule.StatusBlocked:
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	case controlrule.StatusCleared:
		// An empty formula clears any existing rule of this identity.
		_ = ws.Store.Delete(req.TargetFieldID, ruleType)
		ws.Invalidate()
		respondJSON(w, http.StatusOK, result)
		return
	}

	stored := &controlrule.StoredRule{
		TargetFieldID: result.Rule.TargetFieldID,
		RuleType:      result.Rule.RuleType,
		FormulaText:   result.Rule.FormulaText,
	}
	if err := ws.Store.Add(stored); err != nil {
		respondError(w, http.StatusConflict, "failed to add rule", err)
		return
	}
	ws.Invalidate()

	respondJSON(w, http.StatusCreated, result)
}

// Get control rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")
	fieldID := chi.URLParam(r, "fieldId")

	ws, err := s.projects.Get(projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found", err)
		return
	}

	ruleType, err := controlrule.ParseRuleType(chi.URLParam(r, "ruleType"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule type", err)
		return
	}

	stored, err := ws.Store.Get(fieldID, ruleType)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, stored)
}

// Update control rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")
	fieldID := chi.URLParam(r, "fieldId")

	var req UpdateControlRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ws, err := s.projects.Get(projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found", err)
		return
	}

	ruleType, err := controlrule.ParseRuleType(chi.URLParam(r, "ruleType"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule type", err)
		return
	}

	deps, err := ws.Dependencies()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute dependencies", err)
		return
	}

	result, err := controlrule.Validate(ruleType, fieldID, req.Formula, ws.Schema.Snapshot(), deps)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	switch result.Status {
	case controlrule.StatusBlocked:
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	case controlrule.StatusCleared:
		_ = ws.Store.Delete(fieldID, ruleType)
		ws.Invalidate()
		respondJSON(w, http.StatusOK, result)
		return
	}

	stored := &controlrule.StoredRule{
		TargetFieldID: fieldID,
		RuleType:      ruleType,
		FormulaText:   req.Formula,
	}
	if err := ws.Store.Update(stored); err != nil {
		respondError(w, http.StatusNotFound, "failed to update rule", err)
		return
	}
	ws.Invalidate()

	respondJSON(w, http.StatusOK, result)
}

// Delete control rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")
	fieldID := chi.URLParam(r, "fieldId")

	ws, err := s.projects.Get(projectID)
	if err != nil {
		respondError(w, http.StatusNotFound, "project not found", err)
		return
	}

	ruleType, err := controlrule.ParseRuleType(chi.URLParam(r, "ruleType"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule type", err)
		return
	}

	if err := ws.Store.Delete(fieldID, ruleType); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	ws.Invalidate()

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	logger.Init()

	databaseURL := os.Getenv("DATABASE_URL")

	server, err := NewServer(databaseURL)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		slog.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
